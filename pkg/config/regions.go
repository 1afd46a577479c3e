package config

// RegionTargets groups the default scrape targets for one region.
type RegionTargets struct {
	Hashtags []string `yaml:"hashtags" json:"hashtags"`
	Accounts []string `yaml:"accounts" json:"accounts"`
}

// DefaultRegions returns the built-in region target table. Hashtags mix
// English and Japanese because the audience is Japanese speakers abroad.
func DefaultRegions() map[string]RegionTargets {
	return map[string]RegionTargets{
		"Toronto": {
			Hashtags: []string{"torontojobs", "torontorentals", "トロント求人", "torontoevents"},
			Accounts: []string{"blogto", "torontolife"},
		},
		"Thailand": {
			Hashtags: []string{"thailandjobs", "bangkokrentals", "タイ就職", "バンコク生活", "thailandtravel"},
		},
		"Philippines": {
			Hashtags: []string{"philippinesjobs", "manilarentals", "セブ島留学", "フィリピン求人", "manilalife"},
		},
		"UK": {
			Hashtags: []string{"ukjobs", "londonrentals", "イギリスワーホリ", "ロンドン生活", "uklife"},
		},
		"Australia": {
			Hashtags: []string{"australiajobs", "sydneyrentals", "オーストラリアワーホリ", "メルボルンカフェ", "sydneylife"},
		},
	}
}
