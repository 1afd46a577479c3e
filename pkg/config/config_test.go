package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Toronto", cfg.Fetch.Region)
	assert.Equal(t, 14, cfg.Fetch.RecencyWindowDays)
	assert.Equal(t, 10, cfg.Fetch.MaxPosts)
	assert.True(t, cfg.Fetch.SkipDuplicates)
	assert.Equal(t, "gemini-flash-latest", cfg.Gemini.Model)
	assert.Equal(t, 20*time.Second, cfg.Gemini.RequestDelay)
	assert.Equal(t, "posts", cfg.Database.Table)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expatgram.yaml")
	content := `
fetch:
  region: "Australia"
  recency_window_days: 30
  max_posts: 25
  skip_duplicates: true
gemini:
  request_delay: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "Australia", cfg.Fetch.Region)
	assert.Equal(t, 30, cfg.Fetch.RecencyWindowDays)
	assert.Equal(t, 25, cfg.Fetch.MaxPosts)
	assert.Equal(t, 30*time.Second, cfg.Gemini.RequestDelay)
	// Untouched sections keep their defaults.
	assert.Equal(t, "shu8hvrXbJbY3Eb9W", cfg.Apify.ActorID)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EXPATGRAM_REGION", "Thailand")
	t.Setenv("EXPATGRAM_TARGETS", "#bangkokjobs, @bangkokexpats")
	t.Setenv("EXPATGRAM_RECENCY_DAYS", "7")
	t.Setenv("EXPATGRAM_MAX_POSTS", "5")
	t.Setenv("EXPATGRAM_SKIP_DUPLICATES", "false")
	t.Setenv("EXPATGRAM_REQUEST_DELAY", "5s")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "Thailand", cfg.Fetch.Region)
	assert.Equal(t, []string{"#bangkokjobs", "@bangkokexpats"}, cfg.Fetch.Targets)
	assert.Equal(t, 7, cfg.Fetch.RecencyWindowDays)
	assert.Equal(t, 5, cfg.Fetch.MaxPosts)
	assert.False(t, cfg.Fetch.SkipDuplicates)
	assert.Equal(t, 5*time.Second, cfg.Gemini.RequestDelay)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"region":          "UK",
		"days":            21,
		"limit":           50,
		"skip-duplicates": false,
	})

	assert.Equal(t, "UK", cfg.Fetch.Region)
	assert.Equal(t, 21, cfg.Fetch.RecencyWindowDays)
	assert.Equal(t, 50, cfg.Fetch.MaxPosts)
	assert.False(t, cfg.Fetch.SkipDuplicates)
}

func TestValidateRejectsUnknownRegion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetch.Region = "Atlantis"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Atlantis")
}

func TestValidateAllowsUnknownRegionWithExplicitTargets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetch.Region = "Atlantis"
	cfg.Fetch.Targets = []string{"#atlantisjobs"}

	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apify.ActorID = ""
	cfg.Gemini.Model = ""
	cfg.Fetch.MaxPosts = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actor ID")
	assert.Contains(t, err.Error(), "gemini model")
	assert.Contains(t, err.Error(), "max posts")
}

func TestMergeRegionsKeepsBuiltinsUnderOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expatgram.yaml")
	content := `
regions:
  Berlin:
    hashtags: ["berlinjobs"]
  Toronto:
    hashtags: ["customtoronto"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	// New region added, built-ins still present, overrides win.
	assert.Contains(t, cfg.Regions, "Berlin")
	assert.Contains(t, cfg.Regions, "Australia")
	assert.Equal(t, []string{"customtoronto"}, cfg.Regions["Toronto"].Hashtags)
}

func TestDefaultRegionsCoverAllFive(t *testing.T) {
	regions := DefaultRegions()
	for _, name := range []string{"Toronto", "Thailand", "Philippines", "UK", "Australia"} {
		targets, ok := regions[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, targets.Hashtags, name)
	}
}
