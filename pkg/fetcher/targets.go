package fetcher

import (
	"fmt"
	"strings"

	"expatgram/pkg/config"
	errs "expatgram/pkg/errors"
)

// TargetURL converts one target entry into a scrape URL. A leading "@" marks
// an account; anything else, with or without a leading "#", is a hashtag.
func TargetURL(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	if name, ok := strings.CutPrefix(target, "@"); ok {
		return fmt.Sprintf("https://www.instagram.com/%s/", name)
	}
	tag := strings.TrimPrefix(target, "#")
	return fmt.Sprintf("https://www.instagram.com/explore/tags/%s/", tag)
}

// ResolveTargets turns the fetch configuration into the list of URLs handed
// to the scrape provider. Explicit targets win; otherwise the region table
// supplies hashtags and accounts.
func ResolveTargets(fetch config.FetchConfig, regions map[string]config.RegionTargets) ([]string, error) {
	if len(fetch.Targets) > 0 {
		urls := make([]string, 0, len(fetch.Targets))
		for _, target := range fetch.Targets {
			if url := TargetURL(target); url != "" {
				urls = append(urls, url)
			}
		}
		if len(urls) == 0 {
			return nil, errs.New(errs.ErrorTypeUnknown, "no usable scrape targets configured")
		}
		return urls, nil
	}

	region, ok := regions[fetch.Region]
	if !ok {
		return nil, errs.Newf(errs.ErrorTypeUnknown, "unknown region %q", fetch.Region)
	}

	urls := make([]string, 0, len(region.Hashtags)+len(region.Accounts))
	for _, tag := range region.Hashtags {
		urls = append(urls, TargetURL("#"+tag))
	}
	for _, account := range region.Accounts {
		urls = append(urls, TargetURL("@"+account))
	}
	if len(urls) == 0 {
		return nil, errs.Newf(errs.ErrorTypeUnknown, "region %q has no scrape targets", fetch.Region)
	}
	return urls, nil
}
