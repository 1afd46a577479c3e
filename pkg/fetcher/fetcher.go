// Package fetcher runs the acquisition stage: it submits a scrape run,
// waits for it, and normalizes the raw records into candidate posts after
// de-duplication and recency filtering.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"expatgram/pkg/apify"
	"expatgram/pkg/config"
	"expatgram/pkg/logger"
	"expatgram/pkg/models"
)

// RunClient is the scrape provider surface the fetcher needs. Satisfied by
// *apify.Client.
type RunClient interface {
	StartRun(ctx context.Context, actorID string, input *apify.ActorInput) (*apify.RunData, error)
	WaitForRun(ctx context.Context, actorID, runID string, pollInterval time.Duration) (*apify.RunData, error)
	DatasetItems(ctx context.Context, datasetID string) ([]apify.PostRecord, error)
}

// ShortcodeSource yields the shortcodes that are already persisted.
type ShortcodeSource interface {
	ExistingShortcodes(ctx context.Context) (map[string]struct{}, error)
}

// Fetcher acquires and normalizes candidate posts
type Fetcher struct {
	client RunClient
	store  ShortcodeSource
	cfg    *config.Config
	logger logger.Logger

	// now is replaceable in tests
	now func() time.Time
}

// New creates a fetcher. store may be nil when duplicate skipping is off.
func New(client RunClient, store ShortcodeSource, cfg *config.Config, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client: client,
		store:  store,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// Fetch runs one acquisition pass. Any provider failure aborts the pass;
// there is nothing to classify without fresh records.
func (f *Fetcher) Fetch(ctx context.Context) ([]models.CandidatePost, error) {
	targets, err := ResolveTargets(f.cfg.Fetch, f.cfg.Regions)
	if err != nil {
		return nil, err
	}

	input := &apify.ActorInput{
		DirectURLs:   targets,
		ResultsType:  "posts",
		ResultsLimit: f.cfg.Fetch.MaxPosts,
		SearchType:   "hashtag",
		Proxy:        apify.ProxyOptions{UseApifyProxy: f.cfg.Apify.UseProxy},
	}

	run, err := f.client.StartRun(ctx, f.cfg.Apify.ActorID, input)
	if err != nil {
		return nil, err
	}

	run, err = f.client.WaitForRun(ctx, f.cfg.Apify.ActorID, run.ID, f.cfg.Apify.PollInterval)
	if err != nil {
		return nil, err
	}

	records, err := f.client.DatasetItems(ctx, run.DefaultDatasetID)
	if err != nil {
		return nil, err
	}

	existing, err := f.existingShortcodes(ctx)
	if err != nil {
		return nil, err
	}

	return f.normalize(records, existing), nil
}

func (f *Fetcher) existingShortcodes(ctx context.Context) (map[string]struct{}, error) {
	if !f.cfg.Fetch.SkipDuplicates || f.store == nil {
		return nil, nil
	}
	return f.store.ExistingShortcodes(ctx)
}

// normalize filters the raw records and converts survivors into candidate
// posts, capped at the configured maximum in provider order.
func (f *Fetcher) normalize(records []apify.PostRecord, existing map[string]struct{}) []models.CandidatePost {
	cutoff := f.now().AddDate(0, 0, -f.cfg.Fetch.RecencyWindowDays)

	var dropped struct{ noShortcode, duplicate, stale int }
	posts := make([]models.CandidatePost, 0, len(records))

	for _, rec := range records {
		if rec.ShortCode == "" {
			dropped.noShortcode++
			continue
		}
		if _, seen := existing[rec.ShortCode]; seen {
			dropped.duplicate++
			continue
		}
		// A timestamp that does not parse is kept; only posts known to be
		// old are filtered out.
		if postedAt, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil && postedAt.Before(cutoff) {
			dropped.stale++
			continue
		}

		postURL := rec.URL
		if postURL == "" {
			postURL = fmt.Sprintf("https://www.instagram.com/p/%s/", rec.ShortCode)
		}

		posts = append(posts, models.CandidatePost{
			Shortcode: rec.ShortCode,
			Text:      rec.Caption,
			ImageURL:  rec.ImageURL(),
			PostURL:   postURL,
			PostedAt:  rec.Timestamp,
			Author:    rec.OwnerUsername,
		})

		if len(posts) == f.cfg.Fetch.MaxPosts {
			break
		}
	}

	f.logger.InfoWithFields("fetch pass complete", map[string]interface{}{
		"records":        len(records),
		"candidates":     len(posts),
		"no_shortcode":   dropped.noShortcode,
		"duplicates":     dropped.duplicate,
		"outside_window": dropped.stale,
	})

	return posts
}
