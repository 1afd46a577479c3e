// Package pipeline orchestrates one ingestion run: fetch candidates,
// classify each one, then persist results in priority order.
package pipeline

import (
	"context"
	"sort"

	"expatgram/pkg/logger"
	"expatgram/pkg/models"
	"expatgram/pkg/ratelimit"
)

// Fetcher acquires the candidate posts for one run.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.CandidatePost, error)
}

// Classifier classifies a single post.
type Classifier interface {
	Classify(ctx context.Context, post models.CandidatePost) *models.ClassificationResult
}

// Store persists classification results.
type Store interface {
	Upsert(ctx context.Context, result *models.ClassificationResult) (bool, error)
}

// Pipeline wires the three stages together
type Pipeline struct {
	fetcher    Fetcher
	classifier Classifier
	store      Store
	pacer      ratelimit.Limiter
	logger     logger.Logger
}

// New creates a pipeline. pacer spaces out classification calls and may be
// nil to disable pacing.
func New(fetcher Fetcher, classifier Classifier, store Store, pacer ratelimit.Limiter, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		fetcher:    fetcher,
		classifier: classifier,
		store:      store,
		pacer:      pacer,
		logger:     log,
	}
}

// Run executes one full pass. A fetch failure aborts the run; failures on
// individual posts do not.
func (p *Pipeline) Run(ctx context.Context) (*models.Summary, error) {
	summary := &models.Summary{}

	posts, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	summary.Fetched = len(posts)

	if len(posts) == 0 {
		p.logger.Info("nothing to classify")
		return summary, nil
	}

	results := make([]*models.ClassificationResult, 0, len(posts))
	for i, post := range posts {
		if i > 0 && p.pacer != nil {
			p.pacer.Wait()
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := p.classifier.Classify(ctx, post)
		summary.Analyzed++
		summary.Count(result.Category)

		if result.Category == models.CategoryError {
			p.logger.WarnWithFields("post dropped after failed classification", map[string]interface{}{
				"shortcode": post.Shortcode,
				"detail":    result.ErrorDetail,
			})
			continue
		}

		// The model is not trusted with identity: the scraped values always
		// win over whatever it echoed back.
		result.SetField(models.FieldShortcode, post.Shortcode)
		result.SetField(models.FieldOriginalURL, post.PostURL)
		result.SetField(models.FieldPostedAt, post.PostedAt)
		result.SetField(models.FieldAuthor, post.Author)

		results = append(results, result)
	}

	// Stable sort keeps provider order within a category, so persistence
	// proceeds Job first and recent-first inside each group.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Category.Priority() < results[j].Category.Priority()
	})

	for _, result := range results {
		saved, err := p.store.Upsert(ctx, result)
		logger.LogPersist(result.Field(models.FieldShortcode), string(result.Category), saved, err)
		if err != nil {
			continue
		}
		if saved {
			summary.Saved++
		}
	}

	p.logger.InfoWithFields("run complete", map[string]interface{}{
		"fetched":  summary.Fetched,
		"analyzed": summary.Analyzed,
		"saved":    summary.Saved,
	})

	return summary, nil
}
