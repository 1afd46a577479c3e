// Package store persists classified posts to Postgres. Writes are
// idempotent on the post shortcode, and the workflow status of an existing
// row is never overwritten.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	errs "expatgram/pkg/errors"
	"expatgram/pkg/logger"
	"expatgram/pkg/models"
)

// DB is the subset of the pgx pool API the store needs. *pgxpool.Pool
// satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostStore reads and writes the posts table
type PostStore struct {
	db     DB
	table  string
	logger logger.Logger
}

// NewPostStore creates a store over the given connection pool and table
func NewPostStore(db DB, table string, log logger.Logger) *PostStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &PostStore{
		db:     db,
		table:  pgx.Identifier{table}.Sanitize(),
		logger: log,
	}
}

// EnsureSchema creates the posts table if it does not exist yet.
func (s *PostStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			instagram_shortcode TEXT PRIMARY KEY,
			status              TEXT NOT NULL,
			category            TEXT NOT NULL,
			original_url        TEXT NOT NULL DEFAULT '',
			posted_at           TEXT NOT NULL DEFAULT '',
			author              TEXT NOT NULL DEFAULT '',
			content             TEXT NOT NULL DEFAULT '',
			details             JSONB,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table)

	if _, err := s.db.Exec(ctx, query); err != nil {
		return errs.Newf(errs.ErrorTypeStorage, "failed to ensure schema: %v", err)
	}
	return nil
}

// ExistingShortcodes returns the set of shortcodes already persisted.
func (s *PostStore) ExistingShortcodes(ctx context.Context) (map[string]struct{}, error) {
	query := fmt.Sprintf("SELECT instagram_shortcode FROM %s", s.table)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeStorage, "failed to read shortcodes: %v", err)
	}
	defer rows.Close()

	shortcodes := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, errs.Newf(errs.ErrorTypeStorage, "failed to scan shortcode: %v", err)
		}
		shortcodes[code] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Newf(errs.ErrorTypeStorage, "failed to read shortcodes: %v", err)
	}

	return shortcodes, nil
}

// Upsert writes one classification result and reports whether it was
// handled. Ignore results are handled successfully without touching the
// database; a result with no usable shortcode is a no_key error. On update
// the existing workflow status is preserved; on insert the row starts out
// pending.
func (s *PostStore) Upsert(ctx context.Context, result *models.ClassificationResult) (bool, error) {
	if result.Category == models.CategoryIgnore {
		return true, nil
	}

	shortcode := s.shortcodeKey(result)
	if shortcode == "" {
		return false, errs.Newf(errs.ErrorTypeNoKey,
			"%s result has no shortcode and no parseable post URL", result.Category)
	}

	post := models.StoredPost{
		Shortcode:   shortcode,
		Status:      models.StatusPending,
		Category:    result.Category,
		OriginalURL: result.Field(models.FieldOriginalURL),
		PostedAt:    result.Field(models.FieldPostedAt),
		Author:      result.Field(models.FieldAuthor),
		Content:     result.Field(models.FieldRewrittenText),
		Details:     result.Data,
	}

	var existingStatus string
	err := s.db.QueryRow(ctx,
		fmt.Sprintf("SELECT status FROM %s WHERE instagram_shortcode = $1", s.table),
		shortcode,
	).Scan(&existingStatus)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, s.insert(ctx, &post)
	case err != nil:
		return false, errs.Newf(errs.ErrorTypeStorage, "failed to look up post %s: %v", shortcode, err)
	default:
		return true, s.update(ctx, &post)
	}
}

func (s *PostStore) insert(ctx context.Context, post *models.StoredPost) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (instagram_shortcode, status, category, original_url, posted_at, author, content, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, s.table)

	_, err := s.db.Exec(ctx, query,
		post.Shortcode, post.Status, string(post.Category),
		post.OriginalURL, post.PostedAt, post.Author, post.Content, post.Details)
	if err != nil {
		return errs.Newf(errs.ErrorTypeStorage, "failed to insert post %s: %v", post.Shortcode, err)
	}

	s.logger.InfoWithFields("post inserted", map[string]interface{}{
		"shortcode": post.Shortcode,
		"category":  string(post.Category),
	})
	return nil
}

func (s *PostStore) update(ctx context.Context, post *models.StoredPost) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET category = $2, original_url = $3, posted_at = $4, author = $5, content = $6, details = $7, updated_at = now()
		WHERE instagram_shortcode = $1`, s.table)

	_, err := s.db.Exec(ctx, query,
		post.Shortcode, string(post.Category),
		post.OriginalURL, post.PostedAt, post.Author, post.Content, post.Details)
	if err != nil {
		return errs.Newf(errs.ErrorTypeStorage, "failed to update post %s: %v", post.Shortcode, err)
	}

	s.logger.InfoWithFields("post updated, status preserved", map[string]interface{}{
		"shortcode": post.Shortcode,
		"category":  string(post.Category),
	})
	return nil
}

// shortcodeKey extracts the persistence key, falling back to the post URL
// path when the model dropped the shortcode field.
func (s *PostStore) shortcodeKey(result *models.ClassificationResult) string {
	if code := result.Field(models.FieldShortcode); code != "" {
		return code
	}
	return ShortcodeFromURL(result.Field(models.FieldOriginalURL))
}

// ShortcodeFromURL pulls the shortcode out of a post permalink such as
// https://www.instagram.com/p/ABC123/.
func ShortcodeFromURL(url string) string {
	const marker = "/p/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return ""
	}
	rest := url[idx+len(marker):]
	if end := strings.IndexAny(rest, "/?"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
