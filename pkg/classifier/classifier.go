// Package classifier turns candidate posts into classification results by
// prompting a language model with the caption and, when available, the post
// image.
package classifier

import (
	"context"
	"encoding/json"
	"strings"

	errs "expatgram/pkg/errors"
	"expatgram/pkg/logger"
	"expatgram/pkg/models"
)

// TextGenerator is the model surface the classifier needs. Satisfied by
// *gemini.Client.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, image []byte, imageMIME string) (string, error)
}

// Classifier classifies candidate posts one at a time
type Classifier struct {
	model  TextGenerator
	images *ImageFetcher
	region string
	logger logger.Logger
}

// New creates a classifier. images may be nil to disable image evidence.
func New(model TextGenerator, images *ImageFetcher, region string, log logger.Logger) *Classifier {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Classifier{
		model:  model,
		images: images,
		region: region,
		logger: log,
	}
}

// Classify classifies one post. It never returns an error: any failure
// becomes an Error-category result so one bad post cannot sink the batch.
func (c *Classifier) Classify(ctx context.Context, post models.CandidatePost) *models.ClassificationResult {
	prompt := BuildPrompt(post, c.region)

	image, mime := c.fetchImage(ctx, post)

	text, err := c.model.Generate(ctx, prompt, image, mime)
	if err != nil {
		logger.LogClassification(post.Shortcode, string(models.CategoryError), err)
		return errorResult(err.Error())
	}

	result, err := ParseModelOutput(text)
	if err != nil {
		logger.LogClassification(post.Shortcode, string(models.CategoryError), err)
		return errorResult(err.Error())
	}

	logger.LogClassification(post.Shortcode, string(result.Category), nil)
	return result
}

// fetchImage downloads the post image when there is one. Failures degrade
// the call to text only.
func (c *Classifier) fetchImage(ctx context.Context, post models.CandidatePost) ([]byte, string) {
	if c.images == nil || post.ImageURL == "" {
		return nil, ""
	}

	image, mime, err := c.images.Fetch(ctx, post.ImageURL)
	if err != nil {
		c.logger.WarnWithFields("image unavailable, classifying from text only", map[string]interface{}{
			"shortcode": post.Shortcode,
			"error":     err.Error(),
		})
		return nil, ""
	}
	return image, mime
}

func errorResult(detail string) *models.ClassificationResult {
	return &models.ClassificationResult{
		Category:    models.CategoryError,
		ErrorDetail: detail,
	}
}

// StripCodeFence removes a surrounding markdown code fence, with or without
// a language tag, from model output.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// Drop the language tag line ("json" etc).
		if tag := strings.TrimSpace(text[:idx]); tag == "" || !strings.ContainsAny(tag, "{}") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseModelOutput decodes the model's JSON answer into a result, rejecting
// unknown categories.
func ParseModelOutput(text string) (*models.ClassificationResult, error) {
	cleaned := StripCodeFence(text)

	var raw struct {
		Category string                 `json:"category"`
		Data     map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, errs.Newf(errs.ErrorTypeMalformedOutput, "model output is not valid JSON: %v", err)
	}

	category, ok := models.ParseCategory(raw.Category)
	if !ok {
		return nil, errs.Newf(errs.ErrorTypeMalformedOutput, "model emitted unknown category %q", raw.Category)
	}

	return &models.ClassificationResult{Category: category, Data: raw.Data}, nil
}
