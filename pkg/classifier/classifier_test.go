package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "expatgram/pkg/errors"
	"expatgram/pkg/logger"
	"expatgram/pkg/models"
	"expatgram/pkg/retry"
)

type fakeModel struct {
	response  string
	err       error
	gotPrompt string
	gotImage  []byte
	gotMIME   string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string, image []byte, imageMIME string) (string, error) {
	f.gotPrompt = prompt
	f.gotImage = image
	f.gotMIME = imageMIME
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func candidate() models.CandidatePost {
	return models.CandidatePost{
		Shortcode: "ABC123",
		Text:      "hiring baristas, apply within",
		PostURL:   "https://www.instagram.com/p/ABC123/",
		Author:    "toronto_jobs",
	}
}

func TestClassifyParsesModelAnswer(t *testing.T) {
	model := &fakeModel{response: `{"category": "Job", "data": {"job_title": "barista", "rewritten_text": "カフェスタッフ募集。"}}`}
	c := New(model, nil, "Toronto", logger.NewCaptureLogger())

	result := c.Classify(context.Background(), candidate())
	assert.Equal(t, models.CategoryJob, result.Category)
	assert.Equal(t, "カフェスタッフ募集。", result.Field(models.FieldRewrittenText))
	assert.Contains(t, model.gotPrompt, "hiring baristas, apply within")
	assert.Contains(t, model.gotPrompt, "Toronto")
}

func TestClassifyStripsCodeFences(t *testing.T) {
	model := &fakeModel{response: "```json\n{\"category\": \"House\", \"data\": {}}\n```"}
	c := New(model, nil, "Toronto", logger.NewCaptureLogger())

	result := c.Classify(context.Background(), candidate())
	assert.Equal(t, models.CategoryHouse, result.Category)
}

func TestClassifyModelFailureBecomesErrorResult(t *testing.T) {
	model := &fakeModel{err: errs.New(errs.ErrorTypeRateLimit, "quota exceeded")}
	c := New(model, nil, "Toronto", logger.NewCaptureLogger())

	result := c.Classify(context.Background(), candidate())
	assert.Equal(t, models.CategoryError, result.Category)
	assert.Contains(t, result.ErrorDetail, "quota exceeded")
}

func TestClassifyMalformedOutputBecomesErrorResult(t *testing.T) {
	model := &fakeModel{response: "I cannot classify this post."}
	c := New(model, nil, "Toronto", logger.NewCaptureLogger())

	result := c.Classify(context.Background(), candidate())
	assert.Equal(t, models.CategoryError, result.Category)
	assert.NotEmpty(t, result.ErrorDetail)
}

func TestClassifyUnknownCategoryBecomesErrorResult(t *testing.T) {
	model := &fakeModel{response: `{"category": "Restaurant", "data": {}}`}
	c := New(model, nil, "Toronto", logger.NewCaptureLogger())

	result := c.Classify(context.Background(), candidate())
	assert.Equal(t, models.CategoryError, result.Category)
	assert.Contains(t, result.ErrorDetail, "Restaurant")
}

func TestClassifyEmptyCaptionGetsMarker(t *testing.T) {
	model := &fakeModel{response: `{"category": "Ignore", "data": {}}`}
	c := New(model, nil, "Toronto", logger.NewCaptureLogger())

	post := candidate()
	post.Text = "   "
	c.Classify(context.Background(), post)
	assert.Contains(t, model.gotPrompt, "(no caption)")
}

func TestClassifyContinuesWithoutImageOnFetchFailure(t *testing.T) {
	model := &fakeModel{response: `{"category": "Event", "data": {}}`}
	images := NewImageFetcher(1024, 50*time.Millisecond, logger.NewCaptureLogger())
	images.backoff = &retry.ConstantBackoff{Delay: time.Millisecond}
	c := New(model, images, "Toronto", logger.NewCaptureLogger())

	post := candidate()
	post.ImageURL = "http://127.0.0.1:1/unreachable.jpg"

	result := c.Classify(context.Background(), post)
	assert.Equal(t, models.CategoryEvent, result.Category)
	assert.Nil(t, model.gotImage)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced with tag", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced without tag", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestParseModelOutputRejectsGarbage(t *testing.T) {
	_, err := ParseModelOutput("not json at all")
	require.Error(t, err)

	var typed *errs.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, errs.ErrorTypeMalformedOutput, typed.Type)
}

func TestBuildPromptNamesOutputFields(t *testing.T) {
	prompt := BuildPrompt(candidate(), "Toronto")
	for _, field := range []string{
		models.FieldShortcode,
		models.FieldOriginalURL,
		models.FieldPostedAt,
		models.FieldAuthor,
		models.FieldRewrittenText,
	} {
		assert.True(t, strings.Contains(prompt, field), field)
	}
}

func TestBuildPromptNamesCategoryFields(t *testing.T) {
	prompt := BuildPrompt(candidate(), "Toronto")
	for _, field := range []string{
		// Job
		"job_title", "job_description_summary", "shop_name", "location", "apply_method",
		// House
		"rent_price", "area", "nearest_station", "room_type", "move_in_date",
		// Event
		"event_name", "event_date", "event_place",
	} {
		assert.True(t, strings.Contains(prompt, `"`+field+`"`), field)
	}
}
