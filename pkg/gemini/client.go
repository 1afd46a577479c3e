// Package gemini is a minimal client for the Gemini generateContent API,
// supporting text prompts with optional inline image data.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "expatgram/pkg/errors"
	"expatgram/pkg/logger"
)

// DefaultBaseURL is the Gemini API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Client represents a Gemini API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	genConfig  GenerationConfig
	logger     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a new Gemini API client
func NewClient(apiKey, model string, genConfig GenerationConfig, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		model:      model,
		genConfig:  genConfig,
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends a text prompt, with optional inline image bytes, and
// returns the model's text response.
func (c *Client) Generate(ctx context.Context, prompt string, image []byte, imageMIME string) (string, error) {
	parts := []Part{{Text: prompt}}
	if len(image) > 0 {
		parts = append(parts, Part{InlineData: &InlineData{
			MIMEType: imageMIME,
			Data:     base64.StdEncoding.EncodeToString(image),
		}})
	}

	reqBody := generateRequest{
		Contents:         []Content{{Parts: parts}},
		GenerationConfig: c.genConfig,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeUnknown, "failed to encode request body: %v", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		return "", errs.Newf(errs.ErrorTypeNetwork, "network error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Newf(errs.ErrorTypeNetwork, "failed to read response body: %v", err)
	}

	c.logger.DebugWithFields("model request completed", map[string]interface{}{
		"model":       c.model,
		"status":      resp.StatusCode,
		"duration":    duration,
		"with_image":  len(image) > 0,
		"prompt_size": len(prompt),
	})

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp.StatusCode, body)
	}

	var generated generateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return "", &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse response: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if len(generated.Candidates) == 0 || len(generated.Candidates[0].Content.Parts) == 0 {
		return "", errs.New(errs.ErrorTypeMalformedOutput, "response carries no candidates")
	}

	var text string
	for _, part := range generated.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}

// statusError maps an error response onto a typed error, surfacing the
// API's own message when it sends one.
func (c *Client) statusError(statusCode int, body []byte) error {
	message := "model request failed"
	var generated generateResponse
	if err := json.Unmarshal(body, &generated); err == nil && generated.Error != nil {
		message = generated.Error.Message
	}

	var errorType errs.ErrorType
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errorType = errs.ErrorTypeCredentialMissing
	case statusCode == http.StatusTooManyRequests:
		errorType = errs.ErrorTypeRateLimit
	case statusCode >= 500:
		errorType = errs.ErrorTypeServerError
	default:
		errorType = errs.ErrorTypeUnknown
	}

	c.logger.WarnWithFields("model API error", map[string]interface{}{
		"status":  statusCode,
		"message": message,
	})

	return &errs.Error{Type: errorType, Message: message, Code: statusCode}
}
