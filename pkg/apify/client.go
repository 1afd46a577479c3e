// Package apify is a client for the Apify actor API, covering the three
// calls the pipeline needs: start a scrape run, poll it to a terminal
// state, and read the run's output dataset.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "expatgram/pkg/errors"
	"expatgram/pkg/logger"
	"expatgram/pkg/ratelimit"
)

// Client represents an Apify API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithLimiter paces all API requests through the given limiter.
func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = limiter }
}

// NewClient creates a new Apify API client
func NewClient(token string, timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    BaseURL,
		token:      token,
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartRun submits a scrape run for the given actor and returns the run
// descriptor. A non-created response fails fast; retries are the caller's
// decision.
func (c *Client) StartRun(ctx context.Context, actorID string, input *ActorInput) (*RunData, error) {
	url := ActorRunsURL(c.baseURL, actorID)

	c.logger.InfoWithFields("starting scrape run", map[string]interface{}{
		"actor_id": actorID,
		"targets":  len(input.DirectURLs),
		"limit":    input.ResultsLimit,
	})

	var envelope runEnvelope
	if err := c.postJSON(ctx, url, input, &envelope); err != nil {
		return nil, err
	}

	if envelope.Data.ID == "" {
		return nil, errs.New(errs.ErrorTypeParsing, "run response carries no run id")
	}

	c.logger.InfoWithFields("scrape run started", map[string]interface{}{
		"run_id": envelope.Data.ID,
		"status": envelope.Data.Status,
	})

	return &envelope.Data, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, actorID, runID string) (*RunData, error) {
	url := RunURL(c.baseURL, actorID, runID)

	var envelope runEnvelope
	if err := c.getJSON(ctx, url, &envelope); err != nil {
		return nil, err
	}

	return &envelope.Data, nil
}

// WaitForRun polls a run at pollInterval until it reaches a terminal state.
// A non-succeeded terminal state is a provider_job_failed error.
func (c *Client) WaitForRun(ctx context.Context, actorID, runID string, pollInterval time.Duration) (*RunData, error) {
	for {
		run, err := c.GetRun(ctx, actorID, runID)
		if err != nil {
			return nil, err
		}

		c.logger.DebugWithFields("run status", map[string]interface{}{
			"run_id": runID,
			"status": run.Status,
		})

		if IsTerminalStatus(run.Status) {
			if run.Status != RunStatusSucceeded {
				return run, errs.Newf(errs.ErrorTypeProviderJobFailed,
					"run %s finished with status %s", runID, run.Status)
			}
			return run, nil
		}

		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// DatasetItems reads the raw post records from a run's output dataset.
func (c *Client) DatasetItems(ctx context.Context, datasetID string) ([]PostRecord, error) {
	url := DatasetItemsURL(c.baseURL, datasetID)

	var records []PostRecord
	if err := c.getJSON(ctx, url, &records); err != nil {
		return nil, err
	}

	c.logger.InfoWithFields("dataset read", map[string]interface{}{
		"dataset_id": datasetID,
		"records":    len(records),
	})

	return records, nil
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.Newf(errs.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	return c.doJSON(req, http.StatusOK, target)
}

// postJSON performs a POST request with a JSON body and decodes the response
func (c *Client) postJSON(ctx context.Context, url string, body, target interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Newf(errs.ErrorTypeUnknown, "failed to encode request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errs.Newf(errs.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, http.StatusCreated, target)
}

// doJSON sends the request with auth and pacing applied, checks the status
// code and decodes the body into target.
func (c *Client) doJSON(req *http.Request, wantStatus int, target interface{}) error {
	q := req.URL.Query()
	q.Set("token", c.token)
	req.URL.RawQuery = q.Encode()

	if c.limiter != nil {
		c.limiter.Wait()
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"path":     req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		return errs.Newf(errs.ErrorTypeNetwork, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode != wantStatus {
		return c.statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         req.URL.Path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// statusError maps an unexpected HTTP status onto a typed error
func (c *Client) statusError(resp *http.Response) error {
	var errorType errs.ErrorType
	var message string

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		errorType, message = errs.ErrorTypeCredentialMissing, "provider rejected the API token"
	case resp.StatusCode == http.StatusNotFound:
		errorType, message = errs.ErrorTypeNotFound, "resource not found"
	case resp.StatusCode == http.StatusTooManyRequests:
		errorType, message = errs.ErrorTypeRateLimit, "rate limit exceeded"
	case resp.StatusCode >= 500:
		errorType, message = errs.ErrorTypeServerError, "server error"
	default:
		errorType, message = errs.ErrorTypeUnknown, fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}

	c.logger.WarnWithFields("provider API error", map[string]interface{}{
		"status": resp.StatusCode,
		"path":   resp.Request.URL.Path,
		"type":   string(errorType),
	})

	return &errs.Error{Type: errorType, Message: message, Code: resp.StatusCode}
}
