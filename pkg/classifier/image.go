package classifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errs "expatgram/pkg/errors"
	"expatgram/pkg/logger"
	"expatgram/pkg/retry"
)

// ImageFetcher downloads post images with a size cap. Transient failures
// are retried; anything else degrades the classification to text only.
type ImageFetcher struct {
	httpClient *http.Client
	maxBytes   int64
	backoff    retry.BackoffStrategy
	logger     logger.Logger
}

// NewImageFetcher creates an image fetcher with the given byte cap and
// per-request timeout.
func NewImageFetcher(maxBytes int64, timeout time.Duration, log logger.Logger) *ImageFetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ImageFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		backoff:    &retry.ConstantBackoff{Delay: time.Second},
		logger:     log,
	}
}

type fetchedImage struct {
	data []byte
	mime string
}

// Fetch downloads the image at url. It returns the raw bytes and the MIME
// type reported by the server, defaulting to image/jpeg.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	cfg := &retry.Config{
		MaxAttempts: 3,
		Backoff:     f.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      f.logger,
	}

	img, err := retry.DoWithResult(func() (fetchedImage, error) {
		return f.fetchOnce(ctx, url)
	}, cfg)
	if err != nil {
		return nil, "", err
	}
	return img.data, img.mime, nil
}

func (f *ImageFetcher) fetchOnce(ctx context.Context, url string) (fetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fetchedImage{}, errs.Newf(errs.ErrorTypeUnknown, "failed to create request: %v", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fetchedImage{}, errs.Newf(errs.ErrorTypeNetwork, "image download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorType := errs.ErrorTypeUnknown
		if errs.IsRetryableStatusCode(resp.StatusCode) {
			errorType = errs.ErrorTypeServerError
		}
		return fetchedImage{}, &errs.Error{
			Type:    errorType,
			Message: fmt.Sprintf("image download returned status %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	// Read one byte past the cap so oversized images are detected without
	// buffering them whole.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return fetchedImage{}, errs.Newf(errs.ErrorTypeNetwork, "image download failed: %v", err)
	}
	if int64(len(data)) > f.maxBytes {
		return fetchedImage{}, errs.Newf(errs.ErrorTypeUnknown,
			"image exceeds %d byte cap", f.maxBytes)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}

	return fetchedImage{data: data, mime: mime}, nil
}
