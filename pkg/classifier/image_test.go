package classifier

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expatgram/pkg/logger"
	"expatgram/pkg/retry"
)

func TestImageFetcherDownloads(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 512)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	f := NewImageFetcher(1024, time.Second, logger.NewCaptureLogger())

	data, mime, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "image/png", mime)
}

func TestImageFetcherDefaultsMIME(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{1, 2, 3})
	}))
	defer server.Close()

	f := NewImageFetcher(1024, time.Second, logger.NewCaptureLogger())

	_, mime, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
}

func TestImageFetcherRejectsOversized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xCD}, 2048))
	}))
	defer server.Close()

	f := NewImageFetcher(1024, time.Second, logger.NewCaptureLogger())

	_, _, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte cap")
}

func TestImageFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{1})
	}))
	defer server.Close()

	f := NewImageFetcher(1024, time.Second, logger.NewCaptureLogger())
	f.backoff = &retry.ConstantBackoff{Delay: time.Millisecond}

	data, _, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestImageFetcherDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewImageFetcher(1024, time.Second, logger.NewCaptureLogger())

	_, _, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
