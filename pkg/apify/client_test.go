package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "expatgram/pkg/errors"
	"expatgram/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-token", 5*time.Second, logger.NewCaptureLogger(), WithBaseURL(server.URL))
	return client, server
}

func TestStartRun(t *testing.T) {
	var gotInput ActorInput
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/acts/actor1/runs", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotInput))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(runEnvelope{Data: RunData{
			ID:               "run1",
			Status:           RunStatusReady,
			DefaultDatasetID: "ds1",
		}})
	}))

	input := &ActorInput{
		DirectURLs:   []string{"https://www.instagram.com/explore/tags/tokyo/"},
		ResultsType:  "posts",
		ResultsLimit: 10,
		Proxy:        ProxyOptions{UseApifyProxy: true},
	}

	run, err := client.StartRun(context.Background(), "actor1", input)
	require.NoError(t, err)
	assert.Equal(t, "run1", run.ID)
	assert.Equal(t, "ds1", run.DefaultDatasetID)
	assert.Equal(t, input.DirectURLs, gotInput.DirectURLs)
	assert.True(t, gotInput.Proxy.UseApifyProxy)
}

func TestStartRunRejectedToken(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.StartRun(context.Background(), "actor1", &ActorInput{})
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeCredentialMissing, typed.Type)
	assert.Equal(t, http.StatusUnauthorized, typed.Code)
}

func TestWaitForRunPollsToSuccess(t *testing.T) {
	var polls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/acts/actor1/runs/run1", r.URL.Path)

		status := RunStatusRunning
		if polls.Add(1) >= 3 {
			status = RunStatusSucceeded
		}
		json.NewEncoder(w).Encode(runEnvelope{Data: RunData{
			ID:               "run1",
			Status:           status,
			DefaultDatasetID: "ds1",
		}})
	}))

	run, err := client.WaitForRun(context.Background(), "actor1", "run1", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, RunStatusSucceeded, run.Status)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestWaitForRunFailedState(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(runEnvelope{Data: RunData{ID: "run1", Status: RunStatusFailed}})
	}))

	_, err := client.WaitForRun(context.Background(), "actor1", "run1", time.Millisecond)
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeProviderJobFailed, typed.Type)
	assert.Contains(t, typed.Message, RunStatusFailed)
}

func TestWaitForRunContextCancel(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(runEnvelope{Data: RunData{ID: "run1", Status: RunStatusRunning}})
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.WaitForRun(ctx, "actor1", "run1", time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDatasetItems(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/datasets/ds1/items", r.URL.Path)
		json.NewEncoder(w).Encode([]PostRecord{
			{ShortCode: "ABC123", Caption: "east side apartment", OwnerUsername: "toronto_life"},
			{ShortCode: "DEF456", Caption: "hiring baristas"},
		})
	}))

	records, err := client.DatasetItems(context.Background(), "ds1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ABC123", records[0].ShortCode)
	assert.Equal(t, "toronto_life", records[0].OwnerUsername)
}

func TestDatasetItemsServerError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.DatasetItems(context.Background(), "ds1")
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeServerError, typed.Type)
	assert.True(t, errs.IsRetryable(typed.Type))
}

func TestDatasetItemsMalformedBody(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))

	_, err := client.DatasetItems(context.Background(), "ds1")
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeParsing, typed.Type)
}
