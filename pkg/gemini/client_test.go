package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "expatgram/pkg/errors"
	"expatgram/pkg/logger"
)

var testGenConfig = GenerationConfig{
	Temperature:     0.4,
	TopP:            1,
	TopK:            32,
	MaxOutputTokens: 8192,
}

func candidateResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
}

func TestGenerateText(t *testing.T) {
	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-flash-latest:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(candidateResponse(`{"category": "Job"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-flash-latest", testGenConfig, logger.NewCaptureLogger(), WithBaseURL(server.URL))

	text, err := client.Generate(context.Background(), "classify this", nil, "")
	require.NoError(t, err)
	assert.Equal(t, `{"category": "Job"}`, text)

	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 1)
	assert.Equal(t, "classify this", gotReq.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.4, gotReq.GenerationConfig.Temperature)
	assert.Equal(t, 8192, gotReq.GenerationConfig.MaxOutputTokens)
}

func TestGenerateWithImage(t *testing.T) {
	imageBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(candidateResponse("ok"))
	}))
	defer server.Close()

	client := NewClient("test-key", "gemini-flash-latest", testGenConfig, logger.NewCaptureLogger(), WithBaseURL(server.URL))

	_, err := client.Generate(context.Background(), "describe", imageBytes, "image/jpeg")
	require.NoError(t, err)

	require.Len(t, gotReq.Contents[0].Parts, 2)
	inline := gotReq.Contents[0].Parts[1].InlineData
	require.NotNil(t, inline)
	assert.Equal(t, "image/jpeg", inline.MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(imageBytes), inline.Data)
}

func TestGenerateJoinsMultipleParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "first "}, {"text": "second"}},
				}},
			},
		})
	}))
	defer server.Close()

	client := NewClient("k", "m", testGenConfig, logger.NewCaptureLogger(), WithBaseURL(server.URL))

	text, err := client.Generate(context.Background(), "p", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "first second", text)
}

func TestGenerateNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := NewClient("k", "m", testGenConfig, logger.NewCaptureLogger(), WithBaseURL(server.URL))

	_, err := client.Generate(context.Background(), "p", nil, "")
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeMalformedOutput, typed.Type)
}

func TestGenerateSurfacesAPIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	client := NewClient("k", "m", testGenConfig, logger.NewCaptureLogger(), WithBaseURL(server.URL))

	_, err := client.Generate(context.Background(), "p", nil, "")
	require.Error(t, err)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeRateLimit, typed.Type)
	assert.Equal(t, "quota exceeded", typed.Message)
}
