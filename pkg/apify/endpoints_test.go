package apify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointBuilders(t *testing.T) {
	assert.Equal(t,
		"https://api.apify.com/v2/acts/shu8hvrXbJbY3Eb9W/runs",
		ActorRunsURL(BaseURL, "shu8hvrXbJbY3Eb9W"))

	assert.Equal(t,
		"https://api.apify.com/v2/acts/shu8hvrXbJbY3Eb9W/runs/run123",
		RunURL(BaseURL, "shu8hvrXbJbY3Eb9W", "run123"))

	assert.Equal(t,
		"https://api.apify.com/v2/datasets/ds456/items",
		DatasetItemsURL(BaseURL, "ds456"))
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range []string{RunStatusSucceeded, RunStatusFailed, RunStatusAborted, RunStatusTimedOut} {
		assert.True(t, IsTerminalStatus(status), status)
	}
	for _, status := range []string{RunStatusReady, RunStatusRunning, ""} {
		assert.False(t, IsTerminalStatus(status), status)
	}
}

func TestPostRecordImageURL(t *testing.T) {
	rec := PostRecord{DisplayURL: "https://cdn.example/display.jpg", ThumbnailURL: "https://cdn.example/thumb.jpg"}
	assert.Equal(t, "https://cdn.example/display.jpg", rec.ImageURL())

	rec.DisplayURL = ""
	assert.Equal(t, "https://cdn.example/thumb.jpg", rec.ImageURL())
}
