package apify

// Run statuses reported by the actor API. A run progresses from READY
// through RUNNING into one of the terminal states.
const (
	RunStatusReady     = "READY"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusAborted   = "ABORTED"
	RunStatusTimedOut  = "TIMED-OUT"
)

// IsTerminalStatus reports whether a run status is final.
func IsTerminalStatus(status string) bool {
	switch status {
	case RunStatusSucceeded, RunStatusFailed, RunStatusAborted, RunStatusTimedOut:
		return true
	}
	return false
}

// ProxyOptions configures the provider-side proxy for a scrape run.
type ProxyOptions struct {
	UseApifyProxy bool `json:"useApifyProxy"`
}

// ActorInput is the input document submitted with a scrape run.
type ActorInput struct {
	DirectURLs   []string     `json:"directUrls"`
	ResultsType  string       `json:"resultsType"`
	ResultsLimit int          `json:"resultsLimit"`
	SearchType   string       `json:"searchType,omitempty"`
	Proxy        ProxyOptions `json:"proxy"`
}

// RunData describes one actor run.
type RunData struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// runEnvelope mirrors the API's {"data": {...}} wrapper.
type runEnvelope struct {
	Data RunData `json:"data"`
}

// PostRecord is one raw scraped record from the run's dataset. Field names
// follow the instagram-scraper actor's output schema.
type PostRecord struct {
	ShortCode     string `json:"shortCode"`
	Caption       string `json:"caption"`
	DisplayURL    string `json:"displayUrl"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	Timestamp     string `json:"timestamp"`
	OwnerUsername string `json:"ownerUsername"`
	URL           string `json:"url,omitempty"`
	Type          string `json:"type,omitempty"`
}

// ImageURL returns the best available image reference for the record.
func (r *PostRecord) ImageURL() string {
	if r.DisplayURL != "" {
		return r.DisplayURL
	}
	return r.ThumbnailURL
}
