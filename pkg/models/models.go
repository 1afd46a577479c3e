package models

// Category is the classification assigned to a post by the language model.
type Category string

const (
	CategoryJob    Category = "Job"
	CategoryHouse  Category = "House"
	CategoryEvent  Category = "Event"
	CategoryIgnore Category = "Ignore"
	CategoryError  Category = "Error"
)

// categoryPriority orders persistence: Job > House > Event > Ignore > Error.
var categoryPriority = map[Category]int{
	CategoryJob:    0,
	CategoryHouse:  1,
	CategoryEvent:  2,
	CategoryIgnore: 3,
	CategoryError:  4,
}

// Priority returns the persistence rank of the category. Unknown categories
// rank with Ignore so they never displace real content.
func (c Category) Priority() int {
	if p, ok := categoryPriority[c]; ok {
		return p
	}
	return categoryPriority[CategoryIgnore]
}

// ParseCategory validates a raw model-emitted category string.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categoryPriority[c]
	return c, ok
}

// CandidatePost is one scraped unit, normalized from a raw provider record.
// Immutable once created; consumed exactly once by the classifier.
type CandidatePost struct {
	// Shortcode is the provider's stable per-post identifier and the sole
	// de-duplication key. Records without one never become a CandidatePost.
	Shortcode string `json:"shortcode"`
	Text      string `json:"text"`
	ImageURL  string `json:"imageUrl,omitempty"`
	PostURL   string `json:"postUrl"`
	// PostedAt is the raw provider timestamp (ISO 8601). Kept as a string so
	// unparseable values survive the pipeline instead of being dropped.
	PostedAt string `json:"timestamp,omitempty"`
	Author   string `json:"username"`
}

// Extracted-field keys shared between the classifier output contract and the
// persistence payload.
const (
	FieldShortcode     = "instagram_shortcode"
	FieldOriginalURL   = "original_url"
	FieldPostedAt      = "posted_at"
	FieldAuthor        = "author"
	FieldRewrittenText = "rewritten_text"
)

// ClassificationResult is the model's answer for one CandidatePost.
type ClassificationResult struct {
	Category Category `json:"category"`
	// Data holds the category-specific extracted fields plus the rewritten
	// text and the identity fields injected by the orchestrator.
	Data map[string]interface{} `json:"data,omitempty"`
	// ErrorDetail is set only when Category is CategoryError.
	ErrorDetail string `json:"error,omitempty"`
}

// Field returns a string-valued extracted field, or "" when absent.
func (r *ClassificationResult) Field(key string) string {
	if r.Data == nil {
		return ""
	}
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

// SetField sets an extracted field, allocating the map on first use.
func (r *ClassificationResult) SetField(key string, value interface{}) {
	if r.Data == nil {
		r.Data = make(map[string]interface{})
	}
	r.Data[key] = value
}

// StoredPost is the durable record written to the posts table.
type StoredPost struct {
	Shortcode   string                 `json:"instagram_shortcode"`
	Status      string                 `json:"status"`
	Category    Category               `json:"category"`
	OriginalURL string                 `json:"original_url"`
	PostedAt    string                 `json:"posted_at"`
	Author      string                 `json:"author"`
	Content     string                 `json:"content"`
	Details     map[string]interface{} `json:"details"`
}

// StatusPending is the workflow state assigned on first insert. Later states
// are owned by downstream publishing tooling, never by this pipeline.
const StatusPending = "pending"

// Summary reports one pipeline run.
type Summary struct {
	Fetched        int              `json:"fetched"`
	Analyzed       int              `json:"analyzed"`
	Saved          int              `json:"saved"`
	CategoryCounts map[Category]int `json:"category_counts"`
}

// Count increments the per-category tally.
func (s *Summary) Count(c Category) {
	if s.CategoryCounts == nil {
		s.CategoryCounts = make(map[Category]int)
	}
	s.CategoryCounts[c]++
}
