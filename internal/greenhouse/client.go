// Package greenhouse provides the HTTP client for the Greenhouse job
// board API. Each configured board exposes a JSON endpoint returning the
// full set of open jobs for that board.
package greenhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single board fetch. A stalled endpoint is
// treated as a fetch failure for that board only.
const DefaultTimeout = 30 * time.Second

// Error represents a failure fetching a board endpoint.
type Error struct {
	Endpoint string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("greenhouse fetch error for %s: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("greenhouse fetch error for %s: %s", e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// MetadataEntry is one custom field attached to a job posting.
type MetadataEntry struct {
	ID    int64           `json:"id,omitempty"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ValueString returns the metadata value as a plain string when it is
// one, and "" otherwise.
func (m MetadataEntry) ValueString() string {
	var s string
	if err := json.Unmarshal(m.Value, &s); err != nil {
		return ""
	}
	return s
}

// Department is a department a job belongs to. A job may belong to
// several; order is preserved from the API.
type Department struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Office is a physical office associated with a job.
type Office struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Job mirrors a single job in the board API response. Content arrives
// HTML-entity-encoded; decoding happens at sync time, not here.
type Job struct {
	ID            int64  `json:"id"`
	InternalJobID int64  `json:"internal_job_id"`
	RequisitionID string `json:"requisition_id"`
	AbsoluteURL   string `json:"absolute_url"`
	Title         string `json:"title"`
	Location      struct {
		Name string `json:"name"`
	} `json:"location"`
	Content     string          `json:"content"`
	Metadata    []MetadataEntry `json:"metadata"`
	Departments []Department    `json:"departments"`
	Offices     []Office        `json:"offices"`
	UpdatedAt   string          `json:"updated_at"`
}

// BoardResponse is the top-level board API payload.
type BoardResponse struct {
	Jobs []Job `json:"jobs"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// Client fetches job listings from board endpoints with a shared HTTP
// client and bounded timeout.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient substitutes the underlying HTTP client, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient constructs a Client with the default timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  "octagon-jobs/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchJobs retrieves the job list from a board endpoint.
func (c *Client) FetchJobs(ctx context.Context, endpoint string) (*BoardResponse, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{Endpoint: endpoint, Message: "invalid endpoint URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Endpoint: endpoint, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	var board BoardResponse
	if err := json.Unmarshal(body, &board); err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to decode response", Cause: err}
	}

	return &board, nil
}
