package greenhouse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBoardJSON = `{
	"jobs": [
		{
			"id": 4011,
			"internal_job_id": 2011,
			"requisition_id": "REQ-77",
			"absolute_url": "https://boards.greenhouse.io/octagon/jobs/4011",
			"title": "Backend Engineer",
			"location": {"name": "Berlin, Germany"},
			"content": "&lt;p&gt;Build things.&lt;/p&gt;",
			"metadata": [
				{"id": 1, "name": "Employment Type", "value": "Full-time"},
				{"id": 2, "name": "Team Size", "value": 12}
			],
			"departments": [{"id": 9, "name": "Engineering"}],
			"offices": [{"id": 3, "name": "Berlin"}]
		}
	],
	"meta": {"total": 1}
}`

func TestFetchJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBoardJSON))
	}))
	defer srv.Close()

	client := NewClient()
	board, err := client.FetchJobs(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, board.Jobs, 1)

	job := board.Jobs[0]
	assert.Equal(t, int64(4011), job.ID)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, "Berlin, Germany", job.Location.Name)
	assert.Equal(t, "REQ-77", job.RequisitionID)
	require.Len(t, job.Metadata, 2)
	assert.Equal(t, "Employment Type", job.Metadata[0].Name)
	assert.Equal(t, "Full-time", job.Metadata[0].ValueString())
	// Non-string metadata values decode to empty rather than erroring.
	assert.Equal(t, "", job.Metadata[1].ValueString())
	require.Len(t, job.Departments, 1)
	assert.Equal(t, "Engineering", job.Departments[0].Name)
}

func TestFetchJobsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.FetchJobs(context.Background(), srv.URL)
	require.Error(t, err)

	var ghErr *Error
	require.True(t, errors.As(err, &ghErr))
	assert.Contains(t, ghErr.Message, "502")
}

func TestFetchJobsInvalidURL(t *testing.T) {
	client := NewClient()
	_, err := client.FetchJobs(context.Background(), "not-a-url")
	require.Error(t, err)

	var ghErr *Error
	require.True(t, errors.As(err, &ghErr))
	assert.Equal(t, "invalid endpoint URL", ghErr.Message)
}

func TestFetchJobsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	client := NewClient()
	_, err := client.FetchJobs(context.Background(), srv.URL)
	require.Error(t, err)

	var ghErr *Error
	require.True(t, errors.As(err, &ghErr))
	assert.Equal(t, "failed to decode response", ghErr.Message)
}

func TestFetchJobsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(WithTimeout(20 * time.Millisecond))
	_, err := client.FetchJobs(context.Background(), srv.URL)
	require.Error(t, err)

	var ghErr *Error
	require.True(t, errors.As(err, &ghErr))
	assert.Equal(t, "HTTP request failed", ghErr.Message)
}

func TestFetchJobsEmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jobs": [], "meta": {"total": 0}}`))
	}))
	defer srv.Close()

	client := NewClient()
	board, err := client.FetchJobs(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, board.Jobs)
}
