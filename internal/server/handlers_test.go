package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shojibur/octagon-jobs/internal/apply"
	"github.com/shojibur/octagon-jobs/internal/config"
	"github.com/shojibur/octagon-jobs/internal/db"
)

type fakeListing struct {
	jobs    []db.JobRecord
	total   int
	filters db.JobFilters
	page    int
	job     *db.JobRecord
	err     error
}

func (f *fakeListing) List(_ context.Context, filters db.JobFilters, page int) ([]db.JobRecord, int, error) {
	f.filters = filters
	f.page = page
	return f.jobs, f.total, f.err
}

func (f *fakeListing) Get(_ context.Context, _ int64) (*db.JobRecord, error) {
	return f.job, f.err
}

func (f *fakeListing) Departments(_ context.Context, _ db.JobFilters) (map[string]int, error) {
	return map[string]int{"Engineering": 2}, nil
}

func (f *fakeListing) Locations(_ context.Context, _ db.JobFilters) ([]db.LocationCount, error) {
	return []db.LocationCount{{Location: "Berlin", Count: 2}}, nil
}

func (f *fakeListing) Countries(_ context.Context) ([]string, error) {
	return []string{"Germany"}, nil
}

func (f *fakeListing) EmploymentTypes(_ context.Context) ([]string, error) {
	return []string{"Full-time"}, nil
}

func (f *fakeListing) Boards(_ context.Context) ([]string, error) {
	return []string{"octagon"}, nil
}

type fakeApply struct {
	req    apply.Request
	resume *apply.Resume
	result *apply.Result
	err    error
	calls  int
}

func (f *fakeApply) Submit(_ context.Context, req apply.Request, resume *apply.Resume) (*apply.Result, error) {
	f.calls++
	f.req = req
	f.resume = resume
	return f.result, f.err
}

type fakeSyncer struct {
	ran chan struct{}
}

func (f *fakeSyncer) Run(_ context.Context) (int, error) {
	if f.ran != nil {
		f.ran <- struct{}{}
	}
	return 1, nil
}

type fakeAdmin struct {
	values       map[string]string
	apps         []db.Application
	deletedBoard string
}

func (f *fakeAdmin) GetSetting(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeAdmin) ListApplicationsByJob(_ context.Context, _ int64) ([]db.Application, error) {
	return f.apps, nil
}

func (f *fakeAdmin) DeleteBoardJobs(_ context.Context, board string) (int64, error) {
	f.deletedBoard = board
	return 3, nil
}

type fakeCache struct {
	cleared int
}

func (f *fakeCache) Clear(_ context.Context) error {
	f.cleared++
	return nil
}

func newTestServer(listing *fakeListing, applySvc *fakeApply, syncer *fakeSyncer, admin *fakeAdmin) *Server {
	appCfg := &config.Config{
		Boards:     map[string]string{"octagon": "https://boards.example/octagon"},
		BoardSlugs: map[string]string{"octagon": "careers"},
	}
	appCfg.ApplyDefaults()
	return New(Config{Port: 0, App: appCfg}, listing, applySvc, syncer, admin, &fakeCache{})
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleListJobs(t *testing.T) {
	listingSvc := &fakeListing{
		jobs: []db.JobRecord{
			{
				GreenhouseID:   101,
				BoardName:      "octagon",
				Title:          "Backend Engineer",
				LocationRaw:    "Berlin, Germany",
				City:           "Berlin",
				Country:        "Germany",
				EmploymentType: "Full-time",
				ContentHTML:    "<p>Build and run services.</p>",
			},
		},
		total: 41,
	}
	s := newTestServer(listingSvc, &fakeApply{}, &fakeSyncer{}, &fakeAdmin{})

	req := httptest.NewRequest("GET",
		"/jobs?search=engineer&country=Germany&page=2", nil)
	rec := doRequest(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	if listingSvc.filters.Search != "engineer" || listingSvc.filters.Country != "Germany" {
		t.Errorf("filters not passed through: %+v", listingSvc.filters)
	}
	if listingSvc.page != 2 {
		t.Errorf("page = %d, want 2", listingSvc.page)
	}

	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Total != 41 || resp.TotalPages != 3 || resp.PerPage != 20 {
		t.Errorf("pagination = total %d pages %d per %d", resp.Total, resp.TotalPages, resp.PerPage)
	}
	if len(resp.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(resp.Jobs))
	}
	job := resp.Jobs[0]
	if job.Slug != "careers" {
		t.Errorf("Slug = %q, want careers", job.Slug)
	}
	if job.Excerpt != "Build and run services." {
		t.Errorf("Excerpt = %q", job.Excerpt)
	}
	if resp.Facets.Departments["Engineering"] != 2 {
		t.Errorf("facets missing: %+v", resp.Facets)
	}
	if len(resp.Options.Countries) != 1 || resp.Options.Countries[0] != "Germany" {
		t.Errorf("options missing: %+v", resp.Options)
	}
}

func TestHandleListJobsDefaultsPage(t *testing.T) {
	listingSvc := &fakeListing{}
	s := newTestServer(listingSvc, &fakeApply{}, &fakeSyncer{}, &fakeAdmin{})

	for _, query := range []string{"", "?page=0", "?page=-3", "?page=abc"} {
		rec := doRequest(s, httptest.NewRequest("GET", "/jobs"+query, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d for query %q", rec.Code, query)
		}
		if listingSvc.page != 1 {
			t.Errorf("page = %d for query %q, want 1", listingSvc.page, query)
		}
	}
}

func TestHandleGetJob(t *testing.T) {
	listingSvc := &fakeListing{
		job: &db.JobRecord{
			GreenhouseID: 101,
			BoardName:    "octagon",
			Title:        "Backend Engineer",
			ContentHTML:  "<p>Full posting body.</p>",
		},
	}
	s := newTestServer(listingSvc, &fakeApply{}, &fakeSyncer{}, &fakeAdmin{})

	rec := doRequest(s, httptest.NewRequest("GET", "/jobs/101", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp JobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Title != "Backend Engineer" || resp.Slug != "careers" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.ContentHTML == "" {
		t.Error("detail response should include the full body")
	}
}

func TestHandleGetJobNotFound(t *testing.T) {
	s := newTestServer(&fakeListing{}, &fakeApply{}, &fakeSyncer{}, &fakeAdmin{})

	rec := doRequest(s, httptest.NewRequest("GET", "/jobs/999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleGetJobBadID(t *testing.T) {
	s := newTestServer(&fakeListing{}, &fakeApply{}, &fakeSyncer{}, &fakeAdmin{})

	rec := doRequest(s, httptest.NewRequest("GET", "/jobs/not-a-number", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func multipartApplication(t *testing.T, fields map[string]string, resumeName, resumeBody string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("WriteField(%s): %v", name, err)
		}
	}
	if resumeName != "" {
		fw, err := mw.CreateFormFile("resume", resumeName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write([]byte(resumeBody)); err != nil {
			t.Fatalf("writing resume part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleApply(t *testing.T) {
	applySvc := &fakeApply{
		result: &apply.Result{ApplicationID: uuid.New(), Message: "ok"},
	}
	s := newTestServer(&fakeListing{}, applySvc, &fakeSyncer{}, &fakeAdmin{})

	body, contentType := multipartApplication(t, map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	}, "resume.pdf", "pdf bytes")

	req := httptest.NewRequest("POST", "/jobs/101/apply", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(s, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if applySvc.req.JobID != 101 || applySvc.req.FirstName != "Ada" {
		t.Errorf("request not passed through: %+v", applySvc.req)
	}
	if applySvc.resume == nil || applySvc.resume.Filename != "resume.pdf" {
		t.Errorf("resume not passed through: %+v", applySvc.resume)
	}
}

func TestHandleApplyMissingResume(t *testing.T) {
	applySvc := &fakeApply{
		err: &apply.ValidationError{Field: "resume", Message: "Please upload your resume."},
	}
	s := newTestServer(&fakeListing{}, applySvc, &fakeSyncer{}, &fakeAdmin{})

	body, contentType := multipartApplication(t, map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	}, "", "")

	req := httptest.NewRequest("POST", "/jobs/101/apply", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if applySvc.resume != nil {
		t.Error("missing file should reach the service as a nil resume")
	}
}

func TestHandleApplyStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &apply.ValidationError{Field: "email", Message: "bad email"}, http.StatusBadRequest},
		{"mail", &apply.MailError{Recipient: "x@example.com", Cause: fmt.Errorf("refused")}, http.StatusBadGateway},
		{"internal", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applySvc := &fakeApply{err: tt.err}
			s := newTestServer(&fakeListing{}, applySvc, &fakeSyncer{}, &fakeAdmin{})

			body, contentType := multipartApplication(t, map[string]string{
				"first_name": "Ada",
			}, "resume.pdf", "x")

			req := httptest.NewRequest("POST", "/jobs/101/apply", body)
			req.Header.Set("Content-Type", contentType)
			rec := doRequest(s, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleApplyBadJobID(t *testing.T) {
	applySvc := &fakeApply{}
	s := newTestServer(&fakeListing{}, applySvc, &fakeSyncer{}, &fakeAdmin{})

	req := httptest.NewRequest("POST", "/jobs/abc/apply", strings.NewReader(""))
	rec := doRequest(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if applySvc.calls != 0 {
		t.Error("service should not be called for a malformed job id")
	}
}

func TestHandleListApplications(t *testing.T) {
	appCfg := &config.Config{Boards: map[string]string{"octagon": "https://boards.example/octagon"}}
	appCfg.ApplyDefaults()
	admin := &fakeAdmin{apps: []db.Application{
		{GreenhouseID: 101, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
	}}
	s := New(Config{Port: 0, App: appCfg}, &fakeListing{}, &fakeApply{}, &fakeSyncer{}, admin, &fakeCache{})

	rec := doRequest(s, httptest.NewRequest("GET", "/jobs/101/applications", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Applications []db.Application `json:"applications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(resp.Applications) != 1 || resp.Applications[0].Email != "ada@example.com" {
		t.Errorf("unexpected applications: %+v", resp.Applications)
	}
}

func TestHandleDeleteBoard(t *testing.T) {
	appCfg := &config.Config{Boards: map[string]string{"octagon": "https://boards.example/octagon"}}
	appCfg.ApplyDefaults()
	admin := &fakeAdmin{}
	cache := &fakeCache{}
	s := New(Config{Port: 0, App: appCfg}, &fakeListing{}, &fakeApply{}, &fakeSyncer{}, admin, cache)

	rec := doRequest(s, httptest.NewRequest("DELETE", "/boards/octagon", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if admin.deletedBoard != "octagon" {
		t.Errorf("deleted board = %q, want octagon", admin.deletedBoard)
	}
	if !strings.Contains(rec.Body.String(), `"deleted":3`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	// Facet counts are cached; stale entries would keep reporting the
	// removed board's jobs until they expire.
	if cache.cleared != 1 {
		t.Errorf("cache cleared %d times, want 1", cache.cleared)
	}
}

func TestHandleDeleteBoardWithoutCache(t *testing.T) {
	appCfg := &config.Config{Boards: map[string]string{"octagon": "https://boards.example/octagon"}}
	appCfg.ApplyDefaults()
	s := New(Config{Port: 0, App: appCfg}, &fakeListing{}, &fakeApply{}, &fakeSyncer{}, &fakeAdmin{}, nil)

	rec := doRequest(s, httptest.NewRequest("DELETE", "/boards/octagon", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSync(t *testing.T) {
	syncer := &fakeSyncer{ran: make(chan struct{}, 1)}
	s := newTestServer(&fakeListing{}, &fakeApply{}, syncer, &fakeAdmin{})

	rec := doRequest(s, httptest.NewRequest("POST", "/sync", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case <-syncer.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("sync did not run in the background")
	}
}

func TestHandleSyncStatus(t *testing.T) {
	settings := &fakeAdmin{values: map[string]string{
		db.SettingLastSync: "2026-08-30T04:00:00Z",
	}}
	s := newTestServer(&fakeListing{}, &fakeApply{}, &fakeSyncer{}, settings)

	rec := doRequest(s, httptest.NewRequest("GET", "/sync/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp SyncStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.LastSync != "2026-08-30T04:00:00Z" {
		t.Errorf("LastSync = %q", resp.LastSync)
	}
}

func TestCORSAllowsRoutedMethods(t *testing.T) {
	s := newTestServer(&fakeListing{}, &fakeApply{}, &fakeSyncer{}, &fakeAdmin{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/boards/octagon", nil)
	s.withCORS(s.routes()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	allowed := rec.Header().Get("Access-Control-Allow-Methods")
	for _, method := range []string{"GET", "POST", "DELETE"} {
		if !strings.Contains(allowed, method) {
			t.Errorf("Allow-Methods %q missing %s", allowed, method)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&fakeListing{}, &fakeApply{}, &fakeSyncer{}, &fakeAdmin{})

	rec := doRequest(s, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
