package server

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/shojibur/octagon-jobs/internal/apply"
	"github.com/shojibur/octagon-jobs/internal/db"
	"github.com/shojibur/octagon-jobs/internal/listing"
)

// excerptWords is how many words of the job body the listing preview keeps.
const excerptWords = 55

// maxApplyBody bounds the multipart request body: the resume limit plus
// headroom for the text fields.
const maxApplyBody = apply.MaxResumeSize + 1<<20

// JobSummary is one row of a listing response.
type JobSummary struct {
	GreenhouseID   int64  `json:"gh_id"`
	Board          string `json:"board"`
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	Location       string `json:"location"`
	City           string `json:"location_city,omitempty"`
	State          string `json:"location_state,omitempty"`
	Country        string `json:"location_country,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	AbsoluteURL    string `json:"absolute_url,omitempty"`
	Excerpt        string `json:"excerpt"`
}

// ListResponse is the response for GET /jobs.
type ListResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
	Facets     Facets       `json:"facets"`
	Options    Options      `json:"options"`
}

// Facets carries the filter-aware counts for the filter UI.
type Facets struct {
	Departments map[string]int     `json:"departments"`
	Locations   []db.LocationCount `json:"locations"`
}

// Options carries the filter-independent dropdown enumerations.
type Options struct {
	Countries       []string `json:"countries"`
	EmploymentTypes []string `json:"employment_types"`
	Boards          []string `json:"boards"`
}

// JobResponse is the response for GET /jobs/{id}.
type JobResponse struct {
	db.JobRecord
	Slug string `json:"slug"`
}

// SyncStatusResponse reports the last recorded sync time.
type SyncStatusResponse struct {
	LastSync string `json:"last_sync,omitempty"`
}

// handleListJobs returns one filtered page of jobs with facet counts
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := db.JobFilters{
		Search:         q.Get("search"),
		Department:     q.Get("department"),
		Country:        q.Get("country"),
		Location:       q.Get("location"),
		EmploymentType: q.Get("employment_type"),
		Board:          q.Get("board"),
	}
	page := parseQueryInt(q.Get("page"), 1)

	ctx := r.Context()

	jobs, total, err := s.listing.List(ctx, filters, page)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	facets, options, err := s.loadFacets(ctx, filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	summaries := make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, JobSummary{
			GreenhouseID:   job.GreenhouseID,
			Board:          job.BoardName,
			Slug:           s.cfg.Slug(job.BoardName),
			Title:          job.Title,
			Location:       job.LocationRaw,
			City:           job.City,
			State:          job.State,
			Country:        job.Country,
			EmploymentType: job.EmploymentType,
			AbsoluteURL:    job.AbsoluteURL,
			Excerpt:        listing.Excerpt(job.ContentHTML, excerptWords),
		})
	}

	totalPages := total / listing.PerPage
	if total%listing.PerPage != 0 {
		totalPages++
	}

	s.jsonResponse(w, http.StatusOK, ListResponse{
		Jobs:       summaries,
		Total:      total,
		Page:       page,
		PerPage:    listing.PerPage,
		TotalPages: totalPages,
		Facets:     facets,
		Options:    options,
	})
}

func (s *Server) loadFacets(ctx context.Context, filters db.JobFilters) (Facets, Options, error) {
	departments, err := s.listing.Departments(ctx, filters)
	if err != nil {
		return Facets{}, Options{}, err
	}
	locations, err := s.listing.Locations(ctx, filters)
	if err != nil {
		return Facets{}, Options{}, err
	}
	countries, err := s.listing.Countries(ctx)
	if err != nil {
		return Facets{}, Options{}, err
	}
	types, err := s.listing.EmploymentTypes(ctx)
	if err != nil {
		return Facets{}, Options{}, err
	}
	boards, err := s.listing.Boards(ctx)
	if err != nil {
		return Facets{}, Options{}, err
	}

	return Facets{Departments: departments, Locations: locations},
		Options{Countries: countries, EmploymentTypes: types, Boards: boards}, nil
}

// handleGetJob returns one job by Greenhouse id
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	ghID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	job, err := s.listing.Get(r.Context(), ghID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if job == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, JobResponse{
		JobRecord: *job,
		Slug:      s.cfg.Slug(job.BoardName),
	})
}

// handleApply accepts a multipart application submission
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	ghID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxApplyBody)
	if err := r.ParseMultipartForm(maxApplyBody); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}

	req := apply.Request{
		JobID:       ghID,
		FirstName:   r.FormValue("first_name"),
		LastName:    r.FormValue("last_name"),
		Email:       r.FormValue("email"),
		Phone:       r.FormValue("phone"),
		CoverLetter: r.FormValue("cover_letter"),
		LinkedIn:    r.FormValue("linkedin"),
	}

	// A missing file is reported by the intake service so field errors
	// keep their precedence over resume errors.
	var resume *apply.Resume
	if file, header, err := r.FormFile("resume"); err == nil {
		defer func() { _ = file.Close() }()
		resume = &apply.Resume{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     file,
		}
	}

	result, err := s.apply.Submit(r.Context(), req, resume)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, result)
}

// handleListApplications returns the stored applications for one job
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	ghID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	apps, err := s.admin.ListApplicationsByJob(r.Context(), ghID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if apps == nil {
		apps = []db.Application{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"applications": apps})
}

// handleSync triggers a board sync in the background
func (s *Server) handleSync(w http.ResponseWriter, _ *http.Request) {
	log.Println("Manual sync requested")

	go func() {
		if _, err := s.syncer.Run(context.Background()); err != nil {
			log.Printf("Manual sync failed: %v", err)
		}
	}()

	s.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// handleDeleteBoard removes every stored job for one board
func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	board := r.PathValue("name")

	deleted, err := s.admin.DeleteBoardJobs(r.Context(), board)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	// Cached facet counts still include the deleted board's jobs.
	if s.cache != nil {
		if err := s.cache.Clear(r.Context()); err != nil {
			log.Printf("Cache clear after board removal failed: %v", err)
		}
	}

	log.Printf("Removed board %s (%d jobs)", board, deleted)
	s.jsonResponse(w, http.StatusOK, map[string]any{"board": board, "deleted": deleted})
}

// handleSyncStatus reports when the boards last synced
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	lastSync, err := s.admin.GetSetting(r.Context(), db.SettingLastSync)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SyncStatusResponse{LastSync: lastSync})
}

// parseQueryInt parses a positive integer query value with a default.
func parseQueryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
