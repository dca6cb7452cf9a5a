package db

import (
	"time"

	"github.com/google/uuid"
)

// Department is one department a job belongs to. Jobs may belong to
// several; order is preserved from the upstream feed.
type Department struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Office is a physical office attached to a job.
type Office struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// MetadataEntry is one custom name/value field attached to a job.
type MetadataEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// JobRecord is a persisted job listing. LocationRaw keeps the original
// free-text location string; the City/State/Country fields are derived
// by the location normalizer at sync time and may be empty.
type JobRecord struct {
	ID             int64           `json:"-"`
	BoardName      string          `json:"board_name"`
	GreenhouseID   int64           `json:"gh_id"`
	InternalJobID  int64           `json:"internal_job_id,omitempty"`
	RequisitionID  string          `json:"requisition_id,omitempty"`
	AbsoluteURL    string          `json:"absolute_url,omitempty"`
	Title          string          `json:"title"`
	LocationRaw    string          `json:"location"`
	City           string          `json:"location_city"`
	State          string          `json:"location_state"`
	Country        string          `json:"location_country"`
	EmploymentType string          `json:"employment_type"`
	ContentHTML    string          `json:"content"`
	Metadata       []MetadataEntry `json:"metadata,omitempty"`
	Departments    []Department    `json:"departments,omitempty"`
	Offices        []Office        `json:"offices,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Application is a persisted job application.
type Application struct {
	ID           uuid.UUID `json:"id"`
	GreenhouseID int64     `json:"gh_id"`
	BoardName    string    `json:"board_name"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	ResumePath   string    `json:"resume_path"`
	CoverLetter  string    `json:"cover_letter,omitempty"`
	LinkedIn     string    `json:"linkedin,omitempty"`
	AppliedAt    time.Time `json:"applied_at"`
}

// LocationCount is a facet row: a raw location display string and how
// many currently-matching jobs carry it.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}
