// Package apply implements the application intake workflow: validate the
// submission, store the resume, persist the application, and send the
// operator and applicant notifications.
//
// Validation runs before any side effect. A rejected submission stores
// no file, writes no row, and sends no mail.
package apply

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/shojibur/octagon-jobs/internal/db"
)

// MaxResumeSize is the upload size limit: 5MB.
const MaxResumeSize = 5 << 20

// allowedExtensions are the accepted resume file types.
var allowedExtensions = []string{".pdf", ".doc", ".docx"}

// allowedContentTypes are the declared MIME types matching the allowed
// extensions. Browsers sometimes send application/octet-stream for
// .doc/.docx, so that passes too; the extension check still applies.
var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/octet-stream": true,
}

// Request carries the applicant-supplied fields.
type Request struct {
	JobID       int64  `json:"job_id" validate:"required"`
	FirstName   string `json:"first_name" validate:"required,min=1"`
	LastName    string `json:"last_name" validate:"required,min=1"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	CoverLetter string `json:"cover_letter"`
	LinkedIn    string `json:"linkedin"`
}

// Resume is the uploaded file. ContentType is the declared MIME type
// from the upload, which may be empty.
type Resume struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Result reports a successful submission.
type Result struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Message       string    `json:"message"`
}

// ValidationError is a user-correctable rejection with a specific,
// human-readable message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MailError reports a failed notification send after the application
// itself was stored. Distinct from validation failures so callers can
// tell the applicant their application was recorded.
type MailError struct {
	Recipient string
	Cause     error
}

func (e *MailError) Error() string {
	return fmt.Sprintf("failed to send notification to %s: %v", e.Recipient, e.Cause)
}

func (e *MailError) Unwrap() error {
	return e.Cause
}

// JobLookup resolves the job being applied to.
type JobLookup interface {
	GetJobByGreenhouseID(ctx context.Context, ghID int64) (*db.JobRecord, error)
}

// ApplicationStore persists accepted applications.
type ApplicationStore interface {
	InsertApplication(ctx context.Context, app *db.Application) (uuid.UUID, error)
}

// FileStore stores the uploaded resume and returns its stored path.
type FileStore interface {
	Save(filename string, content io.Reader) (string, error)
}

// Mailer sends one plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service runs the intake workflow.
type Service struct {
	jobs       JobLookup
	apps       ApplicationStore
	files      FileStore
	mailer     Mailer
	adminEmail string
	siteName   string
	validate   *validator.Validate
}

// NewService wires the intake collaborators.
func NewService(jobs JobLookup, apps ApplicationStore, files FileStore, mailer Mailer, adminEmail, siteName string) *Service {
	return &Service{
		jobs:       jobs,
		apps:       apps,
		files:      files,
		mailer:     mailer,
		adminEmail: adminEmail,
		siteName:   siteName,
		validate:   validator.New(),
	}
}

// Submit validates and processes one application. On validation failure
// it returns a *ValidationError before any side effect. After the
// application is stored, a failed notification send surfaces as a
// *MailError; the stored application is not rolled back.
func (s *Service) Submit(ctx context.Context, req Request, resume *Resume) (*Result, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if err := validateResume(resume); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetJobByGreenhouseID(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up job: %w", err)
	}
	if job == nil {
		return nil, &ValidationError{Field: "job_id", Message: "The job you are applying for could not be found."}
	}

	resumePath, err := s.files.Save(resume.Filename, io.LimitReader(resume.Content, MaxResumeSize))
	if err != nil {
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}

	app := &db.Application{
		GreenhouseID: job.GreenhouseID,
		BoardName:    job.BoardName,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		ResumePath:   resumePath,
		CoverLetter:  req.CoverLetter,
		LinkedIn:     req.LinkedIn,
	}
	appID, err := s.apps.InsertApplication(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	if err := s.mailer.Send(ctx, s.adminEmail,
		"New Job Application: "+job.Title,
		operatorSummary(job, app)); err != nil {
		return nil, &MailError{Recipient: s.adminEmail, Cause: err}
	}

	if err := s.mailer.Send(ctx, req.Email,
		"Application Received - "+job.Title,
		applicantAck(job, req, s.siteName)); err != nil {
		return nil, &MailError{Recipient: req.Email, Cause: err}
	}

	return &Result{
		ApplicationID: appID,
		Message:       "Thank you! Your application has been submitted successfully.",
	}, nil
}

func (s *Service) validateRequest(req Request) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		first := errs[0]
		switch first.Field() {
		case "Email":
			if first.Tag() == "email" {
				return &ValidationError{Field: "email", Message: "Please enter a valid email address."}
			}
			return &ValidationError{Field: "email", Message: "Please fill in all required fields."}
		case "JobID":
			return &ValidationError{Field: "job_id", Message: "Missing job reference."}
		default:
			return &ValidationError{Field: strings.ToLower(first.Field()), Message: "Please fill in all required fields."}
		}
	}
	return &ValidationError{Field: "", Message: "Invalid application."}
}

func validateResume(resume *Resume) error {
	if resume == nil || resume.Filename == "" {
		return &ValidationError{Field: "resume", Message: "Please upload your resume."}
	}

	ext := strings.ToLower(filepath.Ext(resume.Filename))
	allowed := false
	for _, a := range allowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return &ValidationError{Field: "resume", Message: "Invalid file type. Please upload PDF, DOC, or DOCX."}
	}

	if resume.ContentType != "" && !allowedContentTypes[resume.ContentType] {
		return &ValidationError{Field: "resume", Message: "Invalid file type. Please upload PDF, DOC, or DOCX."}
	}

	if resume.Size > MaxResumeSize {
		return &ValidationError{Field: "resume", Message: "File size too large. Maximum 5MB."}
	}

	return nil
}

func operatorSummary(job *db.JobRecord, app *db.Application) string {
	var b strings.Builder
	b.WriteString("New application received:\n\n")
	fmt.Fprintf(&b, "Job: %s\n", job.Title)
	fmt.Fprintf(&b, "Name: %s %s\n", app.FirstName, app.LastName)
	fmt.Fprintf(&b, "Email: %s\n", app.Email)
	fmt.Fprintf(&b, "Phone: %s\n", app.Phone)
	fmt.Fprintf(&b, "Resume: %s\n", app.ResumePath)
	fmt.Fprintf(&b, "LinkedIn: %s\n\n", app.LinkedIn)
	fmt.Fprintf(&b, "Cover Letter:\n%s", app.CoverLetter)
	return b.String()
}

func applicantAck(job *db.JobRecord, req Request, siteName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", req.FirstName)
	fmt.Fprintf(&b, "Thank you for your application for the position of %s.\n\n", job.Title)
	b.WriteString("We have received your application and will review it shortly. ")
	b.WriteString("If your qualifications match our needs, we will contact you to discuss the next steps.\n\n")
	fmt.Fprintf(&b, "Best regards,\n%s", siteName)
	return b.String()
}
