package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// jobColumns is the column list used by every job SELECT.
const jobColumns = `id, board_name, gh_id, internal_job_id, requisition_id, absolute_url,
	title, location, location_city, location_state, location_country,
	employment_type, content, metadata, departments, offices, updated_at`

// ReplaceBoardJobs atomically replaces all records for one board: delete
// scoped to the board, then upsert every record, in a single transaction
// so concurrent readers never observe the board half-synced. Records for
// other boards are untouched.
func (db *DB) ReplaceBoardJobs(ctx context.Context, board string, jobs []JobRecord) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM jobs WHERE board_name = $1`, board); err != nil {
		return fmt.Errorf("failed to delete jobs for board %s: %w", board, err)
	}

	for _, job := range jobs {
		metadataJSON, err := json.Marshal(job.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		departmentsJSON, err := json.Marshal(job.Departments)
		if err != nil {
			return fmt.Errorf("failed to marshal departments: %w", err)
		}
		officesJSON, err := json.Marshal(job.Offices)
		if err != nil {
			return fmt.Errorf("failed to marshal offices: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO jobs (board_name, gh_id, internal_job_id, requisition_id, absolute_url,
			                   title, location, location_city, location_state, location_country,
			                   employment_type, content, metadata, departments, offices, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
			 ON CONFLICT (board_name, gh_id) DO UPDATE SET
			     internal_job_id = $3,
			     requisition_id = $4,
			     absolute_url = $5,
			     title = $6,
			     location = $7,
			     location_city = $8,
			     location_state = $9,
			     location_country = $10,
			     employment_type = $11,
			     content = $12,
			     metadata = $13,
			     departments = $14,
			     offices = $15,
			     updated_at = NOW()`,
			board, job.GreenhouseID, nullableID(job.InternalJobID), job.RequisitionID, job.AbsoluteURL,
			job.Title, job.LocationRaw, job.City, job.State, job.Country,
			job.EmploymentType, job.ContentHTML, metadataJSON, departmentsJSON, officesJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert job %d: %w", job.GreenhouseID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit board replace: %w", err)
	}
	return nil
}

// DeleteBoardJobs removes every record belonging to a board. Used when a
// board is removed from the configuration. Returns the number of records
// deleted.
func (db *DB) DeleteBoardJobs(ctx context.Context, board string) (int64, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM jobs WHERE board_name = $1`, board)
	if err != nil {
		return 0, fmt.Errorf("failed to delete jobs for board %s: %w", board, err)
	}
	return result.RowsAffected(), nil
}

// GetJobByGreenhouseID retrieves a single job by its Greenhouse id.
// Returns nil when no record matches.
func (db *DB) GetJobByGreenhouseID(ctx context.Context, ghID int64) (*JobRecord, error) {
	row := db.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM jobs WHERE gh_id = $1`, jobColumns), ghID)

	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs returns one page of jobs matching the filter set, sorted by
// title ascending with insertion order breaking ties, plus the total
// match count for the same predicate. page is 1-indexed and clamped to
// 1; an empty page is returned (not an error) when nothing matches.
func (db *DB) ListJobs(ctx context.Context, filters JobFilters, page, perPage int) ([]JobRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	whereSQL, args := buildJobFilters(filters, 1)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM jobs WHERE %s`, whereSQL)
	if err := db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM jobs WHERE %s ORDER BY title ASC, id ASC LIMIT $%d OFFSET $%d`,
		jobColumns, whereSQL, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read jobs: %w", err)
	}

	return jobs, total, nil
}

// nullableID maps an absent (zero) feed id to NULL so it stays
// distinguishable from a literal zero on read.
func nullableID(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*JobRecord, error) {
	var (
		job             JobRecord
		internalJobID   *int64
		requisitionID   *string
		absoluteURL     *string
		metadataJSON    []byte
		departmentsJSON []byte
		officesJSON     []byte
	)

	err := row.Scan(&job.ID, &job.BoardName, &job.GreenhouseID, &internalJobID, &requisitionID,
		&absoluteURL, &job.Title, &job.LocationRaw, &job.City, &job.State, &job.Country,
		&job.EmploymentType, &job.ContentHTML, &metadataJSON, &departmentsJSON, &officesJSON,
		&job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if internalJobID != nil {
		job.InternalJobID = *internalJobID
	}
	if requisitionID != nil {
		job.RequisitionID = *requisitionID
	}
	if absoluteURL != nil {
		job.AbsoluteURL = *absoluteURL
	}
	if metadataJSON != nil {
		_ = json.Unmarshal(metadataJSON, &job.Metadata)
	}
	if departmentsJSON != nil {
		_ = json.Unmarshal(departmentsJSON, &job.Departments)
	}
	if officesJSON != nil {
		_ = json.Unmarshal(officesJSON, &job.Offices)
	}

	return &job, nil
}
