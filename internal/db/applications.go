package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertApplication persists a submitted application and returns its id.
func (db *DB) InsertApplication(ctx context.Context, app *Application) (uuid.UUID, error) {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO applications (id, gh_id, board_name, first_name, last_name,
		                           email, phone, resume_path, cover_letter, linkedin, applied_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		app.ID, app.GreenhouseID, app.BoardName, app.FirstName, app.LastName,
		app.Email, app.Phone, app.ResumePath, app.CoverLetter, app.LinkedIn,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert application: %w", err)
	}
	return app.ID, nil
}

// ListApplicationsByJob retrieves applications for one job, newest first.
func (db *DB) ListApplicationsByJob(ctx context.Context, ghID int64) ([]Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, gh_id, board_name, first_name, last_name, email, phone,
		        resume_path, cover_letter, linkedin, applied_at
		 FROM applications WHERE gh_id = $1
		 ORDER BY applied_at DESC`,
		ghID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.GreenhouseID, &a.BoardName, &a.FirstName, &a.LastName,
			&a.Email, &a.Phone, &a.ResumePath, &a.CoverLetter, &a.LinkedIn, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, nil
}
