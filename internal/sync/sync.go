// Package sync implements the board refresh: fetch each configured
// board, normalize every job's location, and replace that board's
// records in the store. Boards are independent; one board failing never
// touches another board's data.
package sync

import (
	"context"
	"fmt"
	"html"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shojibur/octagon-jobs/internal/db"
	"github.com/shojibur/octagon-jobs/internal/greenhouse"
	"github.com/shojibur/octagon-jobs/internal/location"
)

// employmentTypeKey is the metadata name carrying the employment type.
// The match is case-sensitive and first-match-wins, like the feed
// conventions it mirrors.
const employmentTypeKey = "Employment Type"

// defaultConcurrency bounds how many boards sync in parallel.
const defaultConcurrency = 4

// Fetcher retrieves the job list for one board endpoint.
type Fetcher interface {
	FetchJobs(ctx context.Context, endpoint string) (*greenhouse.BoardResponse, error)
}

// Store is the subset of the job record store the engine writes to.
type Store interface {
	ReplaceBoardJobs(ctx context.Context, board string, jobs []db.JobRecord) error
	SetSetting(ctx context.Context, key, value string) error
}

// FacetCache invalidates cached facet results after a sync.
type FacetCache interface {
	Clear(ctx context.Context) error
}

// Engine orchestrates fetch, normalize, and replace across boards.
type Engine struct {
	boards      map[string]string
	fetcher     Fetcher
	store       Store
	cache       FacetCache
	concurrency int
}

// New creates an Engine for the given board map (name -> endpoint).
func New(boards map[string]string, fetcher Fetcher, store Store, cache FacetCache) *Engine {
	return &Engine{
		boards:      boards,
		fetcher:     fetcher,
		store:       store,
		cache:       cache,
		concurrency: defaultConcurrency,
	}
}

// Run syncs every configured board and returns how many completed. Per
// board, a fetch failure is logged and skipped; an empty payload is
// skipped without deleting existing records, protecting known-good data
// from a transient empty response. The facet cache is cleared and the
// sync timestamp recorded even when every board fails; the error return
// is non-nil only when no board succeeded.
func (e *Engine) Run(ctx context.Context) (int, error) {
	if len(e.boards) == 0 {
		return 0, fmt.Errorf("no boards configured")
	}

	var synced atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for name, endpoint := range e.boards {
		g.Go(func() error {
			board, err := e.fetcher.FetchJobs(gctx, endpoint)
			if err != nil {
				log.Printf("[sync] fetch failed for board %s: %v", name, err)
				return nil // non-fatal to other boards
			}

			if len(board.Jobs) == 0 {
				log.Printf("[sync] no jobs for board %s, keeping existing records", name)
				return nil
			}

			records := make([]db.JobRecord, 0, len(board.Jobs))
			for _, job := range board.Jobs {
				records = append(records, buildRecord(name, job))
			}

			if err := e.store.ReplaceBoardJobs(gctx, name, records); err != nil {
				log.Printf("[sync] replace failed for board %s: %v", name, err)
				return nil
			}

			log.Printf("[sync] board %s: %d jobs", name, len(records))
			synced.Add(1)
			return nil
		})
	}

	_ = g.Wait() // workers swallow their own errors

	if e.cache != nil {
		if err := e.cache.Clear(ctx); err != nil {
			log.Printf("[sync] cache clear failed: %v", err)
		}
	}
	if err := e.store.SetSetting(ctx, db.SettingLastSync, time.Now().UTC().Format(time.RFC3339)); err != nil {
		log.Printf("[sync] failed to record sync time: %v", err)
	}

	count := int(synced.Load())
	if count == 0 {
		return 0, fmt.Errorf("sync failed for all %d boards", len(e.boards))
	}
	return count, nil
}

// buildRecord converts one feed job into a store record: location
// normalized, employment type extracted from metadata, HTML entities in
// the body decoded.
func buildRecord(board string, job greenhouse.Job) db.JobRecord {
	loc := location.Normalize(job.Location.Name)

	record := db.JobRecord{
		BoardName:      board,
		GreenhouseID:   job.ID,
		InternalJobID:  job.InternalJobID,
		RequisitionID:  job.RequisitionID,
		AbsoluteURL:    job.AbsoluteURL,
		Title:          job.Title,
		LocationRaw:    job.Location.Name,
		City:           loc.City,
		State:          loc.State,
		Country:        loc.Country,
		EmploymentType: employmentType(job.Metadata),
		ContentHTML:    html.UnescapeString(job.Content),
	}

	for _, m := range job.Metadata {
		record.Metadata = append(record.Metadata, db.MetadataEntry{
			Name:  m.Name,
			Value: m.ValueString(),
		})
	}
	for _, d := range job.Departments {
		record.Departments = append(record.Departments, db.Department{ID: d.ID, Name: d.Name})
	}
	for _, o := range job.Offices {
		record.Offices = append(record.Offices, db.Office{ID: o.ID, Name: o.Name})
	}

	return record
}

// employmentType scans metadata in feed order for the first non-empty
// "Employment Type" entry. Exact, case-sensitive name match.
func employmentType(metadata []greenhouse.MetadataEntry) string {
	for _, m := range metadata {
		if m.Name == employmentTypeKey {
			if v := m.ValueString(); v != "" {
				return v
			}
		}
	}
	return ""
}
