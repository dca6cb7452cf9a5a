// Package listing serves filtered, paginated job views and the facet
// counts that drive the filter UI.
//
// Facet counts for a dimension are computed with every *other* active
// filter applied but that dimension's own value ignored: the number shown
// next to "Engineering" answers "how many jobs would match if I also
// selected Engineering", not "how many match right now". The listing
// query itself applies all filters at once.
package listing

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shojibur/octagon-jobs/internal/db"
)

// PerPage is the fixed page size for job listings.
const PerPage = 20

// Store is the read side of the job record store.
type Store interface {
	ListJobs(ctx context.Context, filters db.JobFilters, page, perPage int) ([]db.JobRecord, int, error)
	GetJobByGreenhouseID(ctx context.Context, ghID int64) (*db.JobRecord, error)
	DepartmentLists(ctx context.Context, filters db.JobFilters) ([][]db.Department, error)
	LocationCounts(ctx context.Context, filters db.JobFilters) ([]db.LocationCount, error)
	Countries(ctx context.Context) ([]string, error)
	EmploymentTypes(ctx context.Context) ([]string, error)
	Boards(ctx context.Context) ([]string, error)
}

// Cache stores derived facet results between syncs. May be nil-backed;
// misses and errors degrade to a direct query.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
}

// Service answers listing and facet queries.
type Service struct {
	store Store
	cache Cache
}

// NewService creates a Service. cache may be nil.
func NewService(store Store, cache Cache) *Service {
	return &Service{store: store, cache: cache}
}

// List returns one page of jobs matching the filter set and the total
// match count. page is 1-indexed; out-of-range pages return an empty
// slice, not an error.
func (s *Service) List(ctx context.Context, filters db.JobFilters, page int) ([]db.JobRecord, int, error) {
	return s.store.ListJobs(ctx, filters, page, PerPage)
}

// Get returns a single job by Greenhouse id, or nil when unknown.
func (s *Service) Get(ctx context.Context, ghID int64) (*db.JobRecord, error) {
	return s.store.GetJobByGreenhouseID(ctx, ghID)
}

// Departments counts jobs per department name under the filter set,
// ignoring any active department filter. A job in several departments
// contributes to each of their counts.
func (s *Service) Departments(ctx context.Context, filters db.JobFilters) (map[string]int, error) {
	filters = filters.WithoutDepartment()

	key := "facet:departments:" + filterKey(filters)
	counts := make(map[string]int)
	if hit := s.cacheGet(ctx, key, &counts); hit {
		return counts, nil
	}

	lists, err := s.store.DepartmentLists(ctx, filters)
	if err != nil {
		return nil, err
	}

	counts = make(map[string]int)
	for _, departments := range lists {
		for _, dept := range departments {
			counts[dept.Name]++
		}
	}

	s.cacheSet(ctx, key, counts)
	return counts, nil
}

// Locations counts jobs per raw location display string under the
// filter set, ignoring any active location filter, sorted ascending.
func (s *Service) Locations(ctx context.Context, filters db.JobFilters) ([]db.LocationCount, error) {
	filters = filters.WithoutLocation()

	key := "facet:locations:" + filterKey(filters)
	var counts []db.LocationCount
	if hit := s.cacheGet(ctx, key, &counts); hit {
		return counts, nil
	}

	counts, err := s.store.LocationCounts(ctx, filters)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, counts)
	return counts, nil
}

// Countries enumerates the distinct countries for dropdown population.
// Unlike the department and location facets, the enumeration lists are
// independent of the active filter set.
func (s *Service) Countries(ctx context.Context) ([]string, error) {
	return s.store.Countries(ctx)
}

// EmploymentTypes enumerates the distinct employment types.
func (s *Service) EmploymentTypes(ctx context.Context) ([]string, error) {
	return s.store.EmploymentTypes(ctx)
}

// Boards enumerates the boards that currently have records.
func (s *Service) Boards(ctx context.Context) ([]string, error) {
	return s.store.Boards(ctx)
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		log.Printf("[listing] cache get failed: %v", err)
		return false
	}
	return hit
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value); err != nil {
		log.Printf("[listing] cache set failed: %v", err)
	}
}

// filterKey flattens a filter set into a stable cache key segment.
func filterKey(f db.JobFilters) string {
	return strings.Join([]string{
		f.Search, f.Department, f.Country, f.Location, f.EmploymentType, f.Board,
	}, "|")
}

// Excerpt strips HTML from a job body and trims it to maxWords words,
// appending an ellipsis when truncated. Used for listing previews.
func Excerpt(contentHTML string, maxWords int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()

	words := strings.Fields(doc.Text())
	if maxWords <= 0 || len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "…"
}
