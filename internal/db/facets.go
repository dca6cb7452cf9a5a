package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// DepartmentLists returns the department list of every job matching the
// filter set. The facet engine counts department names across these
// lists; a job in N departments contributes to N counts.
func (db *DB) DepartmentLists(ctx context.Context, filters JobFilters) ([][]Department, error) {
	whereSQL, args := buildJobFilters(filters, 1)

	rows, err := db.pool.Query(ctx,
		fmt.Sprintf(`SELECT departments FROM jobs WHERE %s`, whereSQL), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query department lists: %w", err)
	}
	defer rows.Close()

	var lists [][]Department
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan departments: %w", err)
		}
		var departments []Department
		if raw != nil {
			// Malformed department data counts as no departments rather
			// than failing the facet.
			_ = json.Unmarshal(raw, &departments)
		}
		lists = append(lists, departments)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read department lists: %w", err)
	}

	return lists, nil
}

// LocationCounts groups matching jobs by their raw location string and
// returns the counts sorted alphabetically. Records with an empty
// location are skipped.
func (db *DB) LocationCounts(ctx context.Context, filters JobFilters) ([]LocationCount, error) {
	whereSQL, args := buildJobFilters(filters, 1)

	rows, err := db.pool.Query(ctx,
		fmt.Sprintf(`SELECT location, COUNT(*) FROM jobs
			 WHERE location != '' AND %s
			 GROUP BY location
			 ORDER BY location ASC`, whereSQL), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query location counts: %w", err)
	}
	defer rows.Close()

	var counts []LocationCount
	for rows.Next() {
		var lc LocationCount
		if err := rows.Scan(&lc.Location, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan location count: %w", err)
		}
		counts = append(counts, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read location counts: %w", err)
	}

	return counts, nil
}

// Countries returns the distinct non-empty countries across all jobs,
// sorted ascending. Enumeration lists are deliberately independent of
// the active filter set: they populate low-cardinality dropdowns, not
// result-dependent facets.
func (db *DB) Countries(ctx context.Context) ([]string, error) {
	return db.distinctColumn(ctx, "location_country")
}

// EmploymentTypes returns the distinct non-empty employment types,
// sorted ascending.
func (db *DB) EmploymentTypes(ctx context.Context) ([]string, error) {
	return db.distinctColumn(ctx, "employment_type")
}

// Boards returns the distinct board names that currently have records,
// sorted ascending.
func (db *DB) Boards(ctx context.Context) ([]string, error) {
	return db.distinctColumn(ctx, "board_name")
}

func (db *DB) distinctColumn(ctx context.Context, column string) ([]string, error) {
	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT DISTINCT %s FROM jobs WHERE %s != '' ORDER BY %s ASC`,
		column, column, column))
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read distinct %s: %w", column, err)
	}

	return values, nil
}
