package db

import (
	"fmt"
	"strings"
)

// JobFilters is the active filter set applied to job queries. Zero-valued
// fields are inactive. The same compiled predicate backs both the listing
// query and the facet counts; facet callers zero out their own dimension
// before compiling.
type JobFilters struct {
	// Search matches title, content, or requisition id, case-insensitive
	// substring, logical OR.
	Search string
	// Department matches when the name appears anywhere in the record's
	// serialized department list. Looser than the other filters on
	// purpose: it also matches partial names.
	Department string
	// Country and Location (city) are exact matches on the derived
	// location fields.
	Country  string
	Location string
	// EmploymentType and Board are exact matches.
	EmploymentType string
	Board          string
}

// WithoutDepartment returns a copy with the department filter cleared.
func (f JobFilters) WithoutDepartment() JobFilters {
	f.Department = ""
	return f
}

// WithoutLocation returns a copy with the location filter cleared.
func (f JobFilters) WithoutLocation() JobFilters {
	f.Location = ""
	return f
}

// buildJobFilters compiles the filter set into a WHERE clause fragment
// and its arguments. Placeholders start at startIndex. The fragment is
// always non-empty ("1=1" when no filter is active) so callers can
// append it unconditionally.
func buildJobFilters(f JobFilters, startIndex int) (string, []any) {
	conditions := []string{"1=1"}
	var args []any
	argIndex := startIndex

	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR content ILIKE $%d OR requisition_id ILIKE $%d)",
			argIndex, argIndex+1, argIndex+2))
		pattern := "%" + escapeLike(f.Search) + "%"
		args = append(args, pattern, pattern, pattern)
		argIndex += 3
	}

	if f.Department != "" {
		conditions = append(conditions, fmt.Sprintf("departments::text LIKE $%d", argIndex))
		args = append(args, "%"+escapeLike(f.Department)+"%")
		argIndex++
	}

	if f.Country != "" {
		conditions = append(conditions, fmt.Sprintf("location_country = $%d", argIndex))
		args = append(args, f.Country)
		argIndex++
	}

	if f.Location != "" {
		conditions = append(conditions, fmt.Sprintf("location_city = $%d", argIndex))
		args = append(args, f.Location)
		argIndex++
	}

	if f.EmploymentType != "" {
		conditions = append(conditions, fmt.Sprintf("employment_type = $%d", argIndex))
		args = append(args, f.EmploymentType)
		argIndex++
	}

	if f.Board != "" {
		conditions = append(conditions, fmt.Sprintf("board_name = $%d", argIndex))
		args = append(args, f.Board)
	}

	return strings.Join(conditions, " AND "), args
}

// escapeLike escapes LIKE wildcards in user input so they match
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
