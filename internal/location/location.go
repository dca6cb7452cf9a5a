// Package location normalizes free-text job location strings into
// structured city/state/country fields.
//
// Greenhouse boards are inconsistent about location formats: some use
// "Country; City", some "City, State, Country" or "City, Country", and
// some just a bare city or country name. Normalize resolves these with a
// fixed priority order (semicolon > comma > known-country scan) instead
// of a geocoding dependency, so results stay deterministic.
package location

import "strings"

// Location holds the structured fields derived from a raw location string.
// Any field may be empty. When a bare string matches neither the country
// list nor the city map, City and Country both carry the raw string; this
// ambiguous fallback is deliberate and downstream filters depend on it.
type Location struct {
	City    string
	State   string
	Country string
}

// knownCountries is scanned in order; first match wins. Order is part of
// the behavior, do not sort.
var knownCountries = []string{
	"United States",
	"United Kingdom",
	"Australia",
	"Singapore",
	"Germany",
	"Canada",
	"France",
	"Spain",
	"Italy",
	"Netherlands",
	"United States of America",
}

// cityCountry maps well-known office cities to their country for raw
// strings that carry no country at all.
var cityCountry = map[string]string{
	"Frankfurt": "Germany",
	"München":   "Germany",
	"Munich":    "Germany",
	"Berlin":    "Germany",
	"London":    "United Kingdom",
	"Singapore": "Singapore",
	"Sydney":    "Australia",
	"Melbourne": "Australia",
}

// Normalize parses a raw location string into structured fields. It never
// fails; unparseable input degrades to the ambiguous fallback.
func Normalize(raw string) Location {
	var loc Location

	switch {
	case strings.Contains(raw, ";"):
		// "Country; City"
		parts := strings.SplitN(raw, ";", 2)
		loc.Country = strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			loc.City = strings.TrimSpace(parts[1])
		}

	case strings.Contains(raw, ","):
		// "City, State, Country" or "City, Country"
		parts := strings.Split(raw, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		switch {
		case len(parts) >= 3:
			loc.City = parts[0]
			loc.State = parts[1]
			loc.Country = parts[2]
		case len(parts) == 2:
			loc.City = parts[0]
			loc.Country = parts[1]
		default:
			loc.City = parts[0]
			loc.Country = parts[0]
		}

	default:
		// Bare value: a known country name, or a city we may recognize.
		isCountry := false
		for _, country := range knownCountries {
			if containsFold(raw, country) {
				loc.Country = raw
				isCountry = true
				break
			}
		}
		if !isCountry {
			loc.City = raw
			loc.Country = raw
		}
	}

	// Canonicalize country spelling variants.
	if containsFold(loc.Country, "United States") {
		loc.Country = "United States"
	} else if containsFold(loc.Country, "United Kingdom") {
		loc.Country = "United Kingdom"
	}

	// Backfill country for city-only strings, including the ambiguous
	// fallback where city == country.
	if loc.Country == "" || loc.Country == loc.City {
		if country, ok := cityCountry[loc.City]; ok {
			loc.Country = country
		}
	}

	return loc
}

// containsFold reports whether substr occurs in s, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
