// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for departure dates and history records.
const DateLayout = "2006-01-02"

// Deal is a single flight offer discovered during a scan. It is never persisted;
// only its fingerprint survives across runs.
type Deal struct {
	Airline         string
	Origin          string
	Destination     string
	Price           float64
	Currency        string
	DepartureDate   string
	ReturnDate      string
	Connections     int
	BookingURL      string
	SearchURL       string
	Source          string
	ReputationScore int
	DealScore       int
	Confidence      int
	Notes           string
}

// Route returns the route key of the deal.
func (d Deal) Route() string {
	return RouteKey(d.Origin, d.Destination)
}

// PriceRecord is the lowest price ever observed for a route.
type PriceRecord struct {
	Route       string  `json:"route"`
	MinPrice    float64 `json:"min_price"`
	Currency    string  `json:"currency"`
	FoundDate   string  `json:"found_date"`
	LastChecked string  `json:"last_checked"`
	Source      string  `json:"source"`
	Samples     int     `json:"samples"`
}

// Route is a watched origin-destination pair.
type Route struct {
	Origin      string
	Destination string
	Name        string
	DaysAhead   int
}

// Key returns the canonical route identifier.
func (r Route) Key() string {
	return RouteKey(r.Origin, r.Destination)
}

// DepartureDate returns the date searched for, DaysAhead days after now.
func (r Route) DepartureDate(now time.Time) string {
	return now.AddDate(0, 0, r.DaysAhead).Format(DateLayout)
}

// Label returns the route name, or its key when no name is set.
func (r Route) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Key()
}

// RouteKey builds the order-sensitive "ORIGIN-DESTINATION" identifier.
func RouteKey(origin, destination string) string {
	return strings.ToUpper(origin) + "-" + strings.ToUpper(destination)
}

// ParseRoute parses "EZE-MAD" into its two airport codes.
func ParseRoute(s string) (origin, destination string, err error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid route %q, want ORIGIN-DESTINATION", s)
	}
	origin, destination = strings.ToUpper(parts[0]), strings.ToUpper(parts[1])
	if !IsAirportCode(origin) || !IsAirportCode(destination) {
		return "", "", fmt.Errorf("invalid route %q, airport codes must be 3 letters", s)
	}
	return origin, destination, nil
}

// IsAirportCode reports whether s looks like an IATA airport code.
func IsAirportCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// Snippet is one raw search or feed result handed to the extractor.
type Snippet struct {
	Title       string
	URL         string
	Description string
}

// FilterKind defines the type of filter rule.
type FilterKind string

// Supported filter kinds.
const (
	FilterInclude   FilterKind = "include"
	FilterExclude   FilterKind = "exclude"
	FilterIncludeRe FilterKind = "include_re"
	FilterExcludeRe FilterKind = "exclude_re"
)

// FilterScope defines which part of a snippet a filter matches against.
type FilterScope string

// Supported filter scopes.
const (
	ScopeTitle   FilterScope = "title"
	ScopeContent FilterScope = "content"
	ScopeAll     FilterScope = "all"
)

// Filter is a single matching rule applied to feed items.
type Filter struct {
	Kind  FilterKind
	Scope FilterScope
	Value string
}
