// Package known remembers which deals have already been surfaced.
package known

import (
	"context"
	"strconv"
	"strings"
	"time"

	"flight_monitor/internal/model"
)

// Fingerprint derives the identity key of a deal from airline, route, price
// and departure date. Other fields do not affect it.
func Fingerprint(d model.Deal) string {
	return strings.Join([]string{
		d.Airline,
		d.Origin,
		d.Destination,
		formatPrice(d.Price),
		d.DepartureDate,
	}, "|")
}

// Normalize rewrites the price field of a stored fingerprint in the form
// Fingerprint produces, so "Iberia|EZE|MAD|450.0|2026-03-15" becomes
// "Iberia|EZE|MAD|450|2026-03-15". Other strings are returned unchanged.
func Normalize(fp string) string {
	parts := strings.Split(fp, "|")
	if len(parts) != 5 {
		return fp
	}
	p, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return fp
	}
	parts[3] = formatPrice(p)
	return strings.Join(parts, "|")
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Set is a persisted collection of fingerprints.
type Set interface {
	IsNew(ctx context.Context, fp string) (bool, error)
	MarkSeen(ctx context.Context, fp string, now time.Time) error
	// Prune drops fingerprints first seen before the cutoff and returns how
	// many were removed.
	Prune(ctx context.Context, before time.Time) (int, error)
	Len(ctx context.Context) (int, error)
}
