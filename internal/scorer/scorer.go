// Package scorer rates flight prices against a historical minimum or a static
// reference price.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"flight_monitor/internal/model"
)

// DefaultReputation is used for airlines missing from the reputation table.
const DefaultReputation = 70

type band struct {
	limit float64
	score int
	label string
}

var historyBands = []band{
	{5, 95, "Excellent, only %.1f%% above the historical minimum (%s %.0f). Buy now."},
	{10, 90, "Very good, %.1f%% above the historical minimum (%s %.0f). Recommended."},
	{20, 80, "Good price, %.1f%% above the historical minimum (%s %.0f). Worth considering."},
	{30, 70, "Acceptable price, %.1f%% above the historical minimum (%s %.0f). Normal."},
}

// FromRecord scores price against the record's running minimum.
func FromRecord(rec model.PriceRecord, price float64) (int, string) {
	if price <= rec.MinPrice {
		return 100, fmt.Sprintf("Matches or beats the historical minimum (%s %.0f on %s). Seen %d times.",
			rec.Currency, rec.MinPrice, rec.FoundDate, rec.Samples)
	}

	pct := (price - rec.MinPrice) / rec.MinPrice * 100
	for _, b := range historyBands {
		if atMost(price, rec.MinPrice, b.limit) {
			return b.score, fmt.Sprintf(b.label, pct, rec.Currency, rec.MinPrice)
		}
	}
	return 50, fmt.Sprintf("High price, %.1f%% above the historical minimum (%s %.0f). Wait for a better offer.",
		pct, rec.Currency, rec.MinPrice)
}

// referencePrices holds typical one-way USD fares for well known routes.
var referencePrices = map[string]float64{
	"EZE-MAD": 450,
	"EZE-BCN": 500,
	"EZE-FCO": 480,
	"EZE-CDG": 520,
	"EZE-LHR": 550,
	"MDZ-SLA": 80,
	"EZE-COR": 60,
	"EZE-MDZ": 70,
	"COR-SLA": 90,
}

// ReferencePrice returns the typical fare for a route in either direction.
func ReferencePrice(origin, destination string) (float64, bool) {
	if p, ok := referencePrices[model.RouteKey(origin, destination)]; ok {
		return p, true
	}
	p, ok := referencePrices[model.RouteKey(destination, origin)]
	return p, ok
}

// Heuristic scores a price against the static reference table. Routes
// without a reference get a neutral 50.
func Heuristic(origin, destination string, price float64) (int, string) {
	ref, ok := ReferencePrice(origin, destination)
	if !ok {
		return 50, "No history and no reference price for this route. Check manually."
	}

	pct := (price - ref) / ref * 100
	below := math.Abs(pct)
	switch {
	case atMost(price, ref, -30):
		return 100, fmt.Sprintf("Error fare! %.0f%% below the typical price (USD %.0f)", below, ref)
	case atMost(price, ref, -20):
		return 95, fmt.Sprintf("Excellent offer, %.0f%% below the typical price (USD %.0f)", below, ref)
	case atMost(price, ref, -10):
		return 90, fmt.Sprintf("Very good price, %.0f%% below the typical price (USD %.0f)", below, ref)
	case atMost(price, ref, 0):
		return 80, fmt.Sprintf("Good price, %.0f%% below the typical price (USD %.0f)", below, ref)
	case atMost(price, ref, 10):
		return 70, fmt.Sprintf("Normal price, %.0f%% above typical (USD %.0f)", pct, ref)
	default:
		return 50, fmt.Sprintf("High price, %.0f%% above typical (USD %.0f)", pct, ref)
	}
}

// atMost reports whether price is at most pct percent above base (negative
// pct means below). Edges are inclusive and exact: 472.5 against 450 is 5%.
func atMost(price, base, pct float64) bool {
	return (price-base)*100 <= pct*base
}

var reputations = map[string]int{
	"qatar airways":         95,
	"singapore airlines":    94,
	"emirates":              92,
	"japan airlines":        91,
	"turkish airlines":      88,
	"air france":            87,
	"lufthansa":             87,
	"klm":                   86,
	"british airways":       85,
	"iberia":                84,
	"delta":                 83,
	"latam":                 82,
	"american airlines":     81,
	"united":                80,
	"copa airlines":         79,
	"avianca":               77,
	"aerolíneas argentinas": 76,
	"aerolineas argentinas": 76,
	"gol":                   75,
	"jetsmart":              72,
	"flybondi":              70,
}

// Reputation returns the static quality rating of an airline, matched
// case-insensitively.
func Reputation(airline string) int {
	if r, ok := reputations[strings.ToLower(strings.TrimSpace(airline))]; ok {
		return r
	}
	return DefaultReputation
}
