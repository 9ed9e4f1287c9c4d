package bot

import (
	"fmt"
	"strings"

	"flight_monitor/internal/model"
	"flight_monitor/internal/monitor"
	"flight_monitor/internal/notify"
)

// FormatRoutes formats the watched routes for display.
func FormatRoutes(routes []model.Route) string {
	if len(routes) == 0 {
		return "No routes configured. Set ROUTES, e.g. EZE-MAD:45."
	}
	var b strings.Builder
	b.WriteString("Watched routes:\n")
	for i, r := range routes {
		fmt.Fprintf(&b, "\n#%d %s", i+1, r.Key())
		if r.Name != "" {
			fmt.Fprintf(&b, " (%s)", r.Name)
		}
		fmt.Fprintf(&b, ", %d days ahead", r.DaysAhead)
	}
	return b.String()
}

// FormatSummary formats the result of a search cycle.
func FormatSummary(s monitor.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Last cycle: %s (%s)\n", s.Finished.UTC().Format("2006-01-02 15:04 UTC"), s.Finished.Sub(s.Started).Round(1e9))
	fmt.Fprintf(&b, "Routes: %d\nDeals: %d\nAlerts sent: %d\nAlready known: %d", s.Routes, s.Deals, s.Alerts, s.Known)
	if s.Pruned > 0 {
		fmt.Fprintf(&b, "\nExpired fingerprints: %d", s.Pruned)
	}
	if len(s.Top) > 0 {
		d := s.Top[0]
		fmt.Fprintf(&b, "\n\nBest: %s %s -> %s %s %.0f (%d/100)", d.Airline, d.Origin, d.Destination, d.Currency, d.Price, d.DealScore)
	}
	return b.String()
}

// FormatTop formats ranked deals with their links.
func FormatTop(deals []model.Deal) string {
	if len(deals) == 0 {
		return "No deals in the last cycle."
	}
	var b strings.Builder
	b.WriteString("Top deals:\n")
	for i, d := range deals {
		fmt.Fprintf(&b, "\n%d. %s %s -> %s  %s %.0f  score %d, reputation %d\n", i+1, d.Airline, d.Origin, d.Destination, d.Currency, d.Price, d.DealScore, d.ReputationScore)
		if d.DepartureDate != "" {
			fmt.Fprintf(&b, "   departs %s\n", d.DepartureDate)
		}
		fmt.Fprintf(&b, "   %s\n", notify.Link(d))
	}
	return b.String()
}
