// Package report renders scan results for the one-shot search command.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"flight_monitor/internal/model"
	"flight_monitor/internal/notify"
)

const (
	tableRows = 10
	linkRows  = 5
	noteWidth = 80
)

// Table writes the ranked deals as an aligned table followed by links to the
// best few.
func Table(w io.Writer, deals []model.Deal) error {
	if len(deals) == 0 {
		_, err := fmt.Fprintln(w, "No deals found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tAIRLINE\tROUTE\tPRICE\tDATES\tREP\tSCORE")
	for i, d := range deals[:min(len(deals), tableRows)] {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
			i+1, orDefault(d.Airline, "Unknown"), d.Origin+"->"+d.Destination,
			price(d, 0), dates(d), d.ReputationScore, d.DealScore)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nTotal deals found: %d\n\nLinks:\n", len(deals))
	for i, d := range deals[:min(len(deals), linkRows)] {
		fmt.Fprintf(&b, "\n%d. %s - %s\n   %s\n", i+1, d.Airline, price(d, 0), notify.Link(d))
		if d.Notes != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(d.Notes, noteWidth))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders a report of a single route search.
func Markdown(deals []model.Deal, origin, destination string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search results: %s -> %s\n\n", origin, destination)
	fmt.Fprintf(&b, "**Searched at:** %s\n\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Total deals:** %d\n\n", len(deals))

	if len(deals) == 0 {
		b.WriteString("*No deals found.*\n")
		return b.String()
	}

	b.WriteString("## Top deals\n\n")
	for i, d := range deals[:min(len(deals), tableRows)] {
		link := notify.Link(d)
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, orDefault(d.Airline, "Unknown"))
		fmt.Fprintf(&b, "- **Route:** %s -> %s\n", orDefault(d.Origin, "N/A"), orDefault(d.Destination, "N/A"))
		fmt.Fprintf(&b, "- **Price:** %s\n", price(d, 2))
		fmt.Fprintf(&b, "- **Date:** %s\n", orDefault(d.DepartureDate, "ask"))
		fmt.Fprintf(&b, "- **Reputation:** %d/100\n", d.ReputationScore)
		fmt.Fprintf(&b, "- **Deal score:** %d/100\n", d.DealScore)
		fmt.Fprintf(&b, "- **Connections:** %d\n", d.Connections)
		fmt.Fprintf(&b, "- **Source:** %s\n", orDefault(d.Source, "N/A"))
		if link != "" {
			fmt.Fprintf(&b, "- **Link:** [%s](%s)\n", link, link)
		}
		if d.Notes != "" {
			fmt.Fprintf(&b, "- **Notes:** %s\n", d.Notes)
		}
		b.WriteString("\n---\n\n")
	}

	best, bestScore := deals[0], deals[0].DealScore
	airlines := make(map[string]struct{})
	for _, d := range deals {
		if d.Price < best.Price {
			best = d
		}
		bestScore = max(bestScore, d.DealScore)
		if d.Airline != "" {
			airlines[d.Airline] = struct{}{}
		}
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Best price:** %s %.2f\n", orDefault(best.Currency, "USD"), best.Price)
	fmt.Fprintf(&b, "- **Best score:** %d/100\n", bestScore)
	fmt.Fprintf(&b, "- **Airlines found:** %d\n", len(airlines))
	return b.String()
}

// Filename is the default report name for a route searched at now.
func Filename(origin, destination string, now time.Time) string {
	return fmt.Sprintf("flight_search_%s_%s_%s.md", origin, destination, now.Format("20060102_150405"))
}

func price(d model.Deal, decimals int) string {
	if d.Price <= 0 || d.Currency == "" {
		return "N/A"
	}
	return fmt.Sprintf("%s %.*f", d.Currency, decimals, d.Price)
}

func dates(d model.Deal) string {
	if d.DepartureDate == "" {
		return "N/A"
	}
	if d.ReturnDate != "" {
		return d.DepartureDate + " / " + d.ReturnDate
	}
	return d.DepartureDate
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
