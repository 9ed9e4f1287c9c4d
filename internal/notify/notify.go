// Package notify delivers deal alerts to the desktop and to Telegram chats.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flight_monitor/internal/model"
)

// Notifier delivers a single deal alert.
type Notifier interface {
	Notify(ctx context.Context, deal model.Deal) error
}

// Multi fans an alert out to every notifier.
type Multi []Notifier

// Notify calls every notifier and joins their errors.
func (m Multi) Notify(ctx context.Context, deal model.Deal) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, deal); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Link returns the booking URL, or the portal search URL when there is none.
func Link(d model.Deal) string {
	if d.BookingURL != "" {
		return d.BookingURL
	}
	return d.SearchURL
}

// Title is the one-line summary of an alert.
func Title(d model.Deal) string {
	return fmt.Sprintf("Flight deal %d/100: %s -> %s", d.DealScore, d.Origin, d.Destination)
}

// Body describes the deal in a few lines.
func Body(d model.Deal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %.0f", d.Airline, d.Currency, d.Price)
	if d.DepartureDate != "" {
		fmt.Fprintf(&b, " on %s", d.DepartureDate)
	}
	if d.Notes != "" {
		b.WriteString("\n")
		b.WriteString(d.Notes)
	}
	return b.String()
}

// Message is the full plain-text alert used by chat notifiers.
func Message(d model.Deal) string {
	var b strings.Builder
	b.WriteString(Title(d))
	b.WriteString("\n\n")
	b.WriteString(Body(d))
	if link := Link(d); link != "" {
		b.WriteString("\n\n")
		b.WriteString(link)
	}
	if d.SearchURL != "" && d.SearchURL != Link(d) {
		b.WriteString("\nSearch: ")
		b.WriteString(d.SearchURL)
	}
	return b.String()
}
