package monitor

import (
	"errors"
	"fmt"
	"strings"

	"flight_monitor/internal/model"
	"flight_monitor/internal/scorer"
)

// Validation failures.
var (
	ErrNoPrice          = errors.New("price must be positive")
	ErrImplausiblePrice = errors.New("price below plausibility floor")
	ErrBadURL           = errors.New("booking url must be http or https")
)

// Validate rejects deals that cannot be trusted. USD prices under floor are
// implausible, except on routes whose typical fare is itself below the floor.
func Validate(d model.Deal, floor float64) error {
	if d.Price <= 0 {
		return ErrNoPrice
	}
	if isUSD(d.Currency) && d.Price < floor {
		ref, ok := scorer.ReferencePrice(d.Origin, d.Destination)
		if !ok || ref >= floor {
			return fmt.Errorf("%w: USD %.0f < %.0f", ErrImplausiblePrice, d.Price, floor)
		}
	}
	u := strings.ToLower(d.BookingURL)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return ErrBadURL
	}
	return nil
}

func isUSD(currency string) bool {
	c := strings.ToUpper(strings.TrimSpace(currency))
	return c == "" || c == "USD" || c == "US$"
}
