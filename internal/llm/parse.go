package llm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"flight_monitor/internal/model"
)

// RouteContext describes the route a batch of snippets was searched for.
type RouteContext struct {
	Origin        string
	Destination   string
	DepartureDate string
}

type rawDeal struct {
	Airline       string    `json:"airline"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Price         flexFloat `json:"price"`
	Currency      string    `json:"currency"`
	DepartureDate string    `json:"departure_date"`
	ReturnDate    string    `json:"return_date"`
	Connections   flexFloat `json:"connections"`
	BookingURL    string    `json:"booking_url"`
	Source        string    `json:"source"`
	Notes         string    `json:"notes"`
}

func (r rawDeal) toDeal(route RouteContext) model.Deal {
	d := model.Deal{
		Airline:       strings.TrimSpace(r.Airline),
		Origin:        strings.ToUpper(strings.TrimSpace(r.Origin)),
		Destination:   strings.ToUpper(strings.TrimSpace(r.Destination)),
		Price:         float64(r.Price),
		Currency:      strings.ToUpper(strings.TrimSpace(r.Currency)),
		DepartureDate: strings.TrimSpace(r.DepartureDate),
		ReturnDate:    strings.TrimSpace(r.ReturnDate),
		Connections:   int(r.Connections),
		BookingURL:    strings.TrimSpace(r.BookingURL),
		Source:        strings.TrimSpace(r.Source),
		Notes:         strings.TrimSpace(r.Notes),
	}
	if d.Airline == "" {
		d.Airline = "Unknown"
	}
	if !model.IsAirportCode(d.Origin) {
		d.Origin = route.Origin
	}
	if !model.IsAirportCode(d.Destination) {
		d.Destination = route.Destination
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	if d.DepartureDate == "" {
		d.DepartureDate = route.DepartureDate
	}
	return d
}

// flexFloat accepts numbers as well as strings like "USD 1,250.50",
// "ARS 300.000" or "$389".
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(parseAmount(s))
	return nil
}

// parseAmount pulls the first number out of free text. Either "." or "," may
// be the decimal mark: the last separator followed by one or two digits is
// the decimal point, and separators between groups of exactly three digits
// are thousands separators ("1.250,50" and "1,250.50" are both 1250.5).
// Amounts that fit neither reading yield 0.
func parseAmount(s string) float64 {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0
	}
	end := strings.IndexFunc(s[start:], func(c rune) bool {
		return !unicode.IsDigit(c) && c != '.' && c != ','
	})
	token := s[start:]
	if end >= 0 {
		token = token[:end]
	}
	token = strings.TrimRight(token, ".,")

	intPart, frac := token, ""
	if i := strings.LastIndexAny(token, ".,"); i >= 0 {
		switch n := len(token) - i - 1; {
		case n == 1 || n == 2:
			intPart, frac = token[:i], token[i+1:]
			if strings.ContainsRune(intPart, rune(token[i])) {
				return 0
			}
		case n == 3:
			// Thousands group, checked below.
		case token[i] == '.' && strings.Count(token, ".")+strings.Count(token, ",") == 1:
			intPart, frac = token[:i], token[i+1:]
		default:
			return 0
		}
	}

	digits, ok := joinGroups(intPart)
	if !ok {
		return 0
	}
	if frac != "" {
		digits += "." + frac
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return v
}

// joinGroups strips thousands separators from s. Every group after the first
// must have exactly three digits and all separators must be the same.
func joinGroups(s string) (string, bool) {
	i := strings.IndexAny(s, ".,")
	if i < 0 {
		return s, s != ""
	}
	groups := strings.Split(s, s[i:i+1])
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || strings.ContainsAny(g, ".,") {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}
