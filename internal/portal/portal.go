// Package portal builds travel-site search links for deals.
package portal

import (
	"fmt"
	"net/url"
	"strings"

	"flight_monitor/internal/model"
)

// Portal is a known travel search site.
type Portal int

// Known portals. Unknown is served by the Google Flights text search.
const (
	Unknown Portal = iota
	Skyscanner
	GoogleFlights
	Kayak
	Despegar
	Momondo
	Expedia
	Omio
)

var names = map[Portal]string{
	Unknown:       "unknown",
	Skyscanner:    "skyscanner",
	GoogleFlights: "google",
	Kayak:         "kayak",
	Despegar:      "despegar",
	Momondo:       "momondo",
	Expedia:       "expedia",
	Omio:          "omio",
}

func (p Portal) String() string {
	if n, ok := names[p]; ok {
		return n
	}
	return fmt.Sprintf("portal(%d)", int(p))
}

// keywords maps source labels to portals, checked in order.
var keywords = []struct {
	word   string
	portal Portal
}{
	{"skyscanner", Skyscanner},
	{"google", GoogleFlights},
	{"flights", GoogleFlights},
	{"kayak", Kayak},
	{"despegar", Despegar},
	{"momondo", Momondo},
	{"expedia", Expedia},
	{"omio", Omio},
}

// templates receive origin, destination, date (YYYY-MM-DD), in that order.
var templates = map[Portal]func(o, d, date string) string{
	Skyscanner: func(o, d, date string) string {
		return fmt.Sprintf("https://www.skyscanner.com.ar/transport/flights/%s/%s/%s/?adultsv2=1&cabinclass=economy&rtn=0",
			strings.ToLower(o), strings.ToLower(d), strings.ReplaceAll(date, "-", "")[2:])
	},
	GoogleFlights: googleSearch,
	Kayak: func(o, d, date string) string {
		return fmt.Sprintf("https://www.kayak.com.ar/flights/%s-%s/%s?sort=bestflight_a", o, d, date)
	},
	Despegar: func(o, d, date string) string {
		return fmt.Sprintf("https://www.despegar.com.ar/shop/flights/results/oneway/%s/%s/%s/1/0/0", o, d, date)
	},
	Momondo: func(o, d, date string) string {
		return fmt.Sprintf("https://www.momondo.com.ar/flight-search/%s-%s/%s?sort=bestflight_a", o, d, date)
	},
	Expedia: func(o, d, date string) string {
		return fmt.Sprintf("https://www.expedia.com.ar/Flights-Search?trip=oneway&leg1=from:%s,to:%s,departure:%s&passengers=adults:1&mode=search", o, d, date)
	},
	Omio: func(o, d, date string) string {
		return fmt.Sprintf("https://www.omio.com/flights/%s/%s?departure_date=%s&adults=1", o, d, date)
	},
}

func googleSearch(o, d, date string) string {
	q := fmt.Sprintf("Flights to %s from %s on %s oneway", d, o, date)
	return "https://www.google.com/travel/flights?q=" + url.QueryEscape(q)
}

// Detect maps a free-text source label to a portal.
func Detect(source string) Portal {
	s := strings.ToLower(source)
	for _, k := range keywords {
		if strings.Contains(s, k.word) {
			return k.portal
		}
	}
	return Unknown
}

// URL returns the search link of portal p for a route and date.
func URL(p Portal, origin, destination, date string) string {
	origin, destination = strings.ToUpper(origin), strings.ToUpper(destination)
	if len(date) != len(model.DateLayout) {
		return googleSearch(origin, destination, date)
	}
	if tmpl, ok := templates[p]; ok {
		return tmpl(origin, destination, date)
	}
	return googleSearch(origin, destination, date)
}

// SearchURL returns the search link for the portal the deal came from.
func SearchURL(d model.Deal) string {
	return URL(Detect(d.Source), d.Origin, d.Destination, d.DepartureDate)
}
