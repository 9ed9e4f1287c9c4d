package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flight_monitor/internal/model"
)

var timeNow = time.Now

// ParseIDArg extracts a positive number from a command argument string.
func ParseIDArg(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("route number is required")
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid route number %q", s)
	}
	return n, nil
}

// ParseRouteArg resolves a 1-based route number or an ORIGIN-DESTINATION key
// to one of the watched routes.
func ParseRouteArg(args string, routes []model.Route) (model.Route, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return model.Route{}, fmt.Errorf("route is required")
	}
	s = strings.Fields(s)[0]

	if n, err := ParseIDArg(s); err == nil {
		if n > len(routes) {
			return model.Route{}, fmt.Errorf("route #%d not found", n)
		}
		return routes[n-1], nil
	}

	o, d, err := model.ParseRoute(s)
	if err != nil {
		return model.Route{}, err
	}
	key := model.RouteKey(o, d)
	for _, r := range routes {
		if r.Key() == key {
			return r, nil
		}
	}
	return model.Route{}, fmt.Errorf("route %s is not watched", key)
}
