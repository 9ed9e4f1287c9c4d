// Package filter decides which feed snippets are relevant to a route.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"flight_monitor/internal/model"
)

// Match checks whether a snippet passes the given set of filters.
// If no filters are provided, the snippet always passes. Matching ignores
// case and accents.
// Include filters use OR logic (at least one must match).
// Exclude filters use AND logic (none must match).
func Match(s model.Snippet, filters []model.Filter) bool {
	if len(filters) == 0 {
		return true
	}

	hasIncludes := false
	anyIncludeMatched := false

	for _, f := range filters {
		switch f.Kind {
		case model.FilterInclude, model.FilterIncludeRe:
			hasIncludes = true
			if matchesFilter(s, f) {
				anyIncludeMatched = true
			}
		case model.FilterExclude, model.FilterExcludeRe:
			if matchesFilter(s, f) {
				return false
			}
		}
	}

	return !hasIncludes || anyIncludeMatched
}

func matchesFilter(s model.Snippet, f model.Filter) bool {
	text := textForScope(s, f.Scope)
	switch f.Kind {
	case model.FilterInclude, model.FilterExclude:
		return strings.Contains(text, fold(f.Value))
	case model.FilterIncludeRe, model.FilterExcludeRe:
		re, err := regexp.Compile("(?i)" + f.Value)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

func textForScope(s model.Snippet, scope model.FilterScope) string {
	switch scope {
	case model.ScopeTitle:
		return fold(s.Title)
	case model.ScopeContent:
		return fold(s.Description)
	default:
		return fold(s.Title + " " + s.Description)
	}
}

// fold lowercases s and strips diacritics, so "Córdoba" matches "cordoba".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}

// RouteRules returns include rules matching snippets that mention the
// route's destination, by airport code or by the city in the route name
// ("Buenos Aires - Madrid" contributes "madrid").
func RouteRules(r model.Route) []model.Filter {
	rules := []model.Filter{
		{Kind: model.FilterIncludeRe, Scope: model.ScopeAll, Value: `\b` + regexp.QuoteMeta(r.Destination) + `\b`},
	}
	if _, city, ok := strings.Cut(r.Name, " - "); ok {
		if city = strings.TrimSpace(city); city != "" {
			rules = append(rules, model.Filter{Kind: model.FilterInclude, Scope: model.ScopeAll, Value: city})
		}
	}
	return rules
}

// ParseRules turns configured exclude terms into exclude filters. Terms
// prefixed with "re:" are regular expressions.
func ParseRules(terms []string) ([]model.Filter, error) {
	var rules []model.Filter
	for _, t := range terms {
		if pattern, ok := strings.CutPrefix(t, "re:"); ok {
			if err := ValidateRegex(pattern); err != nil {
				return nil, fmt.Errorf("exclude %q: %w", t, err)
			}
			rules = append(rules, model.Filter{Kind: model.FilterExcludeRe, Scope: model.ScopeAll, Value: pattern})
			continue
		}
		rules = append(rules, model.Filter{Kind: model.FilterExclude, Scope: model.ScopeAll, Value: t})
	}
	return rules, nil
}
