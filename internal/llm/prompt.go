package llm

import (
	"fmt"
	"strings"

	"flight_monitor/internal/model"
)

func extractPrompt(snippets []model.Snippet, route RouteContext) string {
	var b strings.Builder
	b.WriteString(`You extract cheap flight offers and error fares from web search results.

Rules:
1. Only use information that appears explicitly in a result title or description.
2. The price must be written with digits (e.g. "$500", "USD 400", "€350").
3. booking_url must be exactly the URL of the result the offer came from.
4. Do not invent, assume or compute prices. Skip results without a clear price.
5. Long-haul international prices below USD 200 are mistakes; skip them.

`)
	fmt.Fprintf(&b, "Search context: flights from %s to %s around %s.\n\nResults:\n",
		route.Origin, route.Destination, route.DepartureDate)
	for i, s := range snippets {
		fmt.Fprintf(&b, "\n[%d] %s\nURL: %s\n%s\n", i+1, s.Title, s.URL, s.Description)
	}
	b.WriteString(`
Answer with JSON only, in exactly this shape:
{"deals": [{"airline": "", "origin": "IATA", "destination": "IATA", "price": 0,
  "currency": "USD", "departure_date": "YYYY-MM-DD", "return_date": "",
  "connections": 0, "booking_url": "", "source": "", "notes": ""}]}
If there are no offers, answer {"deals": []}.
`)
	return b.String()
}

func evaluatePrompt(d model.Deal) string {
	return fmt.Sprintf(`Evaluate this flight offer and decide whether it is an error fare.

Airline: %s
Route: %s -> %s
Price: %s %.0f
Connections: %d
Airline reputation: %d/100

Consider whether the price is abnormally low for the route and whether there
are signs of a pricing mistake.

Answer with JSON only:
{"is_error_fare": true, "confidence": 0, "explanation": "", "urgency": "high|medium|low"}
`, d.Airline, d.Origin, d.Destination, d.Currency, d.Price, d.Connections, d.ReputationScore)
}
