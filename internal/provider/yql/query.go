package yql

import (
	"net/url"
	"strings"
)

// Query builds the query text for symbols. Each symbol is double-quoted and
// the list is joined with ", "; an empty list yields "in ()".
func (c *Client) Query(symbols []string) string {
	quoted := make([]string, 0, len(symbols))
	for _, s := range symbols {
		quoted = append(quoted, `"`+s+`"`)
	}
	r := strings.NewReplacer(
		"{fields}", strings.Join(c.fields, ", "),
		"{symbols}", strings.Join(quoted, ", "),
	)
	return r.Replace(c.query)
}

// URL returns the request URL for symbols.
func (c *Client) URL(symbols []string) string {
	return strings.ReplaceAll(c.endpoint, "{query}", escapeQuery(c.Query(symbols)))
}

// escapeQuery percent-encodes query text for use as a URL parameter value.
// Spaces become %20 rather than '+', commas become %2C. Parentheses are
// encoded too (%28, %29); servers decode them to the same query text.
func escapeQuery(q string) string {
	escaped := url.QueryEscape(q)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	return strings.ReplaceAll(escaped, ",", "%2C")
}
