package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field is one printable name/value pair of an entity.
type Field struct {
	Name  string
	Value string
}

// Quote is a single previous-close quote returned by a provider.
type Quote struct {
	Symbol        string          `json:"symbol"`
	PreviousClose decimal.Decimal `json:"previous_close"`
}

// Fields lists the quote fields in declaration order.
func (q Quote) Fields() []Field {
	return []Field{
		{Name: "Symbol", Value: q.Symbol},
		{Name: "PreviousClose", Value: q.PreviousClose.String()},
	}
}

// Limit holds the allowed previous-close range for one symbol.
// Min <= Max is not enforced.
type Limit struct {
	Symbol string          `json:"Symbol" yaml:"symbol"`
	Min    decimal.Decimal `json:"Min" yaml:"min"`
	Max    decimal.Decimal `json:"Max" yaml:"max"`
}

// Fields lists the limit fields in declaration order.
func (l Limit) Fields() []Field {
	return []Field{
		{Name: "Symbol", Value: l.Symbol},
		{Name: "Min", Value: l.Min.String()},
		{Name: "Max", Value: l.Max.String()},
	}
}

// SymbolKey normalizes a symbol for lookups. Limit files and the quote API
// do not agree on case.
func SymbolKey(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}

// Symbols returns the limit symbols in file order.
func Symbols(limits []Limit) []string {
	out := make([]string, 0, len(limits))
	for _, l := range limits {
		out = append(out, l.Symbol)
	}
	return out
}

// FormatFields renders fields as "Name: value" pairs joined by ", ".
func FormatFields(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}
