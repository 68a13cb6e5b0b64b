package report

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"stockreporter/internal/model"
	"stockreporter/internal/provider"
)

// Report is the outcome of one reporting run.
type Report struct {
	Limits []model.Limit `json:"limits"`
	Groups
	Query string `json:"query"`
}

// Build fetches quotes for every limit symbol from p and evaluates them.
// Nothing is shared between calls.
func Build(ctx context.Context, limits []model.Limit, p provider.Provider) (*Report, error) {
	symbols := model.Symbols(limits)
	query := p.Query(symbols)

	quotes, err := p.Fetch(ctx, symbols)
	if err != nil {
		return nil, err
	}

	groups, err := Evaluate(quotes, limits)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", p.Name()).
		Int("limits", len(limits)).
		Int("quotes", len(quotes)).
		Int("under_min", len(groups.UnderMin)).
		Int("over_max", len(groups.OverMax)).
		Int("within_range", len(groups.WithinRange)).
		Msg("report built")

	return &Report{Limits: limits, Groups: groups, Query: query}, nil
}

type fielder interface {
	Fields() []model.Field
}

// Write prints r as sections in a fixed order: limits, under min, over max,
// within range, then the query text.
func Write(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)

	section(bw, "Stock Limits", r.Limits)
	section(bw, "Stocks under Min", r.UnderMin)
	section(bw, "Stocks over Max", r.OverMax)
	section(bw, "Stocks within Range", r.WithinRange)

	fmt.Fprintln(bw, "Query")
	fmt.Fprintln(bw, r.Query)

	return bw.Flush()
}

func section[T fielder](w io.Writer, title string, items []T) {
	fmt.Fprintln(w, title)
	for _, it := range items {
		fmt.Fprintln(w, model.FormatFields(it.Fields()))
	}
	fmt.Fprintln(w)
}
