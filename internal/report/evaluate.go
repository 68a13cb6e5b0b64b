package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stockreporter/internal/model"
)

// MissingLimitError reports a quote whose symbol has no configured limit.
type MissingLimitError struct {
	Symbol string
}

func (e *MissingLimitError) Error() string {
	return fmt.Sprintf("no limit configured for symbol %q", e.Symbol)
}

// Groups partitions a quote list by limit. Every input quote lands in
// exactly one group; input order is preserved within a group.
type Groups struct {
	UnderMin    []model.Quote `json:"under_min"`
	OverMax     []model.Quote `json:"over_max"`
	WithinRange []model.Quote `json:"within_range"`
}

// Evaluate places each quote below its limit's Min in UnderMin, above its
// Max in OverMax and everything else, bounds included, in WithinRange.
// When limits repeat a symbol the later entry wins.
func Evaluate(quotes []model.Quote, limits []model.Limit) (Groups, error) {
	g := Groups{
		UnderMin:    []model.Quote{},
		OverMax:     []model.Quote{},
		WithinRange: []model.Quote{},
	}
	if len(quotes) == 0 {
		return g, nil
	}

	minLookup := make(map[string]decimal.Decimal, len(limits))
	maxLookup := make(map[string]decimal.Decimal, len(limits))
	for _, l := range limits {
		key := model.SymbolKey(l.Symbol)
		minLookup[key] = l.Min
		maxLookup[key] = l.Max
	}

	for _, q := range quotes {
		key := model.SymbolKey(q.Symbol)
		lo, ok := minLookup[key]
		if !ok {
			return Groups{}, &MissingLimitError{Symbol: q.Symbol}
		}
		hi := maxLookup[key]
		switch {
		case q.PreviousClose.LessThan(lo):
			g.UnderMin = append(g.UnderMin, q)
		case q.PreviousClose.GreaterThan(hi):
			g.OverMax = append(g.OverMax, q)
		default:
			g.WithinRange = append(g.WithinRange, q)
		}
	}
	return g, nil
}
