package provider

import (
	"context"

	"stockreporter/internal/model"
)

// Provider fetches previous-close quotes for a set of symbols.
type Provider interface {
	Name() string
	// Query returns the query text sent upstream for symbols.
	Query(symbols []string) string
	Fetch(ctx context.Context, symbols []string) ([]model.Quote, error)
}
