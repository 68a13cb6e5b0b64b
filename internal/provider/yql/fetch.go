package yql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"stockreporter/internal/model"
)

// FetchError reports a failed request or a non-success HTTP status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a response body that does not hold quotes at
// query.results.quote.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Fetch retrieves the previous close of every symbol. An empty symbol list
// returns no quotes without contacting the API.
func (c *Client) Fetch(ctx context.Context, symbols []string) ([]model.Quote, error) {
	if len(symbols) == 0 {
		return []model.Quote{}, nil
	}

	url := c.URL(symbols)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("performing request: %w", err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode, Err: fmt.Errorf("unexpected status: %s", bytes.TrimSpace(b))}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	quotes, err := parseQuotes(body)
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}
	log.Debug().Str("provider", c.Name()).Int("symbols", len(symbols)).Int("quotes", len(quotes)).Msg("quotes fetched")
	return quotes, nil
}

// envelope mirrors the parts of a YQL response we read:
//
//	{"query": {"count": 2, "results": {"quote": [{"symbol": "vti", "PreviousClose": "105.62"}]}}}
type envelope struct {
	Query *struct {
		Count   int             `json:"count"`
		Results json.RawMessage `json:"results"`
	} `json:"query"`
}

type results struct {
	Quote json.RawMessage `json:"quote"`
}

type wireQuote struct {
	Symbol        *string             `json:"symbol"`
	PreviousClose decimal.NullDecimal `json:"PreviousClose"`
}

var null = []byte("null")

func parseQuotes(body []byte) ([]model.Quote, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if env.Query == nil {
		return nil, errors.New("missing query")
	}
	raw := bytes.TrimSpace(env.Query.Results)
	if len(raw) == 0 {
		return nil, errors.New("missing query.results")
	}
	// The API answers "results": null when nothing matched.
	if bytes.Equal(raw, null) {
		return []model.Quote{}, nil
	}

	var res results
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decoding query.results: %w", err)
	}
	raw = bytes.TrimSpace(res.Quote)
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return nil, errors.New("missing query.results.quote")
	}

	var wire []wireQuote
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("decoding quotes: %w", err)
		}
	case '{':
		// A single row comes back as an object rather than an array.
		var one wireQuote
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("decoding quote: %w", err)
		}
		wire = []wireQuote{one}
	default:
		return nil, fmt.Errorf("query.results.quote: unexpected %q", raw[0])
	}

	quotes := make([]model.Quote, 0, len(wire))
	for i, w := range wire {
		if w.Symbol == nil || *w.Symbol == "" {
			return nil, fmt.Errorf("quote %d: missing symbol", i)
		}
		if !w.PreviousClose.Valid {
			return nil, fmt.Errorf("quote %d (%s): missing PreviousClose", i, *w.Symbol)
		}
		quotes = append(quotes, model.Quote{Symbol: *w.Symbol, PreviousClose: w.PreviousClose.Decimal})
	}
	return quotes, nil
}
