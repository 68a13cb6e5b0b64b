package yql

import (
	"net/http"
	"slices"
)

const (
	// DefaultEndpoint is the public YQL endpoint. {query} is replaced by the
	// escaped query text.
	DefaultEndpoint = "https://query.yahooapis.com/v1/public/yql?q={query}&format=json&env=store%3A%2F%2Fdatatables.org%2Falltableswithkeys&callback="
	// DefaultQuery selects the quote columns for a symbol list. {fields} and
	// {symbols} are replaced before escaping.
	DefaultQuery = "select {fields} from yahoo.finance.quotes where symbol in ({symbols})"
)

// DefaultFields are the upstream column names backing model.Quote.
var DefaultFields = []string{"symbol", "PreviousClose"}

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yql_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the YQL quotes table.
type Client struct {
	// endpoint is the request URL template.
	endpoint string
	// query is the query text template.
	query string
	// fields are the columns requested for every quote.
	fields []string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// ClientOption is a configuration option for the YQL client.
type ClientOption func(*Client)

// WithEndpoint sets the request URL template. It must contain {query}.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithQuery sets the query text template.
func WithQuery(query string) ClientOption {
	return func(c *Client) {
		if query != "" {
			c.query = query
		}
	}
}

// WithFields sets the requested columns. Responses are decoded from the
// symbol and PreviousClose columns, so both must stay in the list; extra
// columns are requested but ignored.
func WithFields(fields []string) ClientOption {
	return func(c *Client) {
		if len(fields) > 0 {
			c.fields = slices.Clone(fields)
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// New creates a YQL client.
func New(options ...ClientOption) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		query:      DefaultQuery,
		fields:     slices.Clone(DefaultFields),
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string { return "YQL" }
