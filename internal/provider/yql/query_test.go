package yql_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"stockreporter/internal/provider/yql"
)

func TestQuery_QuotesAndJoinsSymbols(t *testing.T) {
	t.Parallel()

	client := yql.New()

	got := client.Query([]string{"aaa", "bbb"})

	require.Equal(t, `select symbol, PreviousClose from yahoo.finance.quotes where symbol in ("aaa", "bbb")`, got)
}

func TestQuery_SingleSymbol(t *testing.T) {
	t.Parallel()

	got := yql.New().Query([]string{"vti"})

	require.Equal(t, `select symbol, PreviousClose from yahoo.finance.quotes where symbol in ("vti")`, got)
}

func TestQuery_EmptySymbols(t *testing.T) {
	t.Parallel()

	got := yql.New().Query(nil)

	require.Equal(t, `select symbol, PreviousClose from yahoo.finance.quotes where symbol in ()`, got)
}

func TestQuery_CustomTemplateAndFields(t *testing.T) {
	t.Parallel()

	client := yql.New(
		yql.WithQuery("select {fields} from t where s in ({symbols})"),
		yql.WithFields([]string{"symbol", "PreviousClose", "Name"}),
	)

	got := client.Query([]string{"x"})

	require.Equal(t, `select symbol, PreviousClose, Name from t where s in ("x")`, got)
}

func TestURL_EscapesCommasAndSpaces(t *testing.T) {
	t.Parallel()

	client := yql.New()

	got := client.URL([]string{"vti", "vxus"})

	// Assert: the query parameter is fully percent-encoded.
	require.True(t, strings.HasPrefix(got, "https://query.yahooapis.com/v1/public/yql?q=select%20symbol%2C%20PreviousClose%20from%20yahoo.finance.quotes%20where%20symbol%20in%20"), got)
	require.Contains(t, got, "in%20%28%22vti%22%2C%20%22vxus%22%29")
	require.NotContains(t, got, ",")
	require.NotContains(t, got, " ")
	require.NotContains(t, got, "+")
	require.NotContains(t, got, "(")
	require.True(t, strings.HasSuffix(got, "&format=json&env=store%3A%2F%2Fdatatables.org%2Falltableswithkeys&callback="), got)

	// Assert: decoding the URL yields the original query text.
	u, err := url.Parse(got)
	require.NoError(t, err)
	require.Equal(t, client.Query([]string{"vti", "vxus"}), u.Query().Get("q"))
	require.Equal(t, "json", u.Query().Get("format"))
}

func TestURL_EmptySymbols(t *testing.T) {
	t.Parallel()

	client := yql.New()

	u, err := url.Parse(client.URL(nil))

	require.NoError(t, err)
	require.Equal(t, client.Query(nil), u.Query().Get("q"))
}

func TestURL_CustomEndpoint(t *testing.T) {
	t.Parallel()

	client := yql.New(yql.WithEndpoint("http://localhost:8080/yql?q={query}"))

	got := client.URL([]string{"a+b"})

	require.True(t, strings.HasPrefix(got, "http://localhost:8080/yql?q=select"), got)
	require.Contains(t, got, "%22a%2Bb%22")
}
