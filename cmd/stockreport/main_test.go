package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"stockreporter/internal/limits"
	"stockreporter/internal/provider/yql"
	"stockreporter/internal/report"
)

// upstream serves a fixed YQL body and counts requests.
func upstream(t *testing.T, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func setup(t *testing.T, endpoint string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STOCKREPORT_ENDPOINT", endpoint+"/v1/public/yql?q={query}&format=json")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "false")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRun_PrintsReport(t *testing.T) {
	srv, hits := upstream(t, `{"query":{"count":3,"results":{"quote":[
		{"symbol":"vti","PreviousClose":"99.50"},
		{"symbol":"vxus","PreviousClose":"61"},
		{"symbol":"bnd","PreviousClose":"80"}]}}}`)
	dir := setup(t, srv.URL)

	path := filepath.Join(dir, "Stocks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"Symbol":"VTI","Min":100,"Max":120},
		{"Symbol":"VXUS","Min":45,"Max":60},
		{"Symbol":"BND","Min":70,"Max":80}
	]`), 0o600))

	out, err := execute(t, path)

	require.NoError(t, err)
	require.Equal(t, int32(1), hits.Load())
	want := `Stock Limits
Symbol: VTI, Min: 100, Max: 120
Symbol: VXUS, Min: 45, Max: 60
Symbol: BND, Min: 70, Max: 80

Stocks under Min
Symbol: vti, PreviousClose: 99.5

Stocks over Max
Symbol: vxus, PreviousClose: 61

Stocks within Range
Symbol: bnd, PreviousClose: 80

Query
select symbol, PreviousClose from yahoo.finance.quotes where symbol in ("VTI", "VXUS", "BND")
`
	require.Equal(t, want, out)
}

func TestRun_MalformedLimitsStopsBeforeFetch(t *testing.T) {
	srv, hits := upstream(t, `{}`)
	dir := setup(t, srv.URL)

	path := filepath.Join(dir, "Stocks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Symbol":`), 0o600))

	out, err := execute(t, path)

	var cfgErr *limits.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, path, cfgErr.Path)
	require.Empty(t, out)
	require.Zero(t, hits.Load())
}

func TestRun_UnconfiguredSymbol(t *testing.T) {
	srv, _ := upstream(t, `{"query":{"count":1,"results":{"quote":{"symbol":"zzz","PreviousClose":"1"}}}}`)
	dir := setup(t, srv.URL)

	path := filepath.Join(dir, "Stocks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Symbol":"vti","Min":1,"Max":2}]`), 0o600))

	_, err := execute(t, path)

	var missing *report.MissingLimitError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "zzz", missing.Symbol)
}

func TestRun_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(srv.Close)
	dir := setup(t, srv.URL)

	path := filepath.Join(dir, "Stocks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Symbol":"vti","Min":1,"Max":2}]`), 0o600))

	_, err := execute(t, path)

	var fetchErr *yql.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusGone, fetchErr.StatusCode)
}

func TestRun_EmptyLimits(t *testing.T) {
	srv, hits := upstream(t, `{}`)
	dir := setup(t, srv.URL)

	path := filepath.Join(dir, "Stocks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	out, err := execute(t, path)

	require.NoError(t, err)
	require.Zero(t, hits.Load())
	require.Contains(t, out, "Stocks within Range\n\nQuery\n")
	require.Contains(t, out, "where symbol in ()")
}

func TestRun_LimitsFileFromSettings(t *testing.T) {
	srv, _ := upstream(t, `{"query":{"count":1,"results":{"quote":[{"symbol":"vti","PreviousClose":"1"}]}}}`)
	dir := setup(t, srv.URL)

	path := filepath.Join(dir, "watch.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Symbol":"vti","Min":1,"Max":2}]`), 0o600))
	t.Setenv("STOCKREPORT_LIMITS_FILE", path)

	out, err := execute(t)

	require.NoError(t, err)
	require.Contains(t, out, "Stocks within Range\nSymbol: vti, PreviousClose: 1\n")
}

func TestRun_TooManyArgs(t *testing.T) {
	_, err := execute(t, "a.json", "b.json")

	require.Error(t, err)
}
