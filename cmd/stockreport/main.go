// Command stockreport prints which configured stocks closed outside their
// limits.
//
//	stockreport [limits-file]
//
// Without an argument the limits file named in the settings (Stocks.json by
// default) is read from the directory of the executable.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"stockreporter/internal/config"
	"stockreporter/internal/httpx"
	"stockreporter/internal/limits"
	"stockreporter/internal/logger"
	"stockreporter/internal/provider/yql"
	"stockreporter/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		logFailure(err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:           "stockreport [limits-file]",
		Short:         "Report stocks whose previous close is outside their configured limits",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return run(cmd.Context(), out, path)
		},
	}
}

func run(ctx context.Context, out io.Writer, path string) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		FileEnabled:   cfg.Logging.FileEnabled,
		FilePath:      cfg.Logging.FilePath,
		RotationSize:  cfg.Logging.RotationSize,
		RetentionDays: cfg.Logging.RetentionDays,
		ServiceName:   "stockreport",
	}); err != nil {
		return err
	}

	defaultPath, err := limits.Resolve(cfg.Limits.File)
	if err != nil {
		return err
	}
	lims, err := limits.Load(path, defaultPath)
	if err != nil {
		return err
	}

	hc := httpx.New(time.Duration(cfg.Quotes.TimeoutSec) * time.Second)
	hc.UserAgent = cfg.Quotes.UserAgent
	client := yql.New(
		yql.WithHTTPClient(hc),
		yql.WithEndpoint(cfg.Quotes.Endpoint),
		yql.WithQuery(cfg.Quotes.Query),
		yql.WithFields(cfg.Quotes.Fields),
	)

	r, err := report.Build(ctx, lims, client)
	if err != nil {
		return err
	}
	return report.Write(out, r)
}

// logFailure logs err with the context needed to diagnose it.
func logFailure(err error) {
	ev := log.Error().Err(err)
	var (
		cfgErr     *limits.ConfigError
		fetchErr   *yql.FetchError
		parseErr   *yql.ParseError
		missingErr *report.MissingLimitError
	)
	switch {
	case errors.As(err, &cfgErr):
		ev = ev.Str("kind", "config").Str("path", cfgErr.Path)
	case errors.As(err, &fetchErr):
		ev = ev.Str("kind", "fetch").Str("url", fetchErr.URL).Int("status", fetchErr.StatusCode)
	case errors.As(err, &parseErr):
		ev = ev.Str("kind", "parse").Str("url", parseErr.URL)
	case errors.As(err, &missingErr):
		ev = ev.Str("kind", "missing_limit").Str("symbol", missingErr.Symbol)
	}
	ev.Msg("stock report failed")
}
