// Package example runs the demo servers under cmd/. Each command builds a
// router; Main parses the shared flags and either prints the OpenAPI
// document or serves until interrupted.
package example

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bjaus/apikit"
)

// Config describes one demo server.
type Config struct {
	Name     string // command name, used in flag usage
	Addr     string // default listen address
	DocsPath string // where the docs UI is served, for the startup log
	Build    func(logger *slog.Logger) *apikit.Router
}

// Main runs the command described by cfg with os.Args and exits on failure.
func Main(cfg Config) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg, os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

// Run parses args and serves the router until ctx is done. With -spec the
// OpenAPI document is written instead, as JSON or, with -yaml, as YAML, to
// stdout or the -o file.
func Run(ctx context.Context, cfg Config, args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet(cfg.Name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	addr := fs.String("addr", cfg.Addr, "Listen address")
	spec := fs.Bool("spec", false, "Print the OpenAPI spec and exit")
	asYAML := fs.Bool("yaml", false, "Write the spec as YAML (requires -spec)")
	out := fs.String("o", "", "Output file for the spec (requires -spec)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r := cfg.Build(logger)

	if *spec {
		if err := writeSpec(r, *out, *asYAML, stdout); err != nil {
			return fmt.Errorf("write spec: %w", err)
		}
		return nil
	}

	logger.InfoContext(ctx, "starting server", "addr", *addr, "docs", "http://localhost"+*addr+cfg.DocsPath)
	if err := r.ListenAndServe(ctx, *addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.InfoContext(ctx, "server stopped")
	return nil
}

func writeSpec(r *apikit.Router, path string, asYAML bool, stdout io.Writer) (err error) {
	w := stdout
	if path != "" {
		f, cerr := os.Create(path) //nolint:gosec // path comes from the command line
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	if asYAML {
		return r.WriteSpecYAML(w)
	}
	return r.WriteSpec(w)
}
