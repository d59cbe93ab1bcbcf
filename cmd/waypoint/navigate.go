package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/pkg/assets"
	"github.com/vango-dev/waypoint/pkg/host"
	"github.com/vango-dev/waypoint/pkg/loader"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Steps that replay history instead of navigating.
const (
	stepBack    = "back"
	stepForward = "forward"
)

func navigateCmd() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "navigate STEP...",
		Short: "Replay a navigation sequence against a build",
		Long: `Run a sequence of navigations against the build output and print
what the host would see after each one: route, title, scroll offset and
the units fetched.

A step is a path, or "back" / "forward" to traverse history. Units are
read from the output directory, or over HTTP with --url.

Examples:
  waypoint navigate / /framework back forward
  waypoint navigate --url=https://example.com/docs/ /missing`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNavigate(cmd.OutOrStdout(), url, timeout, args)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Base URL of a deployed build (default: read the output directory)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout per navigation")

	return cmd
}

func runNavigate(w io.Writer, url string, timeout time.Duration, steps []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := config.LoadRouteTable(cfg.RoutesPath())
	if err != nil {
		return err
	}

	ctx := context.Background()
	source, index, err := openBuild(ctx, cfg, url)
	if err != nil {
		return err
	}
	fetcher, err := loader.NewFetcher(index, source, loader.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	reg, err := table.Registry(func(e config.RouteEntry) router.Loader {
		return fetcher.Loader(e.Name)
	})
	if err != nil {
		return err
	}

	rec := host.NewRecorder(cfg.Name)
	engine := router.NewEngine(reg,
		router.WithHost(rec),
		router.WithRenderer(rec),
		router.WithHooks(
			router.TitleHook(rec, cfg.Name),
			router.DescriptionHook(rec),
		),
		router.WithLogger(slog.Default()),
	)

	for _, step := range steps {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		fetchesBefore := fetcher.Fetches()
		res, err := runStep(stepCtx, engine, step)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}

		route := "-"
		if res.Route != nil {
			route = res.Route.Name
		}
		x, y := rec.ScrollOffset()
		fmt.Fprintf(w, "%-12s -> %-16s %-10s %-12s title=%q scroll=%d,%d fetched=%d",
			step, res.Path, res.Status, route, rec.Title(), x, y, fetcher.Fetches()-fetchesBefore)
		if b, ok := res.Module.(*loader.Bundle); ok {
			fmt.Fprintf(w, " bundle=%s", humanize.Bytes(uint64(b.Size())))
		}
		if res.Redirects > 0 {
			fmt.Fprintf(w, " redirects=%d", res.Redirects)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func runStep(ctx context.Context, engine *router.Engine, step string) (*router.Result, error) {
	switch step {
	case stepBack:
		return engine.Back(ctx)
	case stepForward:
		return engine.Forward(ctx)
	default:
		return engine.Navigate(ctx, step)
	}
}

// openBuild returns the unit source and index of the local output
// directory, or of the deployment at url.
func openBuild(ctx context.Context, cfg *config.Config, url string) (loader.Source, *assets.UnitIndex, error) {
	if url == "" {
		out := cfg.OutputPath()
		index, err := assets.LoadUnits(filepath.Join(out, "units.json"))
		if err != nil {
			return nil, nil, fmt.Errorf("no build output in %s (run 'waypoint build'): %w", out, err)
		}
		return loader.NewFSSource(os.DirFS(out)), index, nil
	}

	source := loader.NewHTTPSource(url)
	data, err := source.Open(ctx, "units.json")
	if err != nil {
		return nil, nil, err
	}
	index, err := assets.ParseUnits(data)
	if err != nil {
		return nil, nil, err
	}
	return source, index, nil
}
