package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/build"
	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/dev"
)

func devCmd() *cobra.Command {
	var (
		port        int
		host        string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the preview server",
		Long: `Start the preview server with hot reload.

The server builds in development mode, serves the output under /,
rebuilds when sources, routes.yaml or modules.yaml change, and
refreshes connected browsers.

Features:
  • Hot reload on file change
  • Error overlay in browser
  • Navigation preview at /__waypoint/navigate
  • Prometheus metrics at /metrics

Examples:
  waypoint dev
  waypoint dev --port=8080
  waypoint dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host, openBrowser)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from waypoint.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from waypoint.json)")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")

	return cmd
}

func runDev(port int, host string, openBrowser bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}
	if openBrowser {
		cfg.Dev.Open = true
	}
	if err := applyMode(cfg, config.ModeDevelopment); err != nil {
		return err
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	server, err := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		OnBuildComplete: func(result *build.Result, err error) {
			if err == nil {
				success("Built %d units in %s", len(result.Plan.Units), result.Duration.Round(time.Millisecond))
			}
		},
		OnReload: func(clients int) {
			success("Reloaded %d browsers", clients)
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Dev.Open {
		go func() {
			time.Sleep(500 * time.Millisecond)
			openURL(cfg.DevURL())
		}()
	}

	err = server.Start(ctx)
	fmt.Println("\n  Shutting down...")
	return err
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd

	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	case commandExists("start"):
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}

	cmd.Start()
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
