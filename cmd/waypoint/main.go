package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┬ ┬┌─┐┌─┐┬┌┐┌┌┬┐
  ║║║├─┤└┬┘├─┘│ ││││││ │
  ╚╩╝┴ ┴ ┴ ┴  └─┘┴┘└┘ ┴
`

// Global flags.
var (
	projectDir string
	verbose    bool
	noColor    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waypoint",
		Short: "Route table, load units and navigation for client-side apps",
		Long: `Waypoint maps URL paths to lazily loaded views and groups view
modules into load units at build time.

  • Route table with a single fallback that redirects home
  • Deferred, resolve-once view loading
  • Title, description and scroll handling per navigation
  • Deterministic load-unit partitioning with content hashes
  • Preview server with hot reload`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				errors.DisableColors()
			}
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "Project directory (default: nearest directory holding waypoint.json)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		createCmd(),
		buildCmd(),
		devCmd(),
		navigateCmd(),
		routesCmd(),
		publishCmd(),
		versionCmd(),
	)
	return cmd
}

// loadConfig loads the project selected by --dir, or the one containing
// the working directory.
func loadConfig() (*config.Config, error) {
	start := projectDir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		start = wd
	}
	root, err := config.FindProjectRoot(start)
	if err != nil {
		return nil, err
	}
	return config.Load(root)
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
