package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/build"
	"github.com/vango-dev/waypoint/internal/config"
)

func buildCmd() *cobra.Command {
	var (
		output string
		mode   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Partition modules into load units and write them",
		Long: `Build the application for deployment.

This command:
  • Reads routes.yaml and modules.yaml
  • Groups runtime modules into manual and vendor units
  • Gives every route's view its own unit
  • Copies assets with content hashes
  • Writes index.html, manifest.json and units.json

Examples:
  waypoint build
  waypoint build --output=public
  waypoint build --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output, mode, dryRun)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from waypoint.json)")
	cmd.Flags().StringVar(&mode, "mode", "", "Build mode: production or development")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the partition without writing files")

	return cmd
}

func runBuild(output, mode string, dryRun bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Build.Output = output
	}
	if mode != "" {
		if err := applyMode(cfg, mode); err != nil {
			return err
		}
	}

	builder := build.New(cfg, build.Options{
		OnProgress: func(step string) {
			info(step)
		},
	})

	if dryRun {
		plan, err := builder.Plan()
		if err != nil {
			return err
		}
		fmt.Println()
		printPlan(plan)
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Println("  Building...")
	fmt.Println()

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Build complete in %s", result.Duration.Round(time.Millisecond))
	fmt.Println()
	printPlan(result.Plan)
	fmt.Println()
	fmt.Printf("  Output: %s/ (base %s)\n", cfg.Build.Output, cfg.BasePath())
	fmt.Println()
	return nil
}

func printPlan(plan *build.Plan) {
	fmt.Println("  Load units:")
	for _, u := range plan.Units {
		fmt.Printf("    %-40s %-8s %10s\n", u.File, u.Kind, humanize.Bytes(uint64(u.Size)))
	}
	if len(plan.Assets) > 0 {
		fmt.Println("  Assets:")
		for _, a := range plan.Assets {
			line := fmt.Sprintf("    %-40s %10s", a.File, humanize.Bytes(uint64(a.Size)))
			if a.Inline != "" {
				line += "  (inlined)"
			}
			fmt.Println(line)
		}
	}
	fmt.Printf("  Total: %s\n", humanize.Bytes(uint64(plan.TotalSize())))
	for _, w := range plan.Warnings {
		warn("%s", w.String())
	}
}

// applyMode switches cfg to mode and revalidates.
func applyMode(cfg *config.Config, mode string) error {
	cfg.Mode = mode
	return cfg.Validate()
}
