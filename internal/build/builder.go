package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
)

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Output is the output directory.
	Output string

	// Plan is the partitioning the build wrote.
	Plan *Plan

	// Warnings lists oversized units.
	Warnings []Warning
}

// Options configures the builder.
type Options struct {
	// Logger receives warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder handles production builds.
type Builder struct {
	config  *config.Config
	options Options
	logger  *slog.Logger
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		config:  cfg,
		options: options,
		logger:  logger.With("component", "build"),
	}
}

// Plan reads the route table and module manifest and partitions them
// without writing anything.
func (b *Builder) Plan() (*Plan, error) {
	b.progress("Reading route table...")
	routes, err := config.LoadRouteTable(b.config.RoutesPath())
	if err != nil {
		return nil, err
	}
	if _, err := routes.Registry(nil); err != nil {
		return nil, err
	}

	b.progress("Reading module manifest...")
	modules, err := config.LoadModules(b.config.ModulesPath())
	if err != nil {
		return nil, err
	}

	b.progress("Partitioning load units...")
	srcDir := b.config.SourcePath()
	return Partition(PartitionInput{
		Modules: modules,
		Routes:  routes,
		Build:   b.config.Build,
		Read: func(p string) ([]byte, error) {
			return os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(p)))
		},
	})
}

// Build performs a production build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	plan, err := b.Plan()
	if err != nil {
		return nil, err
	}

	outputDir := b.config.OutputPath()

	// Clean output directory
	b.progress("Cleaning output directory...")
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, errors.New("E142").Wrap(err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.New("E142").Wrap(err)
	}

	b.progress("Writing load units...")
	for _, u := range plan.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeOutput(outputDir, u.File, u.Content); err != nil {
			return nil, err
		}
	}

	b.progress("Copying assets...")
	for _, a := range plan.Assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writeOutput(outputDir, a.File, a.Content); err != nil {
			return nil, err
		}
	}

	b.progress("Writing index.html...")
	shell, err := RenderShell(b.config.Name, b.config.BasePath(), b.config.Build.EntryName, plan.Index)
	if err != nil {
		return nil, errors.New("E142").Wrap(err)
	}
	if err := writeOutput(outputDir, "index.html", shell); err != nil {
		return nil, err
	}

	// Write manifest
	b.progress("Writing manifest...")
	if err := plan.Manifest.Save(filepath.Join(outputDir, "manifest.json")); err != nil {
		return nil, errors.New("E142").Wrap(err)
	}
	if err := plan.Index.Save(filepath.Join(outputDir, "units.json")); err != nil {
		return nil, errors.New("E142").Wrap(err)
	}

	for _, w := range plan.Warnings {
		b.logger.Warn("large load unit", "unit", w.Unit, "size", w.Size, "detail", w.String())
	}

	return &Result{
		Duration: time.Since(start),
		Output:   outputDir,
		Plan:     plan,
		Warnings: plan.Warnings,
	}, nil
}

func writeOutput(outputDir, file string, content []byte) error {
	dest := filepath.Join(outputDir, filepath.FromSlash(file))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.New("E142").Wrap(err)
	}
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return errors.New("E142").Wrap(err)
	}
	return nil
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// Clean removes the build output directory.
func (b *Builder) Clean() error {
	return os.RemoveAll(b.config.OutputPath())
}
