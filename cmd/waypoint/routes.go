package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/pkg/assets"
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `Validate routes.yaml and list every route in match order. When a
build exists, each route's view unit and the units it pulls in are shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(cmd.OutOrStdout())
		},
	}
}

func runRoutes(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := config.LoadRouteTable(cfg.RoutesPath())
	if err != nil {
		return err
	}
	reg, err := table.Registry(nil)
	if err != nil {
		return err
	}

	// A missing build is fine; units are just not shown.
	index, _ := assets.LoadUnits(filepath.Join(cfg.OutputPath(), "units.json"))

	for _, d := range reg.Routes() {
		target := d.Meta.Title
		if d.Redirect != "" {
			target = "→ " + d.Redirect
		}
		fmt.Fprintf(w, "  %-24s %-16s %s\n", d.Path, d.Name, target)
		if index == nil {
			continue
		}
		u, ok := index.UnitForRoute(d.Name)
		if !ok {
			continue
		}
		closure, err := index.Closure(u.Name)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(closure))
		var total int64
		for _, c := range closure {
			names = append(names, c.Name)
			total += c.Size
		}
		fmt.Fprintf(w, "  %-24s %s (%s)\n", "", strings.Join(names, " + "), humanize.Bytes(uint64(total)))
	}
	return nil
}
