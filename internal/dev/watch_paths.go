package dev

import (
	"path/filepath"

	"github.com/vango-dev/waypoint/internal/config"
)

// CollectWatchPaths returns a normalized list of watch paths for the
// project: the config file, both tables, and every dev.watch entry. The
// build output is never watched.
func CollectWatchPaths(cfg *config.Config) []string {
	paths := []string{
		filepath.Join(cfg.Dir(), config.ConfigFileName),
		cfg.RoutesPath(),
		cfg.ModulesPath(),
	}
	paths = append(paths, cfg.WatchPaths()...)

	output := cfg.OutputPath()
	unique := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		clean := filepath.Clean(path)
		if isSamePath(clean, output) || isWithinDir(clean, output) {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		unique = append(unique, clean)
	}

	return unique
}

func isWithinDir(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

func isSamePath(a, b string) bool {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return filepath.Clean(absA) == filepath.Clean(absB)
}
