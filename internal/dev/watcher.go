package dev

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/waypoint/internal/config"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	// ChangeSource is a module or asset source file.
	ChangeSource ChangeType = iota

	// ChangeTable is routes.yaml or modules.yaml.
	ChangeTable

	// ChangeConfig is waypoint.json.
	ChangeConfig
)

func (t ChangeType) String() string {
	switch t {
	case ChangeSource:
		return "source"
	case ChangeTable:
		return "table"
	case ChangeConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the files and directories to watch. Directories are
	// watched recursively.
	Paths []string

	// Ignore patterns to skip (globs).
	Ignore []string

	// Debounce is the quiet period before a batch is delivered.
	Debounce time.Duration

	// Tables are the route table and module manifest paths.
	Tables []string

	// Logger receives watcher errors.
	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules/.cache",
	"dist",
	"tmp",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher monitors files for changes and delivers debounced batches.
type Watcher struct {
	config   WatcherConfig
	logger   *slog.Logger
	onChange func([]Change)

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]Change
	timer   *time.Timer
	running bool
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 100 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		config:  config,
		logger:  logger.With("component", "watcher"),
		pending: make(map[string]Change),
	}
}

// OnChange sets the callback for change batches. Batches are sorted by
// path and hold one Change per path.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		fsw.Close()
		return nil
	}
	w.running = true
	w.fsw = fsw
	w.mu.Unlock()

	for _, p := range w.config.Paths {
		if err := w.add(p); err != nil {
			w.logger.Debug("skipping watch path", "path", p, "error", err)
		}
	}

	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// add watches p, walking directories so that every subdirectory is
// watched too.
func (w *Watcher) add(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// Watch the parent so that editors that replace files on save
		// are still seen.
		return w.fsw.Add(filepath.Dir(p))
	}
	return filepath.Walk(p, func(sub string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if sub != p && w.shouldIgnore(sub) {
			return filepath.SkipDir
		}
		return w.fsw.Add(sub)
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) || !w.watched(event.Name) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.add(event.Name); err != nil {
				w.logger.Debug("watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[event.Name] = Change{Path: event.Name, Type: w.classify(event.Name)}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, w.flush)
}

// watched reports whether p is one of the configured paths or lies under
// a configured directory. Parents of watched files see unrelated events.
func (w *Watcher) watched(p string) bool {
	for _, root := range w.config.Paths {
		if isSamePath(p, root) || isWithinDir(p, root) {
			return true
		}
	}
	return false
}

func (w *Watcher) flush() {
	w.mu.Lock()
	callback := w.onChange
	changes := make([]Change, 0, len(w.pending))
	for _, c := range w.pending {
		changes = append(changes, c)
	}
	w.pending = make(map[string]Change)
	w.mu.Unlock()

	if callback == nil || len(changes) == 0 {
		return
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	callback(changes)
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	w.fsw.Close()
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) classify(p string) ChangeType {
	if filepath.Base(p) == config.ConfigFileName {
		return ChangeConfig
	}
	for _, table := range w.config.Tables {
		if isSamePath(p, table) {
			return ChangeTable
		}
	}
	return ChangeSource
}

// shouldIgnore checks if a path should be ignored. Patterns are matched
// against the path relative to the watched root that contains it.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	rel := w.relative(fullPath)
	name := filepath.Base(rel)
	normalized := filepath.ToSlash(rel)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasPathSep := strings.ContainsAny(pattern, `/\`)
		if strings.ContainsAny(pattern, "*?[") {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}
		if pathHasSegment(normalized, pattern) {
			return true
		}
	}
	return false
}

func (w *Watcher) relative(p string) string {
	for _, root := range w.config.Paths {
		if isWithinDir(p, root) {
			if rel, err := filepath.Rel(root, p); err == nil {
				return rel
			}
		}
	}
	return filepath.Base(p)
}

func pathHasSegment(p, segment string) bool {
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}
