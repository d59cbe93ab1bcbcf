package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultMaxRedirects bounds route and hook redirects per navigation.
const DefaultMaxRedirects = 10

// State is the phase of the navigation currently owned by the engine.
type State int

const (
	StateIdle State = iota
	StateMatching
	StateResolving
	StateHooking
	StateCommitting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMatching:
		return "matching"
	case StateResolving:
		return "resolving"
	case StateHooking:
		return "hooking"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Status is the outcome of a navigation that did not fail.
type Status int

const (
	// StatusCommitted means the view was mounted.
	StatusCommitted Status = iota

	// StatusAborted means a hook declined to proceed.
	StatusAborted

	// StatusSuperseded means a newer navigation started first.
	StatusSuperseded
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "committed"
	case StatusAborted:
		return "aborted"
	case StatusSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Result describes a finished navigation.
type Result struct {
	// RequestedPath is the path passed to Navigate.
	RequestedPath string

	// Path is the path navigated to after redirects.
	Path string

	// Route is the matched route. Nil when superseded before matching.
	Route *Descriptor

	// Module is the resolved view module.
	Module Module

	// Status is the outcome.
	Status Status

	// Scroll is the position applied after commit.
	Scroll Position

	// Redirects is the number of redirects followed.
	Redirects int
}

// NavigateOptions configures a single navigation.
type NavigateOptions struct {
	// SavedScroll is the position to restore. Set only for history replay.
	SavedScroll *Position

	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Scroll controls whether the scroll policy runs. Defaults to true.
	Scroll bool

	traverse   int
	redirected bool
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithSavedScroll marks the navigation as a history replay with a saved
// scroll position.
func WithSavedScroll(pos Position) NavigateOption {
	return func(o *NavigateOptions) {
		o.SavedScroll = &pos
	}
}

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithoutScroll leaves the scroll offset alone after commit.
func WithoutScroll() NavigateOption {
	return func(o *NavigateOptions) {
		o.Scroll = false
	}
}

// follow marks the navigation as redirected. A saved scroll position
// belongs to the history entry, not to the redirect target.
func (o *NavigateOptions) follow() {
	o.redirected = true
	o.SavedScroll = nil
}

func withTraverse(delta int) NavigateOption {
	return func(o *NavigateOptions) {
		o.traverse = delta
	}
}

// NavigationObserver is told about every finished navigation. Exactly one
// of res and err is non-nil.
type NavigationObserver func(res *Result, err error, d time.Duration)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithHost sets the environment receiving title and scroll side effects.
func WithHost(h Host) EngineOption {
	return func(e *Engine) {
		e.host = h
	}
}

// WithRenderer sets the renderer that mounts committed views.
func WithRenderer(r Renderer) EngineOption {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithModuleLoader shares a module loader (and its cache) with the engine.
func WithModuleLoader(l *ModuleLoader) EngineOption {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithHooks appends before-navigation hooks.
func WithHooks(hooks ...Hook) EngineOption {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks...)
	}
}

// WithAfterHooks appends after-navigation hooks.
func WithAfterHooks(hooks ...AfterHook) EngineOption {
	return func(e *Engine) {
		e.after = append(e.after, hooks...)
	}
}

// WithScrollPolicy replaces the default scroll policy.
func WithScrollPolicy(p ScrollPolicy) EngineOption {
	return func(e *Engine) {
		e.scroll = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxRedirects sets the redirect limit.
func WithMaxRedirects(n int) EngineOption {
	return func(e *Engine) {
		e.maxRedirects = n
	}
}

// WithNavigationObserver adds an observer for finished navigations.
func WithNavigationObserver(obs NavigationObserver) EngineOption {
	return func(e *Engine) {
		e.observers = append(e.observers, obs)
	}
}

// WithHistory shares a history with the engine.
func WithHistory(h *History) EngineOption {
	return func(e *Engine) {
		e.history = h
	}
}

// Engine drives navigations from path to committed view.
//
// Navigate may be called from several goroutines. Each call supersedes the
// one before it; hooks and commits are serialized, and a superseded
// navigation never mounts its view.
type Engine struct {
	registry     *Registry
	loader       *ModuleLoader
	host         Host
	renderer     Renderer
	hooks        []Hook
	after        []AfterHook
	scroll       ScrollPolicy
	history      *History
	observers    []NavigationObserver
	logger       *slog.Logger
	maxRedirects int

	mu          sync.Mutex
	gen         uint64
	cancel      context.CancelFunc
	state       State
	current     *Descriptor
	currentPath string

	commitMu sync.Mutex
}

// NewEngine creates an engine over registry.
func NewEngine(registry *Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:     registry,
		scroll:       DefaultScrollPolicy{},
		maxRedirects: DefaultMaxRedirects,
		logger:       slog.Default().With("component", "router"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loader == nil {
		e.loader = NewModuleLoader(WithLoaderLogger(e.logger))
	}
	if e.history == nil {
		e.history = NewHistory()
	}
	if e.host == nil {
		e.host = nopHost{}
	}
	if e.renderer == nil {
		e.renderer = RendererFunc(func(context.Context, *Descriptor, Module) error { return nil })
	}
	return e
}

// Navigate moves to path. A hook abort or supersession is reported through
// Result.Status with a nil error. A failed module fetch returns an error
// matching ErrModuleResolution and leaves the previous view committed.
func (e *Engine) Navigate(ctx context.Context, path string, opts ...NavigateOption) (*Result, error) {
	options := NavigateOptions{Scroll: true}
	for _, opt := range opts {
		opt(&options)
	}

	start := time.Now()
	navCtx, gen := e.begin(ctx)
	defer e.finish(gen)

	res, err := e.run(navCtx, gen, path, options)
	for _, obs := range e.observers {
		obs(res, err, time.Since(start))
	}
	return res, err
}

// Back replays the previous history entry with its saved scroll position.
func (e *Engine) Back(ctx context.Context) (*Result, error) {
	return e.traverse(ctx, -1)
}

// Forward replays the next history entry with its saved scroll position.
func (e *Engine) Forward(ctx context.Context) (*Result, error) {
	return e.traverse(ctx, 1)
}

func (e *Engine) traverse(ctx context.Context, delta int) (*Result, error) {
	entry, ok := e.history.Peek(delta)
	if !ok {
		return nil, ErrNoHistory
	}
	return e.Navigate(ctx, entry.Path, WithSavedScroll(entry.Scroll), withTraverse(delta))
}

func (e *Engine) run(ctx context.Context, gen uint64, path string, options NavigateOptions) (*Result, error) {
	result := &Result{RequestedPath: path}
	target := path

	for redirects := 0; ; redirects++ {
		if redirects > e.maxRedirects {
			return nil, fmt.Errorf("%w: %q after %d redirects", ErrTooManyRedirects, path, e.maxRedirects)
		}

		e.setState(gen, StateMatching)
		route, err := e.registry.Match(target)
		if err != nil {
			return nil, err
		}
		if route.Redirect != "" {
			e.logger.Debug("route redirect", "from", target, "to", route.Redirect, "route", route.Name)
			target = route.Redirect
			options.follow()
			continue
		}

		e.setState(gen, StateResolving)
		mod, err := e.loader.Resolve(ctx, route)
		if !e.isCurrent(gen) {
			result.Status = StatusSuperseded
			e.logger.Debug("navigation superseded", "path", target)
			return result, nil
		}
		if err != nil {
			e.logger.Warn("navigation failed", "path", target, "route", route.Name, "error", err)
			return nil, err
		}

		req := &Request{
			TargetPath:    target,
			RequestedPath: path,
			PreviousPath:  e.CurrentPath(),
			SavedScroll:   options.SavedScroll,
			Route:         route,
			Module:        mod,
			Redirects:     redirects,
			Replace:       options.Replace,
		}

		status, pos, err := e.commit(ctx, gen, req, options)
		var redirect *RedirectError
		if errors.As(err, &redirect) {
			e.logger.Debug("hook redirect", "from", target, "to", redirect.To)
			target = redirect.To
			options.follow()
			continue
		}
		if err != nil {
			return nil, err
		}

		result.Path = target
		result.Route = route
		result.Module = mod
		result.Status = status
		result.Scroll = pos
		result.Redirects = redirects
		return result, nil
	}
}

// commit runs the hook chain with mounting at its end.
func (e *Engine) commit(ctx context.Context, gen uint64, req *Request, options NavigateOptions) (Status, Position, error) {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	if !e.isCurrent(gen) {
		return StatusSuperseded, Position{}, nil
	}
	e.setState(gen, StateHooking)

	var (
		committed  bool
		superseded bool
		pos        Position
	)
	err := ComposeHooks(ctx, req, e.hooks, func() error {
		if !e.isCurrent(gen) {
			superseded = true
			return nil
		}
		e.setState(gen, StateCommitting)
		if err := e.renderer.Mount(ctx, req.Route, req.Module); err != nil {
			return fmt.Errorf("mount %q: %w", req.Route.Name, err)
		}
		e.markCommitted(req, options)
		committed = true

		if options.Scroll {
			pos = e.scroll.Decide(req)
			e.host.SetScrollOffset(pos.X, pos.Y)
		}
		return nil
	})

	switch {
	case committed:
		if err != nil {
			e.logger.Warn("hook failed after commit", "path", req.TargetPath, "error", err)
		}
	case err != nil:
		return StatusAborted, Position{}, err
	case superseded:
		return StatusSuperseded, Position{}, nil
	default:
		e.logger.Debug("navigation aborted by hook", "path", req.TargetPath)
		return StatusAborted, Position{}, nil
	}

	for _, h := range e.after {
		h.AfterNavigate(ctx, req)
	}
	e.logger.Debug("navigation committed", "path", req.TargetPath, "route", req.Route.Name)
	return StatusCommitted, pos, nil
}

func (e *Engine) markCommitted(req *Request, options NavigateOptions) {
	if sr, ok := e.host.(ScrollReader); ok {
		x, y := sr.ScrollOffset()
		e.history.SaveScroll(Position{X: x, Y: y})
	}
	switch {
	case options.traverse != 0:
		e.history.Go(options.traverse)
		if options.redirected {
			e.history.Replace(req.TargetPath)
		}
	case options.Replace:
		e.history.Replace(req.TargetPath)
	default:
		e.history.Push(req.TargetPath)
	}

	e.mu.Lock()
	e.current = req.Route
	e.currentPath = req.TargetPath
	e.mu.Unlock()
}

func (e *Engine) begin(ctx context.Context) (context.Context, uint64) {
	navCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	e.cancel = cancel
	return navCtx, e.gen
}

func (e *Engine) finish(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return
	}
	e.state = StateIdle
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) setState(gen uint64, s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		e.state = s
	}
}

func (e *Engine) isCurrent(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen == gen
}

// State returns the phase of the latest navigation.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns the route of the committed view, or nil.
func (e *Engine) Current() *Descriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// CurrentPath returns the path of the committed view.
func (e *Engine) CurrentPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPath
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Loader returns the engine's module loader.
func (e *Engine) Loader() *ModuleLoader {
	return e.loader
}

// History returns the engine's history.
func (e *Engine) History() *History {
	return e.history
}

type nopHost struct{}

func (nopHost) SetTitle(string)          {}
func (nopHost) SetScrollOffset(int, int) {}
