package router

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeHost records side effects for engine tests.
type fakeHost struct {
	mu          sync.Mutex
	title       string
	description string
	x, y        int
	scrolls     []Position
	mounts      []string
	mountErr    error
}

func (h *fakeHost) SetTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.title = title
}

func (h *fakeHost) SetDescription(d string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.description = d
}

func (h *fakeHost) SetScrollOffset(x, y int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.x, h.y = x, y
	h.scrolls = append(h.scrolls, Position{X: x, Y: y})
}

func (h *fakeHost) ScrollOffset() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.x, h.y
}

func (h *fakeHost) scrollBy(dy int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.y += dy
}

func (h *fakeHost) Mount(_ context.Context, route *Descriptor, _ Module) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mountErr != nil {
		return h.mountErr
	}
	h.mounts = append(h.mounts, route.Name)
	return nil
}

func (h *fakeHost) getTitle() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title
}

func (h *fakeHost) getMounts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.mounts...)
}

// countingLoader counts Load calls and returns a canned module.
type countingLoader struct {
	calls  atomic.Int32
	module Module
	err    error
}

func (l *countingLoader) Load(context.Context) (Module, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return l.module, nil
}

// blockingLoader blocks until release is closed.
type blockingLoader struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
	module  Module
}

func newBlockingLoader(m Module) *blockingLoader {
	return &blockingLoader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		module:  m,
	}
}

func (l *blockingLoader) Load(context.Context) (Module, error) {
	l.calls.Add(1)
	l.once.Do(func() { close(l.started) })
	<-l.release
	return l.module, nil
}

// appRoutes mirrors a small application: eight views plus the fallback.
func appRoutes(loaders map[string]Loader) []Descriptor {
	routes := []Descriptor{
		{Path: "/", Name: "home", Meta: Meta{Title: "Home", Description: "Toolkit overview"}},
		{Path: "/quick-start", Name: "quick-start", Meta: Meta{Title: "Quick Start"}},
		{Path: "/diagnosis", Name: "diagnosis", Meta: Meta{Title: "Diagnosis"}},
		{Path: "/mva-template", Name: "mva-template", Meta: Meta{Title: "MVA Template"}},
		{Path: "/framework", Name: "framework", Meta: Meta{Title: "Framework"}},
		{Path: "/case-library", Name: "case-library", Meta: Meta{Title: "Case Library"}},
		{Path: "/quality-check", Name: "quality-check"},
		{Path: "/feedback", Name: "feedback", Meta: Meta{Title: "Feedback"}},
	}
	for i := range routes {
		if l, ok := loaders[routes[i].Name]; ok {
			routes[i].Loader = l
		} else {
			routes[i].Loader = Resolved("view:" + routes[i].Name)
		}
	}
	return append(routes, Descriptor{Path: "/:pathMatch(.*)*", Name: "not-found", Redirect: "/"})
}

func newAppRegistry(loaders map[string]Loader) *Registry {
	r := NewRegistry()
	r.MustRegister(appRoutes(loaders)...)
	return r
}
