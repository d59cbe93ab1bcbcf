package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestModuleLoaderResolveOnce(t *testing.T) {
	cl := &countingLoader{module: "quick-start-view"}
	d := &Descriptor{Name: "quick-start", Path: "/quick-start", Loader: cl}
	l := NewModuleLoader()

	for i := 0; i < 3; i++ {
		m, err := l.Resolve(context.Background(), d)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if m != "quick-start-view" {
			t.Errorf("Resolve() = %v, want quick-start-view", m)
		}
	}

	if got := cl.calls.Load(); got != 1 {
		t.Errorf("underlying fetches = %d, want 1", got)
	}
	if !l.Resolved("quick-start") {
		t.Error("Resolved(quick-start) = false, want true")
	}
}

func TestModuleLoaderSingleFlight(t *testing.T) {
	bl := newBlockingLoader("diagnosis-view")
	d := &Descriptor{Name: "diagnosis", Path: "/diagnosis", Loader: bl}
	l := NewModuleLoader()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Module, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.Resolve(context.Background(), d)
		}(i)
	}

	<-bl.started
	// Give the remaining callers a moment to join the flight.
	time.Sleep(20 * time.Millisecond)
	close(bl.release)
	wg.Wait()

	if got := bl.calls.Load(); got != 1 {
		t.Errorf("underlying fetches = %d, want 1", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d error = %v", i, errs[i])
		}
		if results[i] != "diagnosis-view" {
			t.Errorf("caller %d got %v", i, results[i])
		}
	}
}

func TestModuleLoaderFailure(t *testing.T) {
	cause := errors.New("network down")
	cl := &countingLoader{err: cause}
	d := &Descriptor{Name: "feedback", Path: "/feedback", Loader: cl}
	l := NewModuleLoader()

	_, err := l.Resolve(context.Background(), d)
	if !errors.Is(err, ErrModuleResolution) {
		t.Errorf("error = %v, want ErrModuleResolution", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want to wrap cause", err)
	}
	var re *ResolutionError
	if !errors.As(err, &re) || re.Route != "feedback" {
		t.Errorf("error = %#v, want ResolutionError for feedback", err)
	}
	if l.Resolved("feedback") {
		t.Error("failed resolution must not be cached")
	}

	// No automatic retry, but a later call fetches again.
	if got := cl.calls.Load(); got != 1 {
		t.Errorf("fetches after one failure = %d, want 1", got)
	}
	_, _ = l.Resolve(context.Background(), d)
	if got := cl.calls.Load(); got != 2 {
		t.Errorf("fetches after second call = %d, want 2", got)
	}
}

func TestModuleLoaderCancelledWaiter(t *testing.T) {
	bl := newBlockingLoader("framework-view")
	d := &Descriptor{Name: "framework", Path: "/framework", Loader: bl}
	l := NewModuleLoader()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.Resolve(ctx, d)
		done <- err
	}()

	<-bl.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}

	// The fetch keeps running and fills the cache.
	close(bl.release)
	deadline := time.Now().Add(2 * time.Second)
	for !l.Resolved("framework") {
		if time.Now().After(deadline) {
			t.Fatal("module was not cached after the detached fetch finished")
		}
		time.Sleep(5 * time.Millisecond)
	}

	m, err := l.Resolve(context.Background(), d)
	if err != nil || m != "framework-view" {
		t.Errorf("Resolve() = %v, %v", m, err)
	}
	if got := bl.calls.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}

func TestModuleLoaderNoLoader(t *testing.T) {
	l := NewModuleLoader()
	_, err := l.Resolve(context.Background(), &Descriptor{Name: "not-found", Path: "*", Redirect: "/"})
	if !errors.Is(err, ErrNoLoader) {
		t.Errorf("error = %v, want ErrNoLoader", err)
	}
}

func TestModuleLoaderObserver(t *testing.T) {
	var (
		mu     sync.Mutex
		routes []string
	)
	l := NewModuleLoader(WithResolveObserver(func(route string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		routes = append(routes, route)
	}))

	d := &Descriptor{Name: "home", Path: "/", Loader: Resolved("home-view")}
	_, _ = l.Resolve(context.Background(), d)
	_, _ = l.Resolve(context.Background(), d)

	mu.Lock()
	defer mu.Unlock()
	if len(routes) != 1 || routes[0] != "home" {
		t.Errorf("observed = %v, want [home]", routes)
	}
}

func TestModuleLoaderPreload(t *testing.T) {
	a := &countingLoader{module: "a"}
	b := &countingLoader{err: errors.New("boom")}
	l := NewModuleLoader()

	l.Preload(context.Background(),
		&Descriptor{Name: "a", Path: "/a", Loader: a},
		&Descriptor{Name: "b", Path: "/b", Loader: b},
		&Descriptor{Name: "fallback", Path: "*", Redirect: "/"},
	)

	if !l.Resolved("a") {
		t.Error("a should be preloaded")
	}
	if l.Resolved("b") {
		t.Error("b failed and should not be cached")
	}
}
