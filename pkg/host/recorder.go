package host

import (
	"context"
	"sync"

	"github.com/vango-dev/waypoint/pkg/router"
)

// Mount is one view instantiation seen by a Recorder.
type Mount struct {
	Route  string
	Module router.Module
}

// Recorder is an in-memory host. It is safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	title       string
	description string
	x, y        int
	titles      []string
	scrolls     []router.Position
	mounts      []Mount
	mountErr    error
}

// NewRecorder creates a recorder with an initial title.
func NewRecorder(title string) *Recorder {
	return &Recorder{title: title}
}

// SetTitle implements router.Host.
func (r *Recorder) SetTitle(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
	r.titles = append(r.titles, title)
}

// SetScrollOffset implements router.Host.
func (r *Recorder) SetScrollOffset(x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.x, r.y = x, y
	r.scrolls = append(r.scrolls, router.Position{X: x, Y: y})
}

// SetDescription implements router.DescriptionSetter.
func (r *Recorder) SetDescription(description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.description = description
}

// ScrollOffset implements router.ScrollReader.
func (r *Recorder) ScrollOffset() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x, r.y
}

// ScrollBy simulates the user scrolling the viewport.
func (r *Recorder) ScrollBy(dx, dy int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.x += dx
	r.y += dy
}

// Mount implements router.Renderer.
func (r *Recorder) Mount(_ context.Context, route *router.Descriptor, m router.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mountErr != nil {
		return r.mountErr
	}
	r.mounts = append(r.mounts, Mount{Route: route.Name, Module: m})
	return nil
}

// FailMounts makes every following Mount return err. Pass nil to reset.
func (r *Recorder) FailMounts(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mountErr = err
}

// Title returns the current title.
func (r *Recorder) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// Description returns the current description.
func (r *Recorder) Description() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.description
}

// Titles returns every title set, in order.
func (r *Recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

// Scrolls returns every scroll offset set, in order.
func (r *Recorder) Scrolls() []router.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]router.Position(nil), r.scrolls...)
}

// Mounts returns every mounted view, in order.
func (r *Recorder) Mounts() []Mount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mount(nil), r.mounts...)
}

// Mounted returns the route name of the last mounted view.
func (r *Recorder) Mounted() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.mounts) == 0 {
		return ""
	}
	return r.mounts[len(r.mounts)-1].Route
}
