package router

import (
	"errors"
	"fmt"
)

// Registration errors.
var (
	ErrDuplicateName     = errors.New("duplicate route name")
	ErrDuplicatePath     = errors.New("duplicate route path")
	ErrMultipleFallbacks = errors.New("more than one wildcard route")
	ErrInvalidPattern    = errors.New("invalid route pattern")
	ErrFallbackRedirect  = errors.New("invalid redirect target")
	ErrMissingName       = errors.New("route name is required")
)

// Navigation errors.
var (
	// ErrRouteNotMatched is returned by Match when nothing matches and no
	// fallback is registered.
	ErrRouteNotMatched = errors.New("route not matched")

	// ErrModuleResolution marks a failed view module fetch.
	ErrModuleResolution = errors.New("module resolution failed")

	// ErrNoLoader is returned when resolving a route without a Loader.
	ErrNoLoader = errors.New("route has no loader")

	// ErrTooManyRedirects stops redirect loops.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrNoHistory is returned by Back and Forward at either end of history.
	ErrNoHistory = errors.New("no history entry")
)

// ResolutionError reports a view module that could not be loaded.
type ResolutionError struct {
	Route string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Route, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrModuleResolution) hold for every ResolutionError.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrModuleResolution
}

// RedirectError is returned by a hook to send the navigation elsewhere.
type RedirectError struct {
	To string
}

func (e *RedirectError) Error() string {
	return "redirect to " + e.To
}

// Redirect returns an error that makes the engine restart the navigation
// at path.
func Redirect(path string) error {
	return &RedirectError{To: path}
}
