package router

import "context"

// Hook intercepts a navigation before it commits.
//
// Call next to continue the chain. Return nil without calling next to abort
// the navigation. Return Redirect(path) to restart it at another path. Any
// other error fails the navigation.
type Hook interface {
	BeforeNavigate(ctx context.Context, req *Request, next func() error) error
}

// HookFunc is a function adapter for Hook.
type HookFunc func(ctx context.Context, req *Request, next func() error) error

// BeforeNavigate implements Hook.
func (f HookFunc) BeforeNavigate(ctx context.Context, req *Request, next func() error) error {
	return f(ctx, req, next)
}

// AfterHook observes a navigation after its view has been committed.
type AfterHook interface {
	AfterNavigate(ctx context.Context, req *Request)
}

// AfterHookFunc is a function adapter for AfterHook.
type AfterHookFunc func(ctx context.Context, req *Request)

// AfterNavigate implements AfterHook.
func (f AfterHookFunc) AfterNavigate(ctx context.Context, req *Request) {
	f(ctx, req)
}

// ComposeHooks runs hooks in order with final at the end of the chain.
func ComposeHooks(ctx context.Context, req *Request, hooks []Hook, final func() error) error {
	if len(hooks) == 0 {
		return final()
	}

	chain := final
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		next := chain
		chain = func() error {
			return h.BeforeNavigate(ctx, req, next)
		}
	}
	return chain()
}

// Chain combines hooks into one, run in order.
func Chain(hooks ...Hook) Hook {
	return HookFunc(func(ctx context.Context, req *Request, next func() error) error {
		return ComposeHooks(ctx, req, hooks, next)
	})
}

// Skip bypasses h when condition holds.
func Skip(condition func(req *Request) bool, h Hook) Hook {
	return HookFunc(func(ctx context.Context, req *Request, next func() error) error {
		if condition(req) {
			return next()
		}
		return h.BeforeNavigate(ctx, req, next)
	})
}

// Only runs h when condition holds.
func Only(condition func(req *Request) bool, h Hook) Hook {
	return HookFunc(func(ctx context.Context, req *Request, next func() error) error {
		if !condition(req) {
			return next()
		}
		return h.BeforeNavigate(ctx, req, next)
	})
}

// TitleHook sets the document title to "{title} - {appName}" for routes that
// declare a title. Routes without one leave the title unchanged.
func TitleHook(host Host, appName string) Hook {
	return HookFunc(func(ctx context.Context, req *Request, next func() error) error {
		if req.Route != nil && req.Route.Meta.Title != "" {
			host.SetTitle(FormatTitle(req.Route.Meta.Title, appName))
		}
		return next()
	})
}

// FormatTitle joins a route title and the application name.
func FormatTitle(title, appName string) string {
	if appName == "" {
		return title
	}
	return title + " - " + appName
}

// DescriptionHook publishes the route description on hosts that support it.
func DescriptionHook(host Host) Hook {
	setter, ok := host.(DescriptionSetter)
	return HookFunc(func(ctx context.Context, req *Request, next func() error) error {
		if ok && req.Route != nil && req.Route.Meta.Description != "" {
			setter.SetDescription(req.Route.Meta.Description)
		}
		return next()
	})
}
