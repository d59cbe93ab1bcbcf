// Package router implements client-side navigation over lazily loaded views.
//
// The router provides:
//   - A route registry with exact-match lookup and a declared fallback
//   - A deferred module loader that resolves each view once (single-flight)
//   - A navigation engine with ordered lifecycle hooks
//   - Scroll restoration and a back/forward history
//
// # Routes
//
// Routes are registered once at startup:
//
//	r := router.NewRegistry()
//	r.MustRegister(router.Descriptor{
//	    Path:   "/",
//	    Name:   "home",
//	    Loader: homeLoader,
//	    Meta:   router.Meta{Title: "Home"},
//	})
//	r.MustRegister(router.Descriptor{
//	    Path:     "/:pathMatch(.*)*",
//	    Name:     "not-found",
//	    Redirect: "/",
//	})
//
// Any path that does not equal a registered pattern selects the fallback,
// which redirects to "/". There is no distinct not-found view.
//
// # Navigation
//
//	e := router.NewEngine(r,
//	    router.WithHost(h),
//	    router.WithRenderer(h),
//	    router.WithHooks(router.TitleHook(h, "Deep Reading Analyst")),
//	)
//	res, err := e.Navigate(ctx, "/quick-start")
//
// A navigation moves through Matching, Resolving, Hooking and Committing
// before returning to Idle. Starting a new navigation supersedes one that has
// not committed yet; the superseded one returns StatusSuperseded and never
// mounts its view.
//
// # Hooks
//
// Hooks run in registration order. Each hook calls next to proceed, returns
// nil without calling next to abort, or returns Redirect(path) to send the
// navigation elsewhere:
//
//	guard := router.HookFunc(func(ctx context.Context, req *router.Request, next func() error) error {
//	    if req.TargetPath == "/feedback" && !loggedIn() {
//	        return router.Redirect("/")
//	    }
//	    return next()
//	})
package router
