package dev

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/waypoint/internal/build"
	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/host"
	waypointmw "github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Internal endpoints.
const (
	HostPath     = "/__waypoint/host"
	NavigatePath = "/__waypoint/navigate"
	BackPath     = "/__waypoint/back"
	ForwardPath  = "/__waypoint/forward"
	RoutesPath   = "/__waypoint/routes"
	MetricsPath  = "/metrics"
)

// DefaultFileCacheSize is the number of output files kept in memory.
const DefaultFileCacheSize = 512

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Registry receives navigation metrics. A new registry is created when
	// nil.
	Registry *prometheus.Registry

	// FileCacheSize bounds the in-memory output file cache.
	FileCacheSize int

	// OnBuildStart is called when a build starts.
	OnBuildStart func()

	// OnBuildComplete is called when a build completes.
	OnBuildComplete func(result *build.Result, err error)

	// OnReload is called when browsers are reloaded.
	OnReload func(clients int)
}

// Server is the development server.
type Server struct {
	options      ServerOptions
	logger       *slog.Logger
	reloadServer *ReloadServer
	host         *host.Broadcast
	preview      *Preview
	registry     *prometheus.Registry
	files        *lru.Cache[string, []byte]
	handler      http.Handler
	changeCh     chan []Change

	mu         sync.Mutex
	config     *config.Config
	watcher    *Watcher
	httpServer *http.Server
	running    bool

	buildMu sync.Mutex
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) (*Server, error) {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := options.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	size := options.FileCacheSize
	if size == 0 {
		size = DefaultFileCacheSize
	}
	files, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}

	broadcast := host.NewBroadcast(logger)
	metrics := waypointmw.NewMetrics(waypointmw.WithRegistry(registry))

	s := &Server{
		options:  options,
		logger:   logger.With("component", "dev"),
		host:     broadcast,
		preview:  NewPreview(cfg.Name, broadcast, metrics, logger),
		registry: registry,
		files:    files,
		config:   cfg,
		changeCh: make(chan []Change, 16),
	}
	if cfg.Dev.HotReload {
		s.reloadServer = NewReloadServer(logger)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving the preview.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Preview returns the navigation preview.
func (s *Server) Preview() *Preview {
	return s.preview
}

// Host returns the broadcast host browsers subscribe to.
func (s *Server) Host() *host.Broadcast {
	return s.host
}

func (s *Server) cfg() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Server) routes() http.Handler {
	cfg := s.cfg()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	if cfg.Dev.CORS {
		r.Use(cors)
	}

	if s.reloadEnabled() {
		r.Get(ReloadPath, s.reloadServer.HandleWebSocket)
	}
	r.Get(HostPath, s.host.HandleWebSocket)
	r.Post(NavigatePath, s.handleNavigate)
	r.Post(BackPath, s.handleTraverse(s.preview.Back))
	r.Post(ForwardPath, s.handleTraverse(s.preview.Forward))
	r.Get(RoutesPath, s.handleRoutes)
	r.Handle(MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	base := cfg.BasePath()
	if base != "/" {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, base, http.StatusFound)
		})
	}
	r.Get(assetsBase(base)+"*", s.handleStatic)
	return r
}

// assetsBase returns the path prefix files are served under.
func assetsBase(base string) string {
	if strings.Contains(base, "://") {
		return "/"
	}
	return strings.TrimRight(base, "/") + "/"
}

// Rebuild runs a build and loads the result into the preview. Build
// errors are shown in connected browsers.
func (s *Server) Rebuild(ctx context.Context) (*build.Result, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	cfg := s.cfg()
	if s.options.OnBuildStart != nil {
		s.options.OnBuildStart()
	}

	s.logger.Info("building")
	result, err := build.New(cfg, build.Options{Logger: s.logger}).Build(ctx)
	if err == nil {
		var table *config.RouteTable
		table, err = config.LoadRouteTable(cfg.RoutesPath())
		if err == nil {
			err = s.preview.Load(ctx, result.Output, table)
		}
	}
	if s.options.OnBuildComplete != nil {
		s.options.OnBuildComplete(result, err)
	}
	if err != nil {
		s.logger.Error("build failed", "error", err)
		s.notifyError(overlayText(err))
		return nil, err
	}

	s.files.Purge()
	s.logger.Info("built",
		"duration", result.Duration.Round(time.Millisecond),
		"units", len(result.Plan.Units),
		"assets", len(result.Plan.Assets))
	s.clearReloadError()
	return result, nil
}

// Start builds once, then serves and rebuilds on change until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	cfg := s.config
	s.mu.Unlock()

	// A failed first build is shown in the browser; keep serving.
	s.Rebuild(ctx)

	watcher := NewWatcher(WatcherConfig{
		Paths:    CollectWatchPaths(cfg),
		Ignore:   append(append([]string(nil), DefaultIgnore...), cfg.Dev.Ignore...),
		Debounce: 100 * time.Millisecond,
		Tables:   []string{cfg.RoutesPath(), cfg.ModulesPath()},
		Logger:   s.logger,
	})
	watcher.OnChange(func(changes []Change) {
		select {
		case s.changeCh <- changes:
		default:
		}
	})

	s.mu.Lock()
	s.watcher = watcher
	s.httpServer = &http.Server{
		Addr:    cfg.DevAddress(),
		Handler: s.handler,
	}
	srv := s.httpServer
	s.mu.Unlock()

	go func() {
		if err := watcher.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
			s.logger.Warn("watcher stopped", "error", err)
		}
	}()
	go s.processChanges(ctx)

	s.logger.Info("server running", "url", cfg.DevURL())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.reloadServer != nil {
		s.reloadServer.Close()
	}
	s.host.Close()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// processChanges serializes change handling and coalesces bursts.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case changes := <-s.changeCh:
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next...)
				default:
					draining = false
				}
			}
			s.handleChanges(ctx, changes)
		}
	}
}

// handleChanges reloads the configuration if waypoint.json changed, then
// rebuilds and reloads browsers.
func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}

	configChanged := false
	for _, change := range changes {
		s.logger.Info("changed", "path", change.Path, "type", change.Type.String())
		if change.Type == ChangeConfig {
			configChanged = true
		}
	}

	if configChanged {
		cfg, err := config.Load(s.cfg().Dir())
		if err != nil {
			s.logger.Error("config reload failed", "error", err)
			s.notifyError(overlayText(err))
			return
		}
		s.mu.Lock()
		s.config = cfg
		s.mu.Unlock()
	}

	if _, err := s.Rebuild(ctx); err != nil {
		return
	}
	s.notifyReload()
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg()
	rel := strings.TrimPrefix(r.URL.Path, assetsBase(cfg.BasePath()))
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")

	if rel == "" || rel == "index.html" {
		s.serveShell(w, r)
		return
	}

	data, err := s.readOutput(rel)
	if err != nil {
		if os.IsNotExist(err) && path.Ext(rel) == "" {
			// History fallback: client-side routes get the shell.
			s.serveShell(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}

	if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (s *Server) serveShell(w http.ResponseWriter, r *http.Request) {
	data, err := s.readOutput("index.html")
	if err != nil {
		http.Error(w, "no build output yet", http.StatusServiceUnavailable)
		return
	}
	html := string(data)
	if s.reloadEnabled() {
		html = injectScript(html, DevClientScript)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write([]byte(html))
}

// readOutput returns a file from the build output through the cache.
func (s *Server) readOutput(rel string) ([]byte, error) {
	if data, ok := s.files.Get(rel); ok {
		return data, nil
	}
	data, err := os.ReadFile(filepath.Join(s.cfg().OutputPath(), filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	s.files.Add(rel, data)
	return data, nil
}

// Cached reports whether rel is in the output file cache.
func (s *Server) Cached(rel string) bool {
	return s.files.Contains(rel)
}

func injectScript(html, script string) string {
	if idx := strings.LastIndex(html, "</body>"); idx != -1 {
		return html[:idx] + script + html[idx:]
	}
	if idx := strings.LastIndex(html, "</html>"); idx != -1 {
		return html[:idx] + script + html[idx:]
	}
	return html + script
}

type navigateRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.Path == "" {
		req.Path = r.URL.Query().Get("path")
	}
	res, err := s.preview.Navigate(r.Context(), req.Path)
	writeNavigation(w, res, err)
}

func (s *Server) handleTraverse(fn func(context.Context) (*NavigationResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r.Context())
		writeNavigation(w, res, err)
	}
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.preview.Routes())
}

func writeNavigation(w http.ResponseWriter, res *NavigationResult, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case stderrors.Is(err, ErrNotLoaded):
		writeJSONError(w, http.StatusServiceUnavailable, err)
	case stderrors.Is(err, router.ErrNoHistory):
		writeJSONError(w, http.StatusConflict, err)
	case stderrors.Is(err, router.ErrModuleResolution):
		writeJSONError(w, http.StatusBadGateway, err)
	default:
		writeJSONError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// overlayText formats err for the browser error overlay.
func overlayText(err error) string {
	we := errors.FromError(err, "E142")
	var b strings.Builder
	b.WriteString(we.FormatCompact())
	if we.Detail != "" {
		b.WriteString("\n\n")
		b.WriteString(we.Detail)
	}
	if we.Suggestion != "" {
		b.WriteString("\n\n")
		b.WriteString(we.Suggestion)
	}
	return b.String()
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) reloadEnabled() bool {
	return s.reloadServer != nil
}

func (s *Server) notifyReload() {
	if !s.reloadEnabled() {
		s.logger.Info("rebuild complete (hot reload disabled)")
		return
	}

	s.reloadServer.NotifyReload()
	clients := s.reloadServer.ClientCount()
	if s.options.OnReload != nil {
		s.options.OnReload(clients)
	}
	s.logger.Info("reloaded browsers", "clients", clients)
}

func (s *Server) notifyError(errMsg string) {
	if !s.reloadEnabled() {
		return
	}
	s.reloadServer.NotifyError(errMsg)
}

func (s *Server) clearReloadError() {
	if !s.reloadEnabled() {
		return
	}
	s.reloadServer.ClearError()
}
