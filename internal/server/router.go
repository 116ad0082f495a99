package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/devterm/internal/auth"
	"github.com/loykin/devterm/internal/history"
	mng "github.com/loykin/devterm/internal/manager"
)

// Router provides embeddable HTTP handlers for driving a Manager.
// Endpoints:
//   GET  {basePath}/commands        every registered command with its state
//   GET  {basePath}/running         the process table
//   GET  {basePath}/history         recent lifecycle events (query: limit=N)
//   POST {basePath}/start           query: name=...
//   POST {basePath}/stop            query: name=...
//   POST {basePath}/restart         query: name=...
//   POST {basePath}/start-all
//   POST {basePath}/stop-all
//   POST {basePath}/restart-all
//   POST {basePath}/refresh
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	mgr      *mng.Manager
	basePath string
	hist     history.Reader
	token    *auth.Token
	timeout  time.Duration
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/api" results in /api/start, /api/stop, /api/commands.
func NewRouter(mgr *mng.Manager, basePath string) *Router {
	return &Router{mgr: mgr, basePath: sanitizeBase(basePath), timeout: 30 * time.Second}
}

// WithHistory enables GET {basePath}/history.
func (r *Router) WithHistory(h history.Reader) *Router {
	r.hist = h
	return r
}

// WithAuth requires t on every endpoint. A nil or empty token disables the check.
func (r *Router) WithAuth(t *auth.Token) *Router {
	r.token = t
	return r
}

// BasePath returns the sanitized mount point.
func (r *Router) BasePath() string { return r.basePath }

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	if r.token.Enabled() {
		group.Use(r.token.GinAuth())
	}
	group.GET("/commands", r.handleCommands)
	group.GET("/running", r.handleRunning)
	group.GET("/history", r.handleHistory)
	group.POST("/start", r.named(r.mgr.Start))
	group.POST("/stop", r.named(r.mgr.Stop))
	group.POST("/restart", r.named(r.mgr.Restart))
	group.POST("/start-all", r.batch(r.mgr.StartAll))
	group.POST("/stop-all", r.batch(r.mgr.StopAll))
	group.POST("/restart-all", r.batch(r.mgr.RestartAll))
	group.POST("/refresh", r.handleRefresh)
	return g
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// refreshContext bounds dynamic command evaluation. Lifecycle handlers get
// no deadline; the manager does not let cancellation reach a sent launch.
func (r *Router) refreshContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), r.timeout)
}

func (r *Router) named(op func(context.Context, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Query("name")
		if !isValidName(name) {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required (printable, up to 256 bytes)"})
			return
		}
		if err := op(c.Request.Context(), name); err != nil {
			writeError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, okResp{OK: true})
	}
}

func (r *Router) batch(op func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := op(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, okResp{OK: true})
	}
}

func (r *Router) handleCommands(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.mgr.Statuses(c.Request.Context()))
}

func (r *Router) handleRunning(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.mgr.Running())
}

func (r *Router) handleRefresh(c *gin.Context) {
	ctx, cancel := r.refreshContext(c)
	defer cancel()
	r.mgr.Refresh(ctx)
	writeJSON(c, http.StatusOK, gin.H{"commands": r.mgr.Names()})
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.hist == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "history is not configured"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 1000 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}
	evts, err := r.hist.Recent(c.Request.Context(), limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if evts == nil {
		evts = []history.Event{}
	}
	writeJSON(c, http.StatusOK, evts)
}

// statusFor maps manager error kinds to HTTP codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, mng.ErrNotConfigured):
		return http.StatusNotFound, "not_configured"
	case errors.Is(err, mng.ErrAlreadyRunning):
		return http.StatusConflict, "already_running"
	case errors.Is(err, mng.ErrNotRunning):
		return http.StatusConflict, "not_running"
	case errors.Is(err, mng.ErrInvalidConfig):
		return http.StatusUnprocessableEntity, "invalid_config"
	case errors.Is(err, mng.ErrLaunchFailure):
		return http.StatusBadGateway, "launch_failure"
	case errors.Is(err, mng.ErrTerminationFailure):
		return http.StatusBadGateway, "termination_failure"
	case errors.Is(err, mng.ErrUnsupportedPlatform):
		return http.StatusNotImplemented, "unsupported_platform"
	default:
		return http.StatusInternalServerError, ""
	}
}

func writeError(c *gin.Context, err error) {
	code, kind := statusFor(err)
	writeJSON(c, code, errorResp{Error: err.Error(), Kind: kind})
}
