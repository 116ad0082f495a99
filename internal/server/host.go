package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Host is the outer HTTP server of `devterm serve`: Echo mounts the gin
// control API under its base path and, optionally, a metrics handler.
type Host struct {
	e    *echo.Echo
	addr string
	tls  *tls.Config
}

// NewHost mounts api under r's base path. metrics may be nil.
func NewHost(addr string, r *Router, metrics http.Handler) *Host {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	h := r.Handler()
	base := r.BasePath()
	if base == "" {
		e.Any("/*", echo.WrapHandler(h))
	} else {
		e.Any(base, echo.WrapHandler(h))
		e.Any(base+"/*", echo.WrapHandler(h))
	}
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})
	return &Host{e: e, addr: addr}
}

// WithTLS serves HTTPS with c. A nil config keeps plain HTTP.
func (h *Host) WithTLS(c *tls.Config) *Host {
	h.tls = c
	return h
}

// Scheme is "https" when TLS is configured.
func (h *Host) Scheme() string {
	if h.tls != nil {
		return "https"
	}
	return "http"
}

// Handler exposes the Echo instance for tests and embedding.
func (h *Host) Handler() http.Handler { return h.e }

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (h *Host) Start() error {
	var err error
	if h.tls != nil {
		s := h.e.TLSServer
		s.Addr = h.addr
		s.TLSConfig = h.tls
		err = h.e.StartServer(s)
	} else {
		err = h.e.Start(h.addr)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *Host) Shutdown(ctx context.Context) error { return h.e.Shutdown(ctx) }
