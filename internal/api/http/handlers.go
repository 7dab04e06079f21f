package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/domain/resolver"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termrelay/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static/terminal.html
var static embed.FS

var terminalPage = template.Must(template.ParseFS(static, "static/terminal.html"))

// Version is reported by the root and health endpoints.
var Version = "0.1.0"

// Resolver answers dry-run target resolution.
type Resolver interface {
	Resolve(ctx context.Context, target string) (resolver.CommandSpec, error)
}

// Handlers contains the relay's plain HTTP handlers
type Handlers struct {
	resolver  Resolver
	metrics   *monitoring.Metrics
	startTime time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(res Resolver, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		resolver:  res,
		metrics:   metrics,
		startTime: time.Now(),
	}
}

// Register mounts the handlers on router.
func (h *Handlers) Register(router gin.IRoutes) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", h.Metrics())
	router.GET("/resolve/:target", h.Resolve)
	router.GET("/ui/terminal/:target", h.TerminalPage)
}

// Root identifies the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "termrelay",
		"version": Version,
	})
}

// Health handles liveness checks
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"version":        Version,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

// Metrics serves the Prometheus registry
func (h *Handlers) Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.metrics.Registry(), promhttp.HandlerOpts{}))
}

// Resolve reports what a join against target would launch, without
// launching it
func (h *Handlers) Resolve(c *gin.Context) {
	target := c.Param("target")

	spec, err := h.resolver.Resolve(c.Request.Context(), target)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, resolver.ErrMissingBinary) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"target": target, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target": target,
		"path":   spec.Path,
		"args":   spec.Args,
		"dir":    spec.Dir,
	})
}

// TerminalPage serves the browser terminal for target
func (h *Handlers) TerminalPage(c *gin.Context) {
	target := c.Param("target")
	if err := utils.ValidateTargetName(target); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	err := terminalPage.Execute(&buf, gin.H{
		"Target": target,
		"Path":   "/terminal/" + target,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
