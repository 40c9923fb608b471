// Package web serves the dashboard: a sidebar with the selection flow and the
// insight panels of the chosen company.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sector-insights/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server wraps the gin router and the http server
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer creates a server listening on addr with all routes registered
func NewServer(addr string, h *Handlers) (*Server, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	// Narrative HTML comes from goldmark with raw HTML disabled and SVG from
	// the chart renderer, which escapes every text node.
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"safeSVG":  func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		router: router,
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.setupRoutes(h)
	return s, nil
}

func (s *Server) setupRoutes(h *Handlers) {
	s.router.GET("/health", h.HealthCheck)

	s.router.GET("/", h.Index)
	s.router.POST("/insights", h.Insights)

	api := s.router.Group("/api")
	{
		api.GET("/subsectors", h.GetSubsectors)
		api.GET("/companies", h.GetCompanies)
		api.GET("/insights/:symbol", h.GetInsights)
	}
}

// Handler exposes the router, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Dashboard server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down dashboard server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
