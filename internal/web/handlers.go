package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sector-insights/internal/api"
	"sector-insights/internal/logger"
	"sector-insights/internal/selection"
	"sector-insights/internal/types"
)

// Runner produces the insight report for a symbol
type Runner interface {
	Run(ctx context.Context, symbol string) (*types.RunReport, error)
}

// Handlers holds the request handlers
type Handlers struct {
	flow   *selection.Flow
	runner Runner
}

// NewHandlers creates the handlers
func NewHandlers(flow *selection.Flow, runner Runner) *Handlers {
	return &Handlers{flow: flow, runner: runner}
}

type pageData struct {
	Subsectors []string
	Subsector  string
	Companies  []selection.Option
	Company    string
	Report     *types.RunReport
	Error      string
}

// InsightsRequest is the sidebar form
type InsightsRequest struct {
	Subsector string `form:"subsector" binding:"required"`
	Company   string `form:"company" binding:"required"`
}

// HealthCheck reports liveness
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Index renders the sidebar. The first sub-sector is selected by default.
func (h *Handlers) Index(c *gin.Context) {
	page, err := h.sidebar(c.Request.Context(), c.Query("subsector"))
	if err != nil {
		h.renderError(c, page, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", page)
}

// Insights completes the selection and renders the four panels
func (h *Handlers) Insights(c *gin.Context) {
	var req InsightsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "index.html", &pageData{Error: "subsector and company are required"})
		return
	}

	ctx := c.Request.Context()
	page, err := h.sidebar(ctx, req.Subsector)
	if err != nil {
		h.renderError(c, page, err)
		return
	}
	page.Company = req.Company

	symbol, err := h.flow.Choose(ctx, req.Subsector, req.Company)
	if err != nil {
		h.renderError(c, page, err)
		return
	}

	report, err := h.runner.Run(ctx, symbol)
	page.Report = report
	if err != nil {
		h.renderError(c, page, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", page)
}

func (h *Handlers) sidebar(ctx context.Context, subsector string) (*pageData, error) {
	page := &pageData{Subsector: subsector}
	subsectors, err := h.flow.Subsectors(ctx)
	if err != nil {
		return page, err
	}
	page.Subsectors = subsectors
	if page.Subsector == "" && len(subsectors) > 0 {
		page.Subsector = subsectors[0]
	}
	if page.Subsector == "" {
		return page, nil
	}

	page.Companies, err = h.flow.Companies(ctx, page.Subsector)
	return page, err
}

func (h *Handlers) renderError(c *gin.Context, page *pageData, err error) {
	logger.ErrorWithErr(c.Request.Context(), "Dashboard request failed", err, "path", c.FullPath())
	page.Error = err.Error()
	c.HTML(statusFor(err), "index.html", page)
}

// GetSubsectors lists sub-sectors
func (h *Handlers) GetSubsectors(c *gin.Context) {
	subsectors, err := h.flow.Subsectors(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": subsectors})
}

// GetCompanies lists the companies of the sub_sector query parameter
func (h *Handlers) GetCompanies(c *gin.Context) {
	subsector := c.Query("sub_sector")
	if subsector == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sub_sector parameter is required"})
		return
	}
	opts, err := h.flow.Companies(c.Request.Context(), subsector)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": opts})
}

// GetInsights runs the panels for a symbol and returns the report
func (h *Handlers) GetInsights(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	report, err := h.runner.Run(c.Request.Context(), symbol)
	if err != nil {
		if report == nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(statusFor(err), report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// statusFor maps an error to the response status: upstream failures are 502,
// a company outside the chosen sub-sector is 400
func statusFor(err error) int {
	var httpErr *api.HTTPError
	switch {
	case errors.Is(err, selection.ErrUnknownCompany):
		return http.StatusBadRequest
	case errors.As(err, &httpErr):
		if httpErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
