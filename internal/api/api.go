// api.go: HTTP API controller wiring
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/pipewatch/pipewatch-go/internal/classifier"
	"github.com/pipewatch/pipewatch-go/internal/conf"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"github.com/pipewatch/pipewatch-go/internal/importer"
	"github.com/pipewatch/pipewatch-go/internal/logging"
	"github.com/pipewatch/pipewatch-go/internal/workflow"
)

// RoleResolver resolves the acting role for a request. Authentication
// internals live in an external collaborator, the core only consumes the
// resolved role.
type RoleResolver interface {
	Resolve(ctx echo.Context) datastore.ActorRole
}

// HeaderRoleResolver reads the role from a trusted reverse-proxy header.
type HeaderRoleResolver struct {
	Header string
}

// Resolve implements RoleResolver, defaulting to guest when the header is
// absent or unknown.
func (h *HeaderRoleResolver) Resolve(ctx echo.Context) datastore.ActorRole {
	switch datastore.ActorRole(ctx.Request().Header.Get(h.Header)) {
	case datastore.RoleAdmin:
		return datastore.RoleAdmin
	case datastore.RoleInspector:
		return datastore.RoleInspector
	case datastore.RoleAnalyst:
		return datastore.RoleAnalyst
	default:
		return datastore.RoleGuest
	}
}

// Controller manages the API routes and handlers
type Controller struct {
	Echo       *echo.Echo
	Group      *echo.Group
	DS         datastore.Interface
	Settings   *conf.Settings
	Workflow   *workflow.Service
	Classifier *classifier.Service
	Importer   *importer.Importer

	roles          RoleResolver
	dashboardCache *cache.Cache
	apiLogger      *slog.Logger
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithRoleResolver overrides the default header-based role resolver.
func WithRoleResolver(r RoleResolver) Option {
	return func(c *Controller) {
		c.roles = r
	}
}

// New creates the API controller and registers all routes.
func New(settings *conf.Settings, ds datastore.Interface, wf *workflow.Service, cls *classifier.Service, imp *importer.Importer, options ...Option) *Controller {
	cacheTTL := time.Duration(settings.Dashboard.CacheTTL) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Controller{
		Echo:           echo.New(),
		DS:             ds,
		Settings:       settings,
		Workflow:       wf,
		Classifier:     cls,
		Importer:       imp,
		roles:          &HeaderRoleResolver{Header: "X-Actor-Role"},
		dashboardCache: cache.New(cacheTTL, 2*cacheTTL),
		apiLogger:      logging.ForService("api"),
	}
	if c.apiLogger == nil {
		c.apiLogger = slog.Default()
	}

	for _, option := range options {
		option(c)
	}

	c.Echo.HideBanner = true
	c.Echo.Use(middleware.Recover())
	if settings.WebServer.Debug {
		c.Echo.Use(middleware.Logger())
	}

	c.Group = c.Echo.Group("/api/v1")
	c.initRoutes()

	return c
}

func (c *Controller) initRoutes() {
	g := c.Group

	// Inspections
	g.GET("/inspections", c.ListInspections)
	g.GET("/inspections/:id", c.GetInspection)
	g.POST("/inspections", c.CreateInspection)
	g.PUT("/inspections/:id", c.UpdateInspection)

	// Repair works
	g.POST("/repairworks", c.CreateRepairWork)
	g.GET("/repairworks", c.ListRepairWorks)
	g.GET("/repairworks/:id", c.GetRepairWork)
	g.PUT("/repairworks/:id", c.UpdateRepairWork)
	g.POST("/repairworks/:id/transition", c.TransitionRepairWork)
	g.DELETE("/repairworks/:id", c.DeleteRepairWork)
	g.GET("/inspections/:id/repairworks", c.RepairWorksForInspection)

	// Evidence media
	g.GET("/inspections/:id/media", c.ListMedia)
	g.POST("/inspections/:id/media", c.RegisterMedia)
	g.DELETE("/media/:id", c.DeleteMedia)
	g.GET("/inspections/:id/evidence", c.EvidenceStatus)

	// Import and dashboard
	g.POST("/import/csv", c.ImportCSV)
	g.GET("/dashboard/stats", c.DashboardStats)
}

// Start runs the HTTP server until it fails or is shut down.
func (c *Controller) Start() error {
	addr := fmt.Sprintf(":%s", c.Settings.WebServer.Port)
	c.apiLogger.Info("Starting API server", "addr", addr)
	return c.Echo.Start(addr)
}

// ErrorResponse is the wire shape of every API error.
type ErrorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError maps core errors onto HTTP status codes and a stable error
// code, keeping evidence and authorization failures distinguishable so the
// UI can message accurately.
func (c *Controller) HandleError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	code := "internal"

	var illegal *workflow.IllegalTransitionError
	var evidence *workflow.EvidenceRequiredError
	var authz *workflow.AuthorizationError
	var invalid *classifier.InvalidInputError
	var enhanced *errors.EnhancedError

	switch {
	case errors.As(err, &illegal):
		status, code = http.StatusConflict, "illegal_transition"
	case errors.As(err, &evidence):
		status, code = http.StatusConflict, "evidence_required"
	case errors.As(err, &authz):
		status, code = http.StatusForbidden, "forbidden"
	case errors.As(err, &invalid):
		status, code = http.StatusUnprocessableEntity, "invalid_input"
	case errors.As(err, &enhanced):
		switch enhanced.Category {
		case errors.CategoryNotFound:
			status, code = http.StatusNotFound, "not_found"
		case errors.CategoryValidation:
			status, code = http.StatusBadRequest, "validation"
		case errors.CategoryFileParsing:
			status, code = http.StatusBadRequest, "file_parsing"
		case errors.CategoryConflict:
			status, code = http.StatusConflict, "conflict"
		}
	}

	resp := ErrorResponse{
		Error:         err.Error(),
		Code:          code,
		CorrelationID: uuid.NewString(),
	}

	c.apiLogger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"code", code,
		"status", status,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"error", err)

	return ctx.JSON(status, resp)
}
