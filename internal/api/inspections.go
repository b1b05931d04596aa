package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pipewatch/pipewatch-go/internal/classifier"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"github.com/pipewatch/pipewatch-go/internal/workflow"
)

// inspectionRequest carries the writable fields of a diagnostic record.
type inspectionRequest struct {
	DiagID            uint     `json:"diag_id"`
	ObjectID          uint     `json:"object_id"`
	Method            string   `json:"method"`
	Date              string   `json:"date"`
	Temperature       *float64 `json:"temperature"`
	Humidity          *float64 `json:"humidity"`
	Illumination      *float64 `json:"illumination"`
	DefectFound       bool     `json:"defect_found"`
	DefectDescription string   `json:"defect_description"`
	QualityGrade      *string  `json:"quality_grade"`
	DefectDepth       *float64 `json:"defect_depth"`
	DefectLength      *float64 `json:"defect_length"`
	DefectWidth       *float64 `json:"defect_width"`
}

func pathID(ctx echo.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return 0, errors.Newf("invalid id %q", ctx.Param("id")).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(id), nil
}

// ListInspections returns diagnostic records matching the query filters.
func (c *Controller) ListInspections(ctx echo.Context) error {
	filter := &datastore.InspectionFilter{Limit: 100}

	if v := ctx.QueryParam("method"); v != "" {
		m := datastore.InspectionMethod(v)
		if !m.Valid() {
			return c.HandleError(ctx, errors.Newf("unknown inspection method %q", v).
				Component("api").
				Category(errors.CategoryValidation).
				Build())
		}
		filter.Method = m
	}
	if v := ctx.QueryParam("risk_label"); v != "" {
		filter.RiskLabel = datastore.RiskLabel(v)
	}
	if v := ctx.QueryParam("defect_found"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			filter.DefectFound = &b
		}
	}
	if v := ctx.QueryParam("object_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filter.ObjectID = uint(id)
		}
	}
	if v := ctx.QueryParam("date_from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateFrom = &t
		}
	}
	if v := ctx.QueryParam("date_to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.DateTo = &t
		}
	}
	if v := ctx.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := ctx.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	inspections, err := c.DS.SearchInspections(filter)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, inspections)
}

// GetInspection returns a single diagnostic record by internal ID.
func (c *Controller) GetInspection(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	inspection, err := c.DS.GetInspection(id)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, inspection)
}

// CreateInspection stores a new diagnostic record and classifies it when a
// defect is reported. A record that cannot be classified is still stored,
// with its risk fields left empty.
func (c *Controller) CreateInspection(ctx echo.Context) error {
	role := c.roles.Resolve(ctx)
	if role != datastore.RoleAdmin && role != datastore.RoleInspector {
		return c.HandleError(ctx, &workflow.AuthorizationError{Role: role, Operation: "create inspection"})
	}

	var req inspectionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	inspection, err := c.inspectionFromRequest(&req)
	if err != nil {
		return c.HandleError(ctx, err)
	}

	if existing, err := c.DS.GetInspectionByDiagID(inspection.DiagID); err == nil && existing != nil {
		return c.HandleError(ctx, errors.Newf("diagnostic %d already exists", inspection.DiagID).
			Component("api").
			Category(errors.CategoryConflict).
			Build())
	}

	if err := c.classify(inspection); err != nil {
		return c.HandleError(ctx, err)
	}
	if err := c.DS.SaveInspection(inspection); err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, inspection)
}

// UpdateInspection edits a diagnostic record and re-runs classification so
// the stored risk label tracks the current geometry and quality grade.
func (c *Controller) UpdateInspection(ctx echo.Context) error {
	role := c.roles.Resolve(ctx)
	if role != datastore.RoleAdmin && role != datastore.RoleInspector {
		return c.HandleError(ctx, &workflow.AuthorizationError{Role: role, Operation: "update inspection"})
	}

	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	existing, err := c.DS.GetInspection(id)
	if err != nil {
		return c.HandleError(ctx, err)
	}

	var req inspectionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	updated, err := c.inspectionFromRequest(&req)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	updated.ID = existing.ID
	updated.DiagID = existing.DiagID
	updated.CreatedAt = existing.CreatedAt

	// A record edited to report no defect loses its risk fields, otherwise
	// they are recomputed from the edited values.
	if err := c.classify(updated); err != nil {
		return c.HandleError(ctx, err)
	}
	if err := c.DS.UpdateInspection(updated); err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, updated)
}

// classify runs the classifier and tolerates records that lack the inputs,
// those stay stored without a risk label.
func (c *Controller) classify(inspection *datastore.Inspection) error {
	err := c.Classifier.Classify(inspection)
	if err == nil {
		return nil
	}
	var invalid *classifier.InvalidInputError
	if errors.As(err, &invalid) {
		c.apiLogger.Warn("Inspection stored without classification",
			"diag_id", inspection.DiagID, "missing", invalid.Missing)
		return nil
	}
	return err
}

func (c *Controller) inspectionFromRequest(req *inspectionRequest) (*datastore.Inspection, error) {
	method := datastore.InspectionMethod(req.Method)
	if !method.Valid() {
		return nil, errors.Newf("unknown inspection method %q", req.Method).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if req.ObjectID == 0 {
		return nil, errors.Newf("object_id is required").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if _, err := c.DS.GetObject(req.ObjectID); err != nil {
		return nil, err
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, req.Date)
		}
		if err != nil {
			return nil, errors.Newf("invalid date %q", req.Date).
				Component("api").
				Category(errors.CategoryValidation).
				Build()
		}
		date = parsed
	}

	inspection := &datastore.Inspection{
		DiagID:            req.DiagID,
		ObjectID:          req.ObjectID,
		Method:            method,
		Date:              date,
		Temperature:       req.Temperature,
		Humidity:          req.Humidity,
		Illumination:      req.Illumination,
		DefectFound:       req.DefectFound,
		DefectDescription: req.DefectDescription,
		DefectDepth:       req.DefectDepth,
		DefectLength:      req.DefectLength,
		DefectWidth:       req.DefectWidth,
	}
	if req.QualityGrade != nil {
		grade := datastore.QualityGrade(*req.QualityGrade)
		if grade.Ordinal() == 0 {
			return nil, errors.Newf("unknown quality grade %q", *req.QualityGrade).
				Component("api").
				Category(errors.CategoryValidation).
				Build()
		}
		inspection.QualityGrade = &grade
	}
	return inspection, nil
}
