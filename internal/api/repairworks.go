package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"github.com/pipewatch/pipewatch-go/internal/workflow"
)

type repairWorkRequest struct {
	InspectionID uint    `json:"inspection_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Priority     string  `json:"priority"`
	PlannedDate  *string `json:"planned_date"`
	AssignedTo   *uint   `json:"assigned_to"`
	Notes        string  `json:"notes"`
}

// repairWorkUpdateRequest uses pointer fields so an absent field is left
// unchanged while an empty value is an explicit edit.
type repairWorkUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	PlannedDate *string `json:"planned_date"`
	AssignedTo  *uint   `json:"assigned_to"`
	Notes       *string `json:"notes"`
}

type transitionRequest struct {
	Target string `json:"target"`
}

// CreateRepairWork opens a new work order against an inspection.
func (c *Controller) CreateRepairWork(ctx echo.Context) error {
	var req repairWorkRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	create := &workflow.CreateRequest{
		InspectionID: req.InspectionID,
		Title:        req.Title,
		Description:  req.Description,
		AssignedTo:   req.AssignedTo,
		Notes:        req.Notes,
	}
	if req.Priority != "" {
		create.Priority = datastore.WorkPriority(req.Priority)
	}
	if req.PlannedDate != nil && *req.PlannedDate != "" {
		t, err := time.Parse("2006-01-02", *req.PlannedDate)
		if err != nil {
			return c.HandleError(ctx, errors.Newf("invalid planned_date %q", *req.PlannedDate).
				Component("api").
				Category(errors.CategoryValidation).
				Build())
		}
		create.PlannedDate = &t
	}

	work, err := c.Workflow.CreateRepairWork(create, c.roles.Resolve(ctx))
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, work)
}

// ListRepairWorks returns work orders matching the query filters.
func (c *Controller) ListRepairWorks(ctx echo.Context) error {
	filter := &datastore.RepairWorkFilter{Limit: 100}

	if v := ctx.QueryParam("status"); v != "" {
		filter.Status = datastore.WorkStatus(v)
	}
	if v := ctx.QueryParam("priority"); v != "" {
		filter.Priority = datastore.WorkPriority(v)
	}
	if v := ctx.QueryParam("assigned_to"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			u := uint(id)
			filter.AssignedTo = &u
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

	works, err := c.DS.SearchRepairWorks(filter)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, works)
}

// GetRepairWork returns a single work order with its allowed next statuses,
// so a client can render only the transitions the current state permits.
func (c *Controller) GetRepairWork(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	work, err := c.DS.GetRepairWork(id)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"work":            work,
		"allowed_targets": workflow.AllowedTargets(work.Status),
	})
}

// UpdateRepairWork edits the descriptive fields of a work order. Status is
// not editable here, it moves only through TransitionRepairWork.
func (c *Controller) UpdateRepairWork(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}

	var req repairWorkUpdateRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	update := &workflow.UpdateRequest{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Notes:       req.Notes,
	}
	if req.Priority != nil {
		priority := datastore.WorkPriority(*req.Priority)
		update.Priority = &priority
	}
	if req.PlannedDate != nil && *req.PlannedDate != "" {
		t, err := time.Parse("2006-01-02", *req.PlannedDate)
		if err != nil {
			return c.HandleError(ctx, errors.Newf("invalid planned_date %q", *req.PlannedDate).
				Component("api").
				Category(errors.CategoryValidation).
				Build())
		}
		update.PlannedDate = &t
	}

	work, err := c.Workflow.UpdateRepairWork(id, update, c.roles.Resolve(ctx))
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, work)
}

// TransitionRepairWork moves a work order to the requested status.
func (c *Controller) TransitionRepairWork(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}

	var req transitionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}
	target := datastore.WorkStatus(req.Target)

	work, err := c.Workflow.Transition(id, target, c.roles.Resolve(ctx))
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, work)
}

// DeleteRepairWork removes a work order.
func (c *Controller) DeleteRepairWork(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	if err := c.Workflow.DeleteRepairWork(id, c.roles.Resolve(ctx)); err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// RepairWorksForInspection lists the work orders opened for one inspection.
func (c *Controller) RepairWorksForInspection(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	if _, err := c.DS.GetInspection(id); err != nil {
		return c.HandleError(ctx, err)
	}
	works, err := c.DS.RepairWorksForInspection(id)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, works)
}
