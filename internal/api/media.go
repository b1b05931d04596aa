package api

import (
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"github.com/pipewatch/pipewatch-go/internal/workflow"
)

type mediaRequest struct {
	MediaType    string `json:"media_type"`
	OriginalName string `json:"original_name"`
	FilePath     string `json:"file_path"`
	Description  string `json:"description"`
	IsBefore     bool   `json:"is_before"`
}

// ListMedia returns the media attached to an inspection.
func (c *Controller) ListMedia(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	if _, err := c.DS.GetInspection(id); err != nil {
		return c.HandleError(ctx, err)
	}
	items, err := c.DS.MediaForInspection(id)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, items)
}

// RegisterMedia attaches a media item to an inspection. Items default to
// photo and are tagged before or after repair, the after tag is what the
// approval evidence gate counts.
func (c *Controller) RegisterMedia(ctx echo.Context) error {
	role := c.roles.Resolve(ctx)
	if role != datastore.RoleAdmin && role != datastore.RoleInspector {
		return c.HandleError(ctx, &workflow.AuthorizationError{Role: role, Operation: "register media"})
	}

	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	if _, err := c.DS.GetInspection(id); err != nil {
		return c.HandleError(ctx, err)
	}

	var req mediaRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	mediaType := datastore.MediaPhoto
	if req.MediaType != "" {
		mediaType = datastore.MediaType(req.MediaType)
		if mediaType != datastore.MediaPhoto && mediaType != datastore.MediaVideo {
			return c.HandleError(ctx, errors.Newf("unknown media type %q", req.MediaType).
				Component("api").
				Category(errors.CategoryValidation).
				Build())
		}
	}

	item := &datastore.MediaItem{
		InspectionID: id,
		MediaType:    mediaType,
		Filename:     uuid.New().String() + path.Ext(req.OriginalName),
		OriginalName: req.OriginalName,
		FilePath:     req.FilePath,
		Description:  req.Description,
		IsBefore:     req.IsBefore,
		UploadedAt:   time.Now(),
	}
	if err := c.DS.SaveMediaItem(item); err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, item)
}

// DeleteMedia removes a media item. Removing after-repair evidence does not
// touch work orders that were already approved on the strength of it.
func (c *Controller) DeleteMedia(ctx echo.Context) error {
	role := c.roles.Resolve(ctx)
	if role != datastore.RoleAdmin && role != datastore.RoleInspector {
		return c.HandleError(ctx, &workflow.AuthorizationError{Role: role, Operation: "delete media"})
	}

	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	if _, err := c.DS.GetMediaItem(id); err != nil {
		return c.HandleError(ctx, err)
	}
	if err := c.DS.DeleteMediaItem(id); err != nil {
		return c.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// EvidenceStatus reports whether an inspection carries the after-repair
// evidence required to submit its work orders for approval.
func (c *Controller) EvidenceStatus(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	if _, err := c.DS.GetInspection(id); err != nil {
		return c.HandleError(ctx, err)
	}

	items, err := c.DS.MediaForInspection(id)
	if err != nil {
		return c.HandleError(ctx, err)
	}
	before, after := 0, 0
	for _, item := range items {
		if item.IsBefore {
			before++
		} else {
			after++
		}
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"inspection_id":      id,
		"before_count":       before,
		"after_count":        after,
		"has_after_evidence": after > 0,
	})
}
