package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
	"github.com/pipewatch/pipewatch-go/internal/errors"
	"github.com/pipewatch/pipewatch-go/internal/workflow"
)

// ImportCSV accepts a multipart CSV upload and runs it through the batch
// importer. Row-level failures come back in the result rather than failing
// the request, a partially imported batch is still an imported batch.
func (c *Controller) ImportCSV(ctx echo.Context) error {
	role := c.roles.Resolve(ctx)
	if role != datastore.RoleAdmin && role != datastore.RoleInspector {
		return c.HandleError(ctx, &workflow.AuthorizationError{Role: role, Operation: "import csv"})
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return c.HandleError(ctx, errors.Newf("missing file upload").
			Component("api").
			Category(errors.CategoryValidation).
			Build())
	}

	src, err := file.Open()
	if err != nil {
		return c.HandleError(ctx, errors.New(err).
			Component("api").
			Category(errors.CategoryFileIO).
			Context("filename", file.Filename).
			Build())
	}
	defer src.Close()

	result, err := c.Importer.Import(src)
	if err != nil {
		return c.HandleError(ctx, err)
	}

	// Imports change the data behind the dashboard counters.
	c.dashboardCache.Delete(dashboardStatsKey)

	c.apiLogger.Info("CSV import finished",
		"filename", file.Filename,
		"total", result.TotalRows,
		"imported", result.ImportedRows,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))
	return ctx.JSON(http.StatusOK, result)
}
