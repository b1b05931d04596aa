package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/pipewatch/pipewatch-go/internal/datastore"
)

const dashboardStatsKey = "dashboard:stats"

// DashboardStats returns the aggregate counters for the dashboard. The
// aggregation crosses every table, so results are cached for the configured
// TTL rather than recomputed per request.
func (c *Controller) DashboardStats(ctx echo.Context) error {
	if cached, found := c.dashboardCache.Get(dashboardStatsKey); found {
		return ctx.JSON(http.StatusOK, cached.(*datastore.DashboardStats))
	}

	stats, err := c.DS.DashboardStats()
	if err != nil {
		return c.HandleError(ctx, err)
	}
	c.dashboardCache.Set(dashboardStatsKey, stats, cache.DefaultExpiration)
	return ctx.JSON(http.StatusOK, stats)
}
