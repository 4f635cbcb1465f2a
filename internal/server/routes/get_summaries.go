package routes

import (
	"net/http"

	"github.com/docgraph/docgraph/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetSummariesHandler returns the persisted per-document summaries.
func GetSummariesHandler(c echo.Context) error {
	storage := c.(*middleware.AppContext).App.Storage
	summaries, err := storage.LoadSummaries(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summaries)
}
