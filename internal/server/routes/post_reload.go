package routes

import (
	"net/http"

	"github.com/docgraph/docgraph/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// ReloadHandler re-reads the graph, the fragment map and the index.
func ReloadHandler(c echo.Context) error {
	type reloadResponse struct {
		Message string `json:"message"`
	}

	engine := c.(*middleware.AppContext).App.Engine
	if err := engine.Reload(c.Request().Context()); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, reloadResponse{Message: "Reloaded"})
}
