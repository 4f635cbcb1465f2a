package routes

import (
	"net/http"

	"github.com/docgraph/docgraph/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// AskHandler answers a question, optionally scoped to entities.
func AskHandler(c echo.Context) error {
	type askData struct {
		Question string   `json:"question" validate:"required"`
		Entities []string `json:"entities"`
	}

	data := new(askData)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request params"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "question is required"})
	}

	engine := c.(*middleware.AppContext).App.Engine
	res, err := engine.Ask(c.Request().Context(), data.Question, data.Entities)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
