package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/docgraph/docgraph/pkg/index"
	"github.com/docgraph/docgraph/pkg/logger"
	"github.com/docgraph/docgraph/pkg/query"
	"github.com/docgraph/docgraph/pkg/store"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errorJSON maps query and storage errors onto HTTP responses.
func errorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotBuilt), errors.Is(err, index.ErrNotBuilt):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "index not built"})
	case errors.Is(err, query.ErrEmptyQuestion):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Error: "Retrieval timed out"})
	default:
		logger.Error("[Server] Request failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}
