package middleware

import (
	"context"

	"github.com/docgraph/docgraph/pkg/query"
	"github.com/docgraph/docgraph/pkg/store"

	"github.com/labstack/echo/v4"
)

// QueryEngine is the part of query.Engine the handlers use.
type QueryEngine interface {
	Ask(ctx context.Context, question string, entities []string) (*query.Response, error)
	Reload(ctx context.Context) error
}

type App struct {
	Engine  QueryEngine
	Storage store.GraphStorage
}

type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware exposes app to every handler through AppContext.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
