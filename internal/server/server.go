package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docgraph/docgraph/internal/app"
	"github.com/docgraph/docgraph/internal/config"
	mid "github.com/docgraph/docgraph/internal/server/middleware"
	"github.com/docgraph/docgraph/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New returns an echo instance serving app.
func New(a *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(a))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)
	return e
}

// Init serves the query API for cfg until SIGINT or SIGTERM.
func Init(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.NewEngine(cfg)
	if err != nil {
		logger.Fatal("Failed to create query engine", "err", err)
	}
	defer engine.Close()

	// A missing index is not fatal; /api/reload picks it up once built.
	if err := engine.Reload(ctx); err != nil {
		logger.Warn("[Server] Snapshot not loaded", "err", err)
	}

	e := New(&mid.App{Engine: engine, Storage: app.NewStorage(cfg)})

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
