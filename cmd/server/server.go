package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v2"

	"github.com/damacus/iron-files/internal/handlers"
	customMiddleware "github.com/damacus/iron-files/internal/middleware"
	"github.com/damacus/iron-files/internal/renderer"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serve(c *cli.Context) error {
	port := a.cfg.Server.Port
	if c.IsSet("port") {
		port = c.String("port")
	}

	e := newServer(a)
	e.Server.ReadTimeout = time.Duration(a.cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(a.cfg.Server.WriteTimeout) * time.Second

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", port).Str("backend", a.cfg.Store.Backend).Msg("starting server")
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	a.boards.CloseAll()
	return nil
}

func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	connectionHandler := handlers.NewConnectionHandler(a.gateway, a.holder, a.boards, a.log)
	filesHandler := handlers.NewFilesHandler(a.explorer, a.boards, a.log)
	uploadsHandler := handlers.NewUploadsHandler(a.orchestrator, a.holder, a.boards, a.cfg.Upload.MaxMemory(), a.log)
	pageHandler := handlers.NewPageHandler(a.explorer, a.boards, a.log)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(customMiddleware.RequestLogger(a.log))
	e.Use(customMiddleware.SecurityHeaders())
	e.Use(customMiddleware.CSRF(a.holder.CookieName()))
	e.Use(customMiddleware.ConfigLoader(a.holder, a.log))

	// Template Renderer
	e.Renderer = renderer.New()

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.StaticFS("/static", renderer.Static())

	e.GET("/", pageHandler.Index)

	api := e.Group("/api")
	api.POST("/disconnect", connectionHandler.Disconnect)

	s3 := api.Group("/s3")
	s3.POST("/connect", connectionHandler.Connect)
	s3.POST("/files", filesHandler.ListFiles)
	s3.POST("/navigate", filesHandler.Navigate)
	s3.POST("/create-folder", filesHandler.CreateFolder)
	s3.DELETE("/delete", filesHandler.DeleteObject)
	s3.POST("/upload", uploadsHandler.Upload)
	s3.GET("/uploads", uploadsHandler.ListUploads)

	return e
}
