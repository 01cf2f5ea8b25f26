package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"querydesk-api/config"
	"querydesk-api/internal/apis/routes"
	"querydesk-api/internal/di"
	"querydesk-api/internal/middleware"
	"querydesk-api/pkg/logger"
)

type cmdServe struct {
	global *cmdGlobal

	flagPort string
}

// Command generates the command definition.
func (c *cmdServe) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "serve"
	cmd.Short = "Start the HTTP API"
	cmd.Long = `Description:
  Start the HTTP API

  Connects to the system database, MongoDB and Redis, then serves the
  registry and query endpoints until SIGINT or SIGTERM.
`
	cmd.RunE = c.Run
	cmd.Flags().StringVarP(&c.flagPort, "port", "p", "", "Override PORT"+"``")

	return cmd
}

// Run runs the actual command logic.
func (c *cmdServe) Run(cmd *cobra.Command, args []string) error {
	exit, err := c.global.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	port := config.Env.Port
	if c.flagPort != "" {
		port = c.flagPort
	}

	if config.Env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	di.Initialize()

	ginApp := gin.New()
	ginApp.Use(middleware.RequestLogger())
	ginApp.Use(middleware.CustomRecoveryMiddleware())
	ginApp.Use(cors.New(cors.Config{
		AllowOrigins: []string{config.Env.CorsAllowedOrigin},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"User-Agent",
			"Referer",
			middleware.RequestIDHeader,
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition", "X-Batch-ID", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupDefaultRoutes(ginApp)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: ginApp,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("querydesk -> serve -> listening", logger.Ctx{"port": port, "environment": config.Env.Environment})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			_ = di.Shutdown(context.Background())
			return err
		}
	case sig := <-quit:
		logger.Info("querydesk -> serve -> shutting down", logger.Ctx{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = srv.Shutdown(ctx)
	if err != nil {
		logger.Error("querydesk -> serve -> forced shutdown", logger.Ctx{"err": err})
	}

	err = errors.Join(err, di.Shutdown(ctx))
	if err != nil {
		return err
	}

	logger.Info("querydesk -> serve -> stopped")
	return nil
}
