package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oksasatya/devconnect/config"
	"github.com/oksasatya/devconnect/internal/interface/middleware"
	"github.com/oksasatya/devconnect/internal/web/handlers"
	"github.com/oksasatya/devconnect/internal/web/views"
	"github.com/oksasatya/devconnect/pkg/client"
	"github.com/oksasatya/devconnect/pkg/helpers"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-web", cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	api := client.New(cfg.APIBaseURL, &http.Client{Timeout: 10 * time.Second})
	sessions := handlers.NewSessions(api, logger, cfg.CookieSecure)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}
	r.SetHTMLTemplate(views.Must())
	handlers.New(sessions, logger).Register(r)

	srv := &http.Server{Addr: ":" + cfg.WebPort, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithField("api", cfg.APIBaseURL).Infof("web starting on :%s", cfg.WebPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down web")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("web forced to shutdown: %v", err)
	}
	logger.Info("web exited properly")
}
