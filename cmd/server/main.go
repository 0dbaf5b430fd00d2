package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/bootstrap"
	"github.com/nirmaan-tracker/nirmaan-api/internal/config"
	"github.com/nirmaan-tracker/nirmaan-api/internal/handlers"
	"github.com/nirmaan-tracker/nirmaan-api/internal/realtime"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"github.com/nirmaan-tracker/nirmaan-api/internal/router"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

func main() {
	// build dependency injection container
	inj := bootstrap.BuildContainer(".")

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer log.Sync() //nolint:errcheck

	gin.SetMode(cfg.GinMode)

	// Connecting also runs migrations
	taskRepo := do.MustInvoke[repository.TaskRepository](inj)

	authService := do.MustInvoke[*services.AuthService](inj)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := authService.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Sugar().Fatalw("failed to seed admin", "err", err)
		}
		if created {
			log.Sugar().Infow("seeded admin account", "email", cfg.AdminEmail)
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.RealtimeRelay == "redis" {
		rdb := do.MustInvoke[*redis.Client](inj)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Sugar().Fatalw("redis unavailable for realtime relay", "err", err)
		}
		relay := do.MustInvoke[*realtime.RedisRelay](inj)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Sugar().Errorw("realtime relay stopped", "err", err)
			}
		}()
	}

	engine := router.NewRouter(router.RouterDeps{
		Config:       cfg,
		Log:          log,
		SessionStore: do.MustInvoke[sessions.Store](inj),
		Auth:         authService,
		TaskRepo:     taskRepo,

		AuthHandler:         do.MustInvoke[*handlers.AuthHandler](inj),
		TaskHandler:         do.MustInvoke[*handlers.TaskHandler](inj),
		CommentHandler:      do.MustInvoke[*handlers.CommentHandler](inj),
		UserHandler:         do.MustInvoke[*handlers.UserHandler](inj),
		LeadHandler:         do.MustInvoke[*handlers.LeadHandler](inj),
		NotificationHandler: do.MustInvoke[*handlers.NotificationHandler](inj),
		SocketHandler:       do.MustInvoke[*handlers.SocketHandler](inj),
	})

	addr := ":" + cfg.ServerPort
	srv := &http.Server{Addr: addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Sugar().Infow("starting http server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Sugar().Fatalw("listen error", "err", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Sugar().Errorw("server shutdown", "err", err)
	}
	if err := inj.Shutdown(); err != nil {
		log.Sugar().Warnw("container shutdown", "err", err)
	}
	log.Sugar().Info("server exited")
}
