package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"naagrik-api/config"
	"naagrik-api/media"
	"naagrik-api/models"
	"naagrik-api/routes"
	"naagrik-api/services"
	"naagrik-api/store"
	authUtils "naagrik-api/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, flush := config.NewLogger(cfg.Log, cfg.App)
	defer flush()

	ctx := context.Background()

	db, err := config.ConnectMongo(ctx, cfg.Mongo, log)
	if err != nil {
		log.Fatal("MongoDB unavailable", zap.Error(err))
	}
	defer func() { _ = db.Close(context.Background()) }()

	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := models.EnsureIndexes(idxCtx, db.DB); err != nil {
		cancel()
		log.Fatal("ensure indexes", zap.Error(err))
	}
	cancel()

	rdb, err := config.ConnectRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Redis unavailable", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var uploader media.Uploader
	if cfg.Storage.Endpoint != "" {
		mu, err := media.NewMinioUploader(ctx, cfg.Storage)
		if err != nil {
			log.Fatal("image storage unavailable", zap.Error(err))
		}
		uploader = mu
	} else {
		log.Info("image storage not configured, uploads disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	policy, err := services.NewPolicy(services.PolicyOptions{
		AuthenticatedUpvotes: cfg.Engagement.AuthenticatedUpvotes,
	})
	if err != nil {
		log.Fatal("authorization policy", zap.Error(err))
	}

	users := store.NewUserRepository(db.DB)
	tokens := authUtils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.TTLHours)*time.Hour)
	auth, err := services.NewAuthService(services.AuthDeps{
		Users:       users,
		Tokens:      tokens,
		Policy:      policy,
		Logger:      log,
		BcryptCost:  cfg.Auth.BcryptCost,
		AdminEmails: cfg.Auth.AdminEmails,
	})
	if err != nil {
		log.Fatal("auth service", zap.Error(err))
	}
	engine := services.NewEngine(services.EngineDeps{
		Issues:        store.NewIssueRepository(db.DB),
		Comments:      store.NewCommentRepository(db.DB),
		Users:         users,
		Policy:        policy,
		Logger:        log,
		Metrics:       services.NewMetrics(registry),
		CommentFanout: cfg.Engagement.CommentFanout,
	})

	r := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Log:      log,
		Auth:     auth,
		Engine:   engine,
		Policy:   policy,
		DB:       db,
		Redis:    rdb,
		Uploader: uploader,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:        r,
		ReadTimeout:    time.Duration(cfg.App.ReadTimeoutSec) * time.Second,
		WriteTimeout:   time.Duration(cfg.App.WriteTimeoutSec) * time.Second,
		IdleTimeout:    time.Duration(cfg.App.IdleTimeoutSec) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
