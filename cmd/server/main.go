package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/config"
	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/repository/memory"
	"github.com/mamadbah2/packhouse/internal/repository/mongodb"
	"github.com/mamadbah2/packhouse/internal/repository/sheets"
	"github.com/mamadbah2/packhouse/internal/scheduler"
	"github.com/mamadbah2/packhouse/internal/server/handlers"
	"github.com/mamadbah2/packhouse/internal/server/router"
	adminsvc "github.com/mamadbah2/packhouse/internal/service/admin"
	authsvc "github.com/mamadbah2/packhouse/internal/service/auth"
	exportsvc "github.com/mamadbah2/packhouse/internal/service/export"
	gradingsvc "github.com/mamadbah2/packhouse/internal/service/grading"
	intakesvc "github.com/mamadbah2/packhouse/internal/service/intake"
	reportingsvc "github.com/mamadbah2/packhouse/internal/service/reporting"
	salessvc "github.com/mamadbah2/packhouse/internal/service/sales"
	whatsappsvc "github.com/mamadbah2/packhouse/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/packhouse/pkg/clients/whatsapp"
	"github.com/mamadbah2/packhouse/pkg/logger"
)

type recordStore interface {
	mongodb.IntakeStore
	mongodb.GradingStore
	mongodb.SalesStore
	mongodb.RowStore
	mongodb.UserStore
	mongodb.ReportStore
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid time zone", zap.Error(err))
	}

	var store recordStore
	switch cfg.Store.Driver {
	case config.StoreMemory:
		baseLogger.Warn("using in-memory store, records are lost on restart")
		store = memory.New()
	default:
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named(baseLogger, "repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
	}

	var mirror sheets.SummaryMirror
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		mirror = sheetsRepo
	} else {
		baseLogger.Info("google sheets mirror disabled")
	}

	var notifier scheduler.ManagerNotifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		notifier = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, logger.Named(baseLogger, "svc.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp access token missing, weekly summary will only be logged")
	}

	authSvc := authsvc.NewService(store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger.Named(baseLogger, "svc.auth"))
	authLogger := logger.Named(baseLogger, "auth.session")
	unsubscribe := authSvc.OnAuthStateChange(func(ev authsvc.Event) {
		fields := []zap.Field{zap.String("from", string(ev.From)), zap.String("to", string(ev.To))}
		if ev.User != nil {
			fields = append(fields, zap.String("user_id", ev.User.ID), zap.String("role", string(ev.User.Role)))
		}
		authLogger.Debug("session state changed", fields...)
	})
	defer unsubscribe()

	if err := authSvc.Bootstrap(context.Background(), cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword, models.Role(cfg.Auth.BootstrapRole)); err != nil {
		baseLogger.Fatal("failed to bootstrap first account", zap.Error(err))
	}

	intakeSvc := intakesvc.NewService(store, store, logger.Named(baseLogger, "svc.intake"))
	gradingSvc := gradingsvc.NewService(store, store, logger.Named(baseLogger, "svc.grading"))
	salesSvc := salessvc.NewService(store, store, logger.Named(baseLogger, "svc.sales"))
	adminSvc := adminsvc.NewService(store, salesSvc, loc, logger.Named(baseLogger, "svc.admin"))
	exportSvc := exportsvc.NewService(store, exportsvc.Letterhead{
		Name:     cfg.Company.Name,
		Registry: cfg.Company.Registry,
		Address:  cfg.Company.Address,
	}, logger.Named(baseLogger, "svc.export"))
	reportingSvc := reportingsvc.NewService(store, mirror, loc, logger.Named(baseLogger, "svc.reporting"))

	engine := router.New(router.Deps{
		Auth:    authSvc,
		Intake:  handlers.NewIntakeHandler(intakeSvc, logger.Named(baseLogger, "handlers.intake")),
		Grading: handlers.NewGradingHandler(gradingSvc, logger.Named(baseLogger, "handlers.grading")),
		Sales:   handlers.NewSalesHandler(salesSvc, logger.Named(baseLogger, "handlers.sales")),
		Admin:   handlers.NewAdminHandler(adminSvc, exportSvc, logger.Named(baseLogger, "handlers.admin")),
	}, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(cfg.Reporting, loc, reportingSvc, notifier, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
