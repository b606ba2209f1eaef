package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mereb-hub/finance-hub/internal/auth"
	"github.com/mereb-hub/finance-hub/internal/config"
	"github.com/mereb-hub/finance-hub/internal/db"
	httphandler "github.com/mereb-hub/finance-hub/internal/http"
	"github.com/mereb-hub/finance-hub/internal/logger"
	"github.com/mereb-hub/finance-hub/internal/model"
	"github.com/mereb-hub/finance-hub/internal/notify"
	"github.com/mereb-hub/finance-hub/internal/report"
	"github.com/mereb-hub/finance-hub/internal/repository"
	"github.com/mereb-hub/finance-hub/internal/scheduler"
	"github.com/mereb-hub/finance-hub/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	projectRepo := repository.NewProjectRepository(database)
	userRepo := repository.NewUserRepository(database)
	departmentRepo := repository.NewDepartmentRepository(database)
	dispatchLogRepo := repository.NewDispatchLogRepository(database)
	aggregateRepo := repository.NewAggregateRepository(database)

	sink := notify.NewLogSink(log)
	generator := report.NewGenerator(cfg.OpenAI, cfg.Report.Recipient, log)
	sender := report.NewSender(cfg.Report.Recipient, cfg.Report.SenderName, log)
	excelGenerator := report.NewExcelGenerator()
	pdfGenerator := report.NewPDFGenerator()

	ledger := service.NewLedgerService(projectRepo, log)
	directory := service.NewDirectoryService(userRepo, departmentRepo, log)
	reports := service.NewReportService(aggregateRepo, projectRepo, departmentRepo, dispatchLogRepo, excelGenerator, pdfGenerator, log)

	registry := scheduler.NewRegistry(
		func(user model.User) *scheduler.Auditor {
			return scheduler.NewAuditor(user, projectRepo, sink, cfg.Audit.PollInterval, log)
		},
		func(user model.User) *scheduler.Dispatcher {
			return scheduler.NewDispatcher(aggregateRepo, dispatchLogRepo, generator, sender, sink, log)
		},
		log,
	)
	ledger.OnMutation(registry.NotifyMutation)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens := auth.NewTokens(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)
	handler := httphandler.NewHandler(ledger, reports, directory, tokens, registry, sink, appCtx, log)
	router := httphandler.NewRouter(handler, tokens, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting finance hub")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-appCtx.Done()
	log.Info().Msg("shutting down")

	registry.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
