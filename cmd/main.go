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

	"github.com/gin-gonic/gin"

	"recruit-pipeline/config"
	"recruit-pipeline/infrastructure"
	"recruit-pipeline/interfaces"
	"recruit-pipeline/logger"
	"recruit-pipeline/pipeline"
	"recruit-pipeline/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer log.Sync()
	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := infrastructure.OpenDatabase(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		log.Fatal("database unavailable", "error", err)
	}
	if err := infrastructure.SeedJobs(db, cfg.SeedJobsFile, log); err != nil {
		log.Fatal("failed to seed jobs", "error", err)
	}

	rmq, err := infrastructure.NewRabbitMQ(cfg.RabbitMQURL, log)
	if err != nil {
		log.Fatal("rabbitmq unavailable", "error", err)
	}
	defer rmq.Close()

	var (
		scorer      service.ResumeScorer
		pdfFallback infrastructure.PDFFallback
	)
	switch cfg.LLMProvider {
	case config.ProviderVertexAI:
		vertex, err := infrastructure.NewVertexAIClient(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, log)
		if err != nil {
			log.Fatal("vertex ai unavailable", "error", err)
		}
		defer vertex.Close()
		scorer = vertex
	default:
		gemini := infrastructure.NewGeminiClient(cfg.GeminiAPIKey, log)
		scorer = gemini
		pdfFallback = gemini
	}

	repo := infrastructure.NewRepository(db, log)
	svc := service.NewPipelineService(service.Deps{
		Jobs:     repo,
		Apps:     repo,
		Engine:   pipeline.NewEngine(),
		Notifier: rmq,
		Queue:    rmq,
		Scorer:   scorer,
		Log:      log,
	})

	if err := interfaces.NewWorker(svc, log).Start(rmq); err != nil {
		log.Fatal("failed to start workers", "error", err)
	}

	handler := interfaces.NewHTTPHandler(svc, infrastructure.NewResumeExtractor(pdfFallback), log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           interfaces.NewRouter(handler, cfg.CORSAllowOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr, "db_driver", cfg.DBDriver, "llm_provider", cfg.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
