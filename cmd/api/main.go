package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mirrortube/coordinator/internal/api"
	"github.com/mirrortube/coordinator/internal/config"
	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/repository"
	"github.com/mirrortube/coordinator/internal/service"
	"github.com/mirrortube/coordinator/internal/storage"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.NewDefault()
	logger.SetDefaultLogger(logg)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logg.Fatalf("Failed to initialize database: %v", err)
	}

	workerRepo := repository.NewWorkerRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	store, err := storage.NewS3Store(&storage.S3Config{
		Endpoint:      cfg.S3.Endpoint,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		Region:        cfg.S3.Region,
		Bucket:        cfg.S3.Bucket,
		UseSSL:        cfg.S3.UseSSL,
		PresignExpiry: cfg.S3.PresignExpiry,
	})
	if err != nil {
		logg.Fatalf("Failed to initialize object store: %v", err)
	}

	ctx := context.Background()

	// Until one batch is finalized, every dispatch necessarily hands out
	// unfinished work and no claim can be verified.
	finished, err := batchRepo.CountByFinished(ctx, true)
	if err != nil {
		logg.Fatalf("Failed to count finished batches: %v", err)
	}
	if finished == 0 {
		logg.Warn("No finished batches; verification is impossible until the first finalize")
	}

	svcs := &api.Services{
		Registry:    service.NewRegistryService(workerRepo, store, cfg.Protocol.MaxWorkersPerIP),
		Dispatch:    service.NewDispatchService(db, workerRepo, batchRepo),
		Commit:      service.NewCommitService(db, workerRepo, batchRepo, store, cfg.Protocol.ContentThreshold, cfg.Protocol.SizeMismatchPenalty, cfg.Protocol.TrustedReputation),
		Finalize:    service.NewFinalizeService(db, workerRepo, batchRepo, store),
		Stats:       service.NewStatsService(workerRepo, batchRepo, cfg.Protocol.ActiveWindow),
		Submissions: service.NewSubmissionService(submissionRepo),
	}

	router := api.SetupRouter(svcs, cfg.Server.Mode)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	var redirectSrv *http.Server
	if cfg.Server.TLS.Enabled {
		redirectSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.TLS.RedirectPort),
			Handler: httpsRedirectHandler(),
		}
		go func() {
			logg.Infof("Starting HTTP redirect listener on port %d", cfg.Server.TLS.RedirectPort)
			if err := redirectSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logg.Fatalf("Failed to start redirect listener: %v", err)
			}
		}()
	}

	go func() {
		logg.Infof("Starting coordination server on port %d (mode=%s, tls=%v)",
			cfg.Server.Port, cfg.Server.Mode, cfg.Server.TLS.Enabled)
		var serveErr error
		if cfg.Server.TLS.Enabled {
			serveErr = srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logg.Fatalf("Failed to start server: %v", serveErr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if redirectSrv != nil {
		if err := redirectSrv.Shutdown(shutdownCtx); err != nil {
			logg.Errorf("Redirect listener forced to shutdown: %v", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Fatalf("Server forced to shutdown: %v", err)
	}

	logg.Info("Server exited")
}

// httpsRedirectHandler answers every plain-HTTP request with a permanent
// redirect to the HTTPS origin, preserving path and query.
func httpsRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := "https://" + r.Host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}
