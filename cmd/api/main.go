package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/petermazzocco/water-quality-api/internal/auth"
	"github.com/petermazzocco/water-quality-api/internal/blob"
	"github.com/petermazzocco/water-quality-api/internal/config"
	"github.com/petermazzocco/water-quality-api/internal/handlers"
	"github.com/petermazzocco/water-quality-api/internal/logger"
	"github.com/petermazzocco/water-quality-api/internal/predict"
	"github.com/petermazzocco/water-quality-api/internal/schema"
	"github.com/petermazzocco/water-quality-api/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize environment variables
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.Fatalf("Error loading configuration: %v", err)
	}
	logger.InitLogger(cfg.LogLevel)
	log := logger.Default()

	// Database connection
	db, err := store.Open(cfg.DBDriver, cfg.DSN, logger.Gorm(cfg.LogLevel))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	st := store.New(db)
	defer st.Close()

	validator, err := schema.New()
	if err != nil {
		log.Fatalf("Failed to load request schemas: %v", err)
	}

	srv := &handlers.Server{
		Store:     st,
		Tokens:    auth.NewTokenIssuer(cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Validator: validator,
		Predictor: predict.NewStaticPredictor(),
	}

	// Object storage for raw uploads
	if cfg.ArchiveEnabled() {
		client, err := blob.NewS3Client(context.Background(), blob.Options{
			Endpoint:        cfg.ObjectStorageEndpoint(),
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
		})
		if err != nil {
			log.Fatalf("Failed to configure object storage: %v", err)
		}
		srv.Archiver = blob.NewS3Archiver(client, cfg.BucketName)
		log.WithField("bucket", cfg.BucketName).Info("archiving uploads to object storage")
	}

	// OAUTH
	if cfg.OAuthEnabled() {
		auth.SetupOAuth(auth.OAuthOptions{
			GoogleKey:     cfg.GoogleKey,
			GoogleSecret:  cfg.GoogleSecret,
			CallbackURL:   cfg.OAuthCallbackURL,
			SessionSecret: cfg.SessionSecret,
			Secure:        cfg.SecureCookies,
		})
	}

	var origins []string
	for _, p := range strings.Split(cfg.CORSOrigin, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}

	router := handlers.NewRouter(srv, handlers.RouterOptions{
		CORSOrigins:        origins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		OAuth:              cfg.OAuthEnabled(),
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("Starting API server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
