package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chatapp-labs/chatapp-backend/internal/blob"
	"github.com/chatapp-labs/chatapp-backend/internal/config"
	"github.com/chatapp-labs/chatapp-backend/internal/database"
	"github.com/chatapp-labs/chatapp-backend/internal/handlers"
	"github.com/chatapp-labs/chatapp-backend/internal/logging"
	"github.com/chatapp-labs/chatapp-backend/internal/middleware"
	"github.com/chatapp-labs/chatapp-backend/internal/registry"
	"github.com/chatapp-labs/chatapp-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in production: the environment is injected by the platform.
	}

	cfg, err := config.Load()
	if err != nil {
		println("failed to load configuration:", err.Error())
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, !cfg.IsProduction())

	// A positional argument overrides the Mongo URI, matching the original
	// launch convention: `server <mongo-uri>`.
	if len(os.Args) > 1 && os.Args[1] != "" {
		cfg.MongoURI = os.Args[1]
	}

	log.Info().Msg("connecting to MongoDB...")
	client, db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := database.Disconnect(client); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	st := store.NewMongoStore(db, log)
	if err := st.EnsureIndexes(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to ensure MongoDB indexes")
	}

	var blobStore blob.Store
	switch {
	case cfg.HasS3():
		s3, err := blob.NewS3Store(cfg.BucketEndpoint, cfg.BucketRegion, cfg.AccessKey, cfg.SecretAccessKey, cfg.BucketName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize S3 blob store")
		}
		blobStore = s3
		log.Info().Str("bucket", cfg.BucketName).Msg("S3 blob store initialized")
	case cfg.HasCloudinary():
		cld, err := blob.NewCloudinaryStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Cloudinary blob store")
		}
		blobStore = cld
		log.Info().Msg("Cloudinary blob store initialized")
	default:
		blobStore = blob.Disabled{}
		log.Warn().Msg("no blob storage credentials found, media uploads will not be available")
	}

	reg := registry.New()
	router := handlers.NewRouter(st, blobStore, reg, log, cfg.DefaultContactImage(), cfg.DefaultGroupImage())

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.RedisURI != "" {
		rdb, err := database.NewRedis(cfg.RedisURI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, rate limiting disabled")
		} else {
			defer rdb.Close()
			r.Use(middleware.RateLimit(rdb))
			log.Info().Msg("per-IP rate limiting enabled")
		}
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", handlers.ServeWS(router))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("chat server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
