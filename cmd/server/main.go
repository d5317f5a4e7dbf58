package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/wildnest/wildnest/internal/config"
	"github.com/wildnest/wildnest/internal/database"
	"github.com/wildnest/wildnest/internal/httpapi"
	"github.com/wildnest/wildnest/internal/identify"
	"github.com/wildnest/wildnest/internal/likes"
	"github.com/wildnest/wildnest/internal/metrics"
	"github.com/wildnest/wildnest/internal/posts"
	"github.com/wildnest/wildnest/internal/profile"
	"github.com/wildnest/wildnest/internal/shared/auth"
	"github.com/wildnest/wildnest/internal/shared/logging"
	"github.com/wildnest/wildnest/internal/shared/server"
	"github.com/wildnest/wildnest/internal/storage"
)

const serviceName = "wildnest-api"

type repositories struct {
	profiles profile.Repository
	posts    posts.Repository
	likes    likes.Repository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName)

	repos, closeRepos, err := newRepositories(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("storage init error: %w", err))
	}

	identifier, err := newIdentifier(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("identifier init error: %w", err))
	}

	m, err := metrics.New()
	if err != nil {
		panic(fmt.Errorf("metrics init error: %w", err))
	}

	profileService := profile.NewService(repos.profiles, store)
	postService := posts.NewService(repos.posts, repos.profiles, posts.NewSystemClock(), posts.NewUUIDGenerator(), logger)
	services := httpapi.Services{
		Profiles: profileService,
		Posts:    postService,
		Likes:    likes.NewService(repos.likes),
		Identify: identify.NewService(store, postService, identifier, logger),
		Metrics:  m,
	}

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := server.NewRouter(serviceName, logger, func(r chi.Router) {
		r.Method(http.MethodGet, "/metrics", m.Handler())

		switch s := store.(type) {
		case *storage.Disk:
			httpapi.RegisterMediaDir(r, s.Root())
		case *storage.GCS:
			httpapi.RegisterMediaRedirect(r, s, cfg.Storage.SignedURLTTL, logger)
		}

		r.Group(func(r chi.Router) {
			r.Use(m.Middleware)
			r.Use(auth.Middleware(verifier))

			httpapi.RegisterRoutes(r, services, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("backends configured",
		slog.String("port", cfg.Port),
		slog.String("datastore", string(cfg.DataStore)),
		slog.String("storage", string(cfg.Storage.Kind)),
		slog.String("identifier", string(cfg.Identifier.Kind)),
	)
	closeStore := func(context.Context) error { return store.Close() }
	if err := server.Run(ctx, srv, logger, closeRepos, closeStore); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newRepositories(ctx context.Context, cfg config.Config) (repositories, server.Closer, error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return repositories{}, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return repositories{}, nil, fmt.Errorf("firestore client: %w", err)
		}
		repos := repositories{
			profiles: profile.NewFirestoreRepository(client),
			posts:    posts.NewFirestoreRepository(client),
			likes:    likes.NewFirestoreRepository(client),
		}
		return repos, func(context.Context) error { return client.Close() }, nil
	default:
		var (
			db  *gorm.DB
			err error
		)
		if cfg.DataStore == config.DataStorePostgres {
			db, err = database.OpenPostgres(cfg.DatabaseURL, cfg.Debug)
		} else {
			db, err = database.OpenSQLite(cfg.SQLitePath, cfg.Debug)
		}
		if err != nil {
			return repositories{}, nil, err
		}
		repos := repositories{
			profiles: profile.NewGormRepository(db),
			posts:    posts.NewGormRepository(db),
			likes:    likes.NewGormRepository(db),
		}
		return repos, func(context.Context) error { return database.Close(db) }, nil
	}
}

func newStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.Storage.Kind == config.StorageGCS {
		return storage.NewGCS(ctx, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
	}
	return storage.NewDisk(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
}

func newIdentifier(ctx context.Context, cfg config.Config) (identify.Identifier, error) {
	switch cfg.Identifier.Kind {
	case config.IdentifierGemini:
		return identify.NewGemini(ctx, identify.GeminiConfig{
			APIKey: cfg.Identifier.GeminiAPIKey,
			Model:  cfg.Identifier.GeminiModel,
		})
	case config.IdentifierClaude:
		return identify.NewClaude(identify.ClaudeConfig{
			APIKey: cfg.Identifier.AnthropicAPIKey,
			Model:  cfg.Identifier.ClaudeModel,
		})
	default:
		return identify.NewMock(), nil
	}
}
