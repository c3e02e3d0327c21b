package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	specpkg "github.com/daap14/tasktrack/api"
	"github.com/daap14/tasktrack/internal/api"
	"github.com/daap14/tasktrack/internal/auth"
	"github.com/daap14/tasktrack/internal/config"
	"github.com/daap14/tasktrack/internal/store"
	"github.com/daap14/tasktrack/internal/todo"
)

// backend bundles the repositories and health probe of one store.
type backend struct {
	identities auth.IdentityRepository
	todos      todo.Repository
	checker    store.HealthChecker
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	be, err := openBackend(startupCtx, cfg)
	if err != nil {
		cancelStartup()
		slog.Error("failed to initialize store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer be.close()

	tokens, err := auth.NewTokenCodec(cfg.SecretKey, cfg.TokenAlgorithm)
	if err != nil {
		cancelStartup()
		slog.Error("failed to initialize token codec", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(be.identities, newHasher(cfg), tokens, cfg.TokenTTL)
	gate := auth.NewGate(tokens, be.identities)
	todoService := todo.NewService(be.todos)

	if cfg.HasBootstrapAdmin() {
		if _, err := authService.BootstrapAdmin(startupCtx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			cancelStartup()
			slog.Error("failed to bootstrap admin", "error", err)
			os.Exit(1)
		}
	}
	cancelStartup()

	router := api.NewRouter(api.RouterDeps{
		HealthChecker:  be.checker,
		Version:        cfg.Version,
		AuthService:    authService,
		Resolver:       gate,
		TodoService:    todoService,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		OpenAPISpec:    specpkg.OpenAPISpec,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting tasktrack server", "port", cfg.Port, "version", cfg.Version, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		be.close()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return
	}

	slog.Info("server stopped gracefully")
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &backend{
			identities: auth.NewPostgresRepository(db.Pool()),
			todos:      todo.NewPostgresRepository(db.Pool()),
			checker:    db,
			close:      db.Close,
		}, nil
	default:
		client, err := store.NewDynamoClient(ctx, store.DynamoOptions{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoEndpoint,
			AccessKeyID:     cfg.DynamoAccessKeyID,
			SecretAccessKey: cfg.DynamoSecretKey,
		})
		if err != nil {
			return nil, err
		}
		if cfg.DynamoCreateTables {
			names := store.TableNames{
				Users:         cfg.UsersTable,
				UsernameIndex: cfg.UsernameIndex,
				EmailIndex:    cfg.EmailIndex,
				Todos:         cfg.TodosTable,
			}
			if err := store.EnsureTables(ctx, client, names, time.Minute); err != nil {
				return nil, err
			}
		}
		return &backend{
			identities: auth.NewDynamoRepository(client, cfg.UsersTable, cfg.UsernameIndex, cfg.EmailIndex),
			todos:      todo.NewDynamoRepository(client, cfg.TodosTable),
			checker:    store.NewDynamoChecker(client, cfg.UsersTable),
			close:      func() {},
		}, nil
	}
}

func newHasher(cfg *config.Config) auth.PasswordHasher {
	if cfg.PasswordHasher == config.HasherArgon2id {
		return auth.NewArgon2idHasher(nil)
	}
	return auth.NewBcryptHasher(cfg.BcryptCost)
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
