package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/daap14/tasktrack/internal/api/handler"
	"github.com/daap14/tasktrack/internal/api/middleware"
	"github.com/daap14/tasktrack/internal/auth"
	"github.com/daap14/tasktrack/internal/store"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	HealthChecker  store.HealthChecker
	Version        string
	AuthService    handler.AuthService
	Resolver       middleware.IdentityResolver
	TodoService    handler.TodoService
	AllowedOrigins []string
	OpenAPISpec    []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	healthHandler := handler.NewHealthHandler(deps.HealthChecker, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	authHandler := handler.NewAuthHandler(deps.AuthService)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/token", authHandler.Token)
		r.With(middleware.Authenticate(deps.Resolver)).Get("/profile", authHandler.Profile)
	})

	if deps.TodoService != nil {
		todoHandler := handler.NewTodoHandler(deps.TodoService)
		r.Route("/todos", func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Resolver))
			r.Post("/", todoHandler.Create)
			r.Get("/", todoHandler.List)
			r.Get("/{id}", todoHandler.GetByID)
			r.Put("/{id}", todoHandler.Update)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{id}", todoHandler.Delete)
		})
	}

	return r
}
