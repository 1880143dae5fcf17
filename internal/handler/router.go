package handler

import (
	"net/http"

	"github.com/Dan9191/daily-diet/internal/metrics"
	"github.com/Dan9191/daily-diet/internal/middleware"
	"github.com/gorilla/mux"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	Auth          *middleware.Authenticator
	Metrics       *metrics.Metrics
	ExposeMetrics bool
	// RegisterLimiter throttles POST /users per client; nil disables throttling
	RegisterLimiter *middleware.RateLimiter
}

// NewRouter wires every endpoint
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(h.log))
	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(opts.Metrics))
	}

	// Public routes
	r.HandleFunc("/healthz", h.Health).Methods("GET")
	if opts.ExposeMetrics && opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}
	r.Handle("/users", middleware.RateLimit(opts.RegisterLimiter)(http.HandlerFunc(h.Register))).Methods("POST")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(opts.Auth, h.log))
	authRouter.HandleFunc("/users", h.ListUsers).Methods("GET")
	authRouter.HandleFunc("/meals", h.CreateMeal).Methods("POST")
	authRouter.HandleFunc("/meals", h.ListMeals).Methods("GET")
	// Static meal routes must precede /meals/{id}
	authRouter.HandleFunc("/meals/metrics", h.MealMetrics).Methods("GET")
	authRouter.HandleFunc("/meals/export", h.ExportMeals).Methods("GET")
	authRouter.HandleFunc("/meals/{id}", h.GetMeal).Methods("GET")
	authRouter.HandleFunc("/meals/{id}", h.UpdateMeal).Methods("PUT")
	authRouter.HandleFunc("/meals/{id}", h.DeleteMeal).Methods("DELETE")

	return r
}
