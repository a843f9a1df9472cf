package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/careloop/clinic-booking/internal/auth"
	"github.com/careloop/clinic-booking/internal/booking"
)

type RouterConfig struct {
	Booking *booking.Service
	Auth    *auth.Service
	Logger  *zap.Logger
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Auth endpoints
	r.Post("/auth/signup", signUpHandler(cfg.Auth))
	r.Post("/auth/signin", signInHandler(cfg.Auth))
	r.Post("/auth/signout", signOutHandler(cfg.Auth))

	// Everything below requires a session
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Auth))

		r.Get("/auth/me", currentUserHandler())

		r.Get("/slots", listSlotsHandler(cfg.Booking))
		r.With(RequireRole(booking.RoleDoctor)).Post("/slots", createSlotHandler(cfg.Booking))

		r.Get("/appointments", listAppointmentsHandler(cfg.Booking))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
		r.With(RequireRole(booking.RolePatient)).Post("/appointments", bookSlotHandler(cfg.Booking))
		r.With(RequireRole(booking.RoleDoctor)).Post("/appointments/{id}/approve", approveAppointmentHandler(cfg.Booking))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Booking))
		r.With(RequireRole(booking.RoleDoctor)).Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Booking))
	})

	return r
}
