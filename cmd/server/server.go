// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mlgrn/courtbook/internal/api"
	"github.com/mlgrn/courtbook/internal/api/bookings"
	"github.com/mlgrn/courtbook/internal/api/courts"
	"github.com/mlgrn/courtbook/internal/api/wallets"
	"github.com/mlgrn/courtbook/internal/config"
	appdb "github.com/mlgrn/courtbook/internal/db"
	"github.com/mlgrn/courtbook/internal/ratelimit"
)

func newServer(cfg *config.Config, database *appdb.DB) *http.Server {
	bookings.InitHandlers(database)
	courts.InitHandlers(database)
	wallets.InitHandlers(database)

	limiter := ratelimit.New(nil)

	router := http.NewServeMux()
	registerRoutes(router, limiter)

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	server.RegisterOnShutdown(limiter.Close)
	return server
}

func registerRoutes(mux *http.ServeMux, limiter *ratelimit.Limiter) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Court routes
	mux.HandleFunc("GET /api/v1/courts", courts.HandleCourtsList)
	mux.HandleFunc("GET /api/v1/courts/{id}/slots", courts.HandleCourtSlots)
	mux.HandleFunc("POST /api/v1/courts/{id}/slots/toggle", courts.HandleSlotToggle)

	// Booking routes
	mux.Handle("POST /api/v1/bookings", api.WithRateLimit(limiter, http.HandlerFunc(bookings.HandleBookingCreate)))
	mux.HandleFunc("POST /api/v1/bookings/quote", bookings.HandleBookingQuote)
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleBookingsList)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", bookings.HandleBookingCancel)

	// Wallet routes
	mux.HandleFunc("GET /api/v1/wallets/{member_id}", wallets.HandleWalletGet)
	mux.HandleFunc("GET /api/v1/wallets/{member_id}/activities", wallets.HandleWalletActivities)
}
