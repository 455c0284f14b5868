package app

import (
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"integration-gateway/internal/handlers"
	"integration-gateway/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers) {
	router.Use(middleware.Logging)

	v1 := router.PathPrefix("/integration/v1").Subrouter()
	v1.HandleFunc("/create-external-call", h.CreateExternalCall).Methods("POST")
	v1.HandleFunc("/health", h.Liveness).Methods("GET")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
}
