// Package server wires HTTP handlers into a router for the chat relay.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures and returns a router with all application routes:
// health check, test page, registration API and the chat endpoint.
func SetupRoutes(hub *Hub) *mux.Router {
	auth := NewAuthHandler(hub.Credentials(), hub.Logger())

	r := mux.NewRouter()
	r.HandleFunc("/", HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/test", TestPageHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/auth", auth.List).Methods(http.MethodGet)
	r.HandleFunc("/api/auth", auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/{username}", auth.Exists).Methods(http.MethodGet)

	r.Handle("/ws", ChatMiddleware(hub, http.HandlerFunc(WebSocketFallbackHandler)))
	return r
}
