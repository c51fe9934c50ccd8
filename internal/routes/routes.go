// Package routes is the default route collaborator for the https-server binary.
//
// It only registers the infrastructure endpoints. Projects embedding the server
// pass their own server.RouteRegistrar (usually calling SetRoutes first).
package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/information-sharing-networks/https-app/internal/server/handlers"
	"github.com/information-sharing-networks/https-app/internal/version"
)

// SetRoutes registers the health (GET and HEAD) and version endpoints.
func SetRoutes(r chi.Router) {
	r.Get("/health/live", handlers.HandleHealth)
	r.Head("/health/live", handlers.HandleHealth)
	r.Get("/version", handlers.HandleVersion(version.Get()))
}
