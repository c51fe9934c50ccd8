package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/information-sharing-networks/https-app/internal/response"
	"github.com/information-sharing-networks/https-app/internal/server/middleware"
)

// RouteRegistrar registers handlers on the application router.
// It is supplied by the embedding project and called exactly once per application.
type RouteRegistrar func(r chi.Router)

// AppOptions configures the body parsers attached to the application.
type AppOptions struct {
	// MaxRequestBody is the body size limit of both parsers in bytes (0 means middleware.DefaultBodyLimit)
	MaxRequestBody int64

	// URLEncodedParameterLimit caps the number of url encoded parameters (0 means the parser default)
	URLEncodedParameterLimit int
}

// NewApp builds the application router: the JSON body parser, then the extended url
// encoded body parser, then the routes added by registerRoutes.
//
// No other middleware is attached to the returned router; the transport level middleware
// (request ids, logging, recovery, limits) wraps it in Server.Handler.
//
// A panic in registerRoutes (chi panics on invalid patterns) is returned as an error.
func NewApp(opts AppOptions, registerRoutes RouteRegistrar) (app *chi.Mux, err error) {
	if registerRoutes == nil {
		return nil, fmt.Errorf("route registrar is nil")
	}

	app = chi.NewRouter()
	app.Use(middleware.ParseJSON(middleware.JSONOptions{Limit: opts.MaxRequestBody}))
	app.Use(middleware.ParseURLEncoded(middleware.URLEncodedOptions{
		Extended:       true,
		ParameterLimit: opts.URLEncodedParameterLimit,
		Limit:          opts.MaxRequestBody,
	}))
	app.NotFound(notFound)

	defer func() {
		if p := recover(); p != nil {
			app = nil
			err = fmt.Errorf("route registration failed: %v", p)
		}
	}()
	registerRoutes(app)

	return app, nil
}

// notFound replies with the error envelope unless the route collaborator sets its own handler
func notFound(w http.ResponseWriter, r *http.Request) {
	response.RespondWithError(w, r, response.NewNotFoundError(
		fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
	))
}
