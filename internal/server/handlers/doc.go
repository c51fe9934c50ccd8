// Package handlers provides general infrastructure HTTP handlers (health, version).
//
// They are registered by the default route collaborator (internal/routes);
// application handlers are supplied by the embedding project.
package handlers
