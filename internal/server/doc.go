// Package server builds the application and runs the HTTPS listener.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// NewApp creates the application router with the two body parsers and hands it
// to the route collaborator. NewServer wraps it with the transport middleware
// (request ids, request logging, panic recovery, security headers, rate and size limits).
//
// LoadCredentials, Listen and Serve are the TLS part of the bootstrap; the
// sequence is driven by internal/bootstrap.
//
// body parsers and transport middleware are in internal/server/middleware
package server
