// Package server manages the HTTP server lifecycle for the deal
// evaluation API.
//
// The package owns start, graceful shutdown, and OS signal handling
// (SIGTERM, SIGINT); the routes and middleware themselves live in the
// api package.
//
// # Basic Usage
//
//	srv := server.New(cfg.Server, apiHandler, logger)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled, a shutdown signal
// arrives, or the listener fails. Shutdown drains in-flight requests up
// to the configured shutdown timeout before forcing connections closed.
package server
