// Package httptransport builds the engine's HTTP server from configured
// timeouts so the binaries share one place for those defaults.
package httptransport

import (
	"net/http"
	"time"
)

// ServerConfig carries the listener address and connection timeouts.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer builds the *http.Server serving the engine's API handler chain.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
