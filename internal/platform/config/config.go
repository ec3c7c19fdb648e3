package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	DatabaseURL     string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// An empty DATABASE_URL selects the in-memory stores.
func FromEnv() Server {
	addr := os.Getenv("BANKLEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	shutdown := 10 * time.Second
	if v := os.Getenv("BANKLEDGER_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			shutdown = d
		}
	}

	requestTimeout := 30 * time.Second
	if v := os.Getenv("BANKLEDGER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			requestTimeout = d
		}
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ShutdownTimeout: shutdown,
		RequestTimeout:  requestTimeout,
	}
}
