package api

import "time"

// Config holds server configuration.
type Config struct {
	Port              int
	LibraryPath       string        // Path to the songbook SQLite database
	RateLimitRequests int           // Requests per minute (0 = disabled)
	RateLimitBurst    int           // Burst size
	ListCacheTTL      time.Duration // How long song listings stay cached
	AllowedOrigins    []string      // WebSocket allowed origins (empty = allow all)
	TLS               TLSConfig     // TLS configuration
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}

// DefaultListCacheTTL applies when Config.ListCacheTTL is zero.
const DefaultListCacheTTL = 5 * time.Second
