// Package api serves the songbook over HTTP and streams prompter display
// units to connected clients over WebSocket.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/chordcue/chordcue/internal/cache"
	"github.com/chordcue/chordcue/internal/library"
	"github.com/chordcue/chordcue/internal/logging"
)

// Server is the ChordCue API server.
type Server struct {
	cfg   Config
	store *library.Store

	// listCache holds the song listing under a single key so a burst
	// of prompter clients does not hammer the database.
	listCache *cache.TTLCache[string, []library.Entry]

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewServer creates a server over an open library store.
func NewServer(cfg Config, store *library.Store) *Server {
	ttl := cfg.ListCacheTTL
	if ttl <= 0 {
		ttl = DefaultListCacheTTL
	}
	return &Server{
		cfg:       cfg,
		store:     store,
		listCache: cache.New[string, []library.Entry](ttl),
		sessions:  make(map[string]*Session),
	}
}

// Handler returns the server's HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/songs", s.handleListSongs)
	mux.HandleFunc("POST /api/songs", s.handleAddSong)
	mux.HandleFunc("GET /api/songs/{id}", s.handleGetSong)
	mux.HandleFunc("DELETE /api/songs/{id}", s.handleDeleteSong)
	mux.HandleFunc("POST /api/compile", s.handleCompile)
	mux.HandleFunc("GET /ws/prompter/{id}", s.handlePrompter)

	var handler http.Handler = mux
	if s.cfg.RateLimitRequests > 0 {
		limiter := NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: s.cfg.RateLimitRequests,
			BurstSize:         s.cfg.RateLimitBurst,
		})
		handler = limiter.Middleware(handler)
	}
	handler = logging.LoggingMiddleware(handler)
	handler = logging.RequestIDMiddleware(handler)
	return handler
}

// Start runs the server until it fails or the process exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	protocol := "http"
	if s.cfg.TLS.Enabled {
		protocol = "https"
	}
	logging.ServerStartup("prompter_api", protocol, s.cfg.Port,
		"library", s.cfg.LibraryPath)

	if s.cfg.TLS.Enabled {
		if s.cfg.TLS.CertFile == "" || s.cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		return http.ListenAndServeTLS(addr, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile, s.Handler())
	}
	return http.ListenAndServe(addr, s.Handler())
}

// session returns the running prompter session for a song, starting one on
// first use. Sessions live for the life of the server.
func (s *Server) session(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess := NewSession(doc)
	go sess.Run()
	s.sessions[id] = sess
	return sess, nil
}
