package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/chordcue/chordcue/core/errors"
	"github.com/chordcue/chordcue/core/prompter"
	"github.com/chordcue/chordcue/core/songcode"
	"github.com/chordcue/chordcue/internal/library"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// CompileRequest is the request body for compile and song creation.
type CompileRequest struct {
	Source string `json:"source"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Songs  int    `json:"songs"`
}

// listCacheKey is the single key under which the song listing is cached.
const listCacheKey = "songs"

// maxSourceBytes caps compile request bodies.
const maxSourceBytes = 1 << 20

var startTime = time.Now()

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	entries, err := s.listEntries(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "LIBRARY_ERROR", err.Error())
		return
	}
	respond(w, http.StatusOK, HealthInfo{
		Status: "ok",
		Uptime: time.Since(startTime).Round(time.Second).String(),
		Songs:  len(entries),
	})
}

// listEntries serves the song listing through the TTL cache.
func (s *Server) listEntries(r *http.Request) ([]library.Entry, error) {
	if entries, ok := s.listCache.Get(listCacheKey); ok {
		return entries, nil
	}
	entries, err := s.store.List(r.Context())
	if err != nil {
		return nil, err
	}
	s.listCache.Set(listCacheKey, entries)
	return entries, nil
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.listEntries(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "LIBRARY_ERROR", err.Error())
		return
	}
	if entries == nil {
		entries = []library.Entry{}
	}
	respondList(w, entries, len(entries))
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respond(w, http.StatusOK, doc)
}

func (s *Server) handleAddSong(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCompileRequest(w, r)
	if !ok {
		return
	}
	doc, err := s.store.Add(r.Context(), req.Source)
	if err != nil {
		respondCompileError(w, err)
		return
	}
	s.listCache.Invalidate()
	respond(w, http.StatusCreated, doc)
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondStoreError(w, err)
		return
	}
	s.listCache.Invalidate()
	respond(w, http.StatusOK, map[string]string{"message": "song deleted"})
}

// handleCompile compiles songcode without storing it, returning the full
// document including the prompter stream.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCompileRequest(w, r)
	if !ok {
		return
	}
	doc, err := songcode.Parse(req.Source)
	if err != nil {
		respondCompileError(w, err)
		return
	}
	if err := prompter.Build(doc); err != nil {
		respondCompileError(w, err)
		return
	}
	respond(w, http.StatusOK, doc)
}

func decodeCompileRequest(w http.ResponseWriter, r *http.Request) (CompileRequest, bool) {
	var req CompileRequest
	body := io.LimitReader(r.Body, maxSourceBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return req, false
	}
	if req.Source == "" {
		respondError(w, http.StatusBadRequest, "MISSING_SOURCE", "request body needs a source field")
		return req, false
	}
	return req, true
}

// respondCompileError maps compilation failures to 422 with the compile
// error code, falling back to 400 for other validation problems.
func respondCompileError(w http.ResponseWriter, err error) {
	var ioErr *errors.IOError
	if errors.As(err, &ioErr) {
		respondError(w, http.StatusInternalServerError, "LIBRARY_ERROR", err.Error())
		return
	}
	if code := errors.CompileCode(err); code != "" {
		respondError(w, http.StatusUnprocessableEntity, string(code), err.Error())
		return
	}
	respondError(w, http.StatusBadRequest, "INVALID_SONGCODE", err.Error())
}

// respondStoreError maps library errors to HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, errors.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "LIBRARY_ERROR", err.Error())
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondList(w http.ResponseWriter, data interface{}, total int) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
