package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/pipeline"
	"github.com/jonathan/reel-studio/internal/server/middleware"
	"github.com/jonathan/reel-studio/internal/types"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// decodeRequest reads a JSON body into v, rejecting unknown fields.
func decodeRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &types.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// generationRequest decodes the body and attributes it to the caller.
func generationRequest(r *http.Request) (types.GenerationRequest, error) {
	var req types.GenerationRequest
	if err := decodeRequest(r, &req); err != nil {
		return req, err
	}
	req.UserID = middleware.OptionalUserID(r)
	return req, nil
}

// handleCreateGeneration runs the pipeline synchronously and returns the submitted render.
func (s *Server) handleCreateGeneration(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "generation is not configured")
		return
	}
	req, err := generationRequest(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	result, err := s.deps.Runner.Run(r.Context(), req, nil)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}

// handleStreamGeneration runs the pipeline and streams stage progress via SSE
func (s *Server) handleStreamGeneration(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runner == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "generation is not configured")
		return
	}
	req, err := generationRequest(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.deps.Runner.Run(r.Context(), req, func(event pipeline.ProgressEvent) {
		if err := sse.WriteProgress(event); err != nil {
			s.logger.Warn().Err(err).Str("step", event.Step).Msg("failed to write SSE event")
		}
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("streaming generation failed")
		sse.WriteError(err)
		return
	}
	sse.WriteComplete(result)
}

// handleListGenerations lists the caller's generations, newest first.
func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generations == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	gens, err := s.deps.Generations.ListGenerations(r.Context(), opts)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if gens == nil {
		gens = []db.Generation{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"generations": gens,
		"count":       len(gens),
	})
}

// handleGetGeneration returns one generation record.
func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	gen, ok := s.loadGeneration(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, gen)
}

// handleDeleteGeneration removes one of the caller's generation records.
func (s *Server) handleDeleteGeneration(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generations == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := s.deps.Generations.DeleteGeneration(r.Context(), id, middleware.OptionalUserID(r)); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCheckGeneration runs one render status check for a stored generation.
func (s *Server) handleCheckGeneration(w http.ResponseWriter, r *http.Request) {
	gen, ok := s.loadGeneration(w, r)
	if !ok {
		return
	}
	s.check(w, r, gen.RenderID)
}

// handleCheckRender runs one render status check by render id.
func (s *Server) handleCheckRender(w http.ResponseWriter, r *http.Request) {
	renderID := strings.TrimSpace(chi.URLParam(r, "render_id"))
	if renderID == "" {
		s.errorResponse(w, http.StatusBadRequest, "render_id is required")
		return
	}
	s.check(w, r, renderID)
}

func (s *Server) check(w http.ResponseWriter, r *http.Request, renderID string) {
	if s.deps.Checker == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "render tracking is not configured")
		return
	}
	result, err := s.deps.Checker.Check(r.Context(), renderID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if result.Generation != nil && !visibleTo(result.Generation.UserID, middleware.OptionalUserID(r)) {
		s.failure(w, r, fmt.Errorf("render %s: %w", renderID, db.ErrNotFound))
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// loadGeneration fetches the {id} record and enforces ownership, writing errors itself.
func (s *Server) loadGeneration(w http.ResponseWriter, r *http.Request) (*db.Generation, bool) {
	if s.deps.Generations == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return nil, false
	}
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return nil, false
	}

	gen, err := s.deps.Generations.GetGeneration(r.Context(), id)
	if err != nil {
		s.failure(w, r, err)
		return nil, false
	}
	if gen == nil || !visibleTo(gen.UserID, middleware.OptionalUserID(r)) {
		s.errorResponse(w, http.StatusNotFound, "Generation not found")
		return nil, false
	}
	return gen, true
}
