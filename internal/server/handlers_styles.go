package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/reel-studio/internal/db"
	"github.com/jonathan/reel-studio/internal/server/middleware"
	"github.com/jonathan/reel-studio/internal/styles"
	"github.com/jonathan/reel-studio/internal/types"
)

var validate = validator.New()

// PresetResponse is one built-in style in the catalogue.
type PresetResponse struct {
	Key    string            `json:"key"`
	Name   string            `json:"name"`
	Guide  string            `json:"guide"`
	Config types.StyleConfig `json:"config"`
}

// AnalyzeStyleRequest is the body of POST /styles/analyze.
type AnalyzeStyleRequest struct {
	styles.AnalyzeRequest
	Save bool `json:"save,omitempty"`
}

// AnalyzeStyleResponse carries the inferred config and the saved style, if any.
type AnalyzeStyleResponse struct {
	Config *types.StyleConfig `json:"config"`
	Style  *db.Style          `json:"style,omitempty"`
}

// handleListPresets returns the built-in style catalogue.
func (s *Server) handleListPresets(w http.ResponseWriter, _ *http.Request) {
	presets := styles.Presets()
	resp := make([]PresetResponse, 0, len(presets))
	for _, p := range presets {
		resp = append(resp, PresetResponse{Key: p.Key, Name: p.Name, Guide: p.Guide, Config: styles.Config(p)})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"presets": resp})
}

// handleListStyles lists the caller's custom styles.
func (s *Server) handleListStyles(w http.ResponseWriter, r *http.Request) {
	if s.deps.Styles == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	list, err := s.deps.Styles.ListStyles(r.Context(), opts)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if list == nil {
		list = []db.Style{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"styles": list,
		"count":  len(list),
	})
}

// handleCreateStyle stores a custom style for the caller.
func (s *Server) handleCreateStyle(w http.ResponseWriter, r *http.Request) {
	if s.deps.Styles == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	var input db.StyleInput
	if err := decodeRequest(r, &input); err != nil {
		s.failure(w, r, err)
		return
	}

	style, err := s.saveStyle(r, &input)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, style)
}

// handleGetStyle returns one custom style.
func (s *Server) handleGetStyle(w http.ResponseWriter, r *http.Request) {
	if s.deps.Styles == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	style, err := s.deps.Styles.GetStyle(r.Context(), id)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if style == nil || !visibleTo(style.UserID, middleware.OptionalUserID(r)) {
		s.errorResponse(w, http.StatusNotFound, "Style not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, style)
}

// handleDeleteStyle removes one of the caller's custom styles.
func (s *Server) handleDeleteStyle(w http.ResponseWriter, r *http.Request) {
	if s.deps.Styles == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := s.deps.Styles.DeleteStyle(r.Context(), id, middleware.OptionalUserID(r)); err != nil {
		s.failure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalyzeStyle infers a style config from a name and description, optionally saving it.
func (s *Server) handleAnalyzeStyle(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analyzer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "style analysis is not configured")
		return
	}
	var req AnalyzeStyleRequest
	if err := decodeRequest(r, &req); err != nil {
		s.failure(w, r, err)
		return
	}
	if req.Save && s.deps.Styles == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	cfg, err := s.deps.Analyzer.Analyze(r.Context(), req.AnalyzeRequest)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	resp := AnalyzeStyleResponse{Config: cfg}
	if req.Save {
		style, err := s.saveStyle(r, &db.StyleInput{
			Name:        req.Name,
			Description: req.Description,
			Config:      *cfg,
		})
		if err != nil {
			s.failure(w, r, err)
			return
		}
		resp.Style = style
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// saveStyle validates input, attributes it to the caller and stores it.
func (s *Server) saveStyle(r *http.Request, input *db.StyleInput) (*db.Style, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.UserID = middleware.OptionalUserID(r)

	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &types.ValidationError{
				Field:   strings.ToLower(verrs[0].Field()),
				Message: "failed on " + verrs[0].Tag(),
			}
		}
		return nil, &types.ValidationError{Message: err.Error()}
	}
	return s.deps.Styles.CreateStyle(r.Context(), input)
}
