package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/brandonyuanCS/periph4all/pkg/encoder"
	"github.com/brandonyuanCS/periph4all/pkg/graph"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
	"github.com/brandonyuanCS/periph4all/pkg/recommend"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

// decodeJSON parses the body into v and runs struct validation.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	if err := validate.Struct(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

// writeError maps domain errors to status codes: bad input is 400, a
// failed embedding call is 502 (the client may retry), everything else
// is 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validationErr *prefs.ValidationError
	var encodingErr *encoder.EncodingError

	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, recommend.ErrInvalidTopK),
		errors.Is(err, graph.ErrInvalidK):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &encodingErr):
		s.log.Error().Err(err).Msg("embedding provider failure")
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "embedding provider unavailable, please retry"})
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// clamp01 bounds a similarity score for presentation. Raw cosine values
// can dip below zero for dissimilar pairs; the API contract is [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
