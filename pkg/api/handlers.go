package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/chat"
	"github.com/brandonyuanCS/periph4all/pkg/graph"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
	"github.com/brandonyuanCS/periph4all/pkg/projection"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":    "periph4all",
		"version": "1.0.0",
		"endpoints": []string{
			"/health",
			"/api/v1/chat",
			"/api/v1/chat/reset",
			"/api/v1/recommendations",
			"/api/v1/recommendations/quick",
			"/api/v1/visualizations/embedding-space",
			"/api/v1/visualizations/embedding-space-with-user",
			"/api/v1/visualizations/graph-data",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"mice_loaded":     s.cat.Len(),
		"embedding_model": s.emb.ModelInfo(),
		"chat_enabled":    s.chat != nil,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "chat is disabled"})
		return
	}

	var req chat.Request
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.chat.Process(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type chatResetRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "chat is disabled"})
		return
	}

	var req chatResetRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	s.chat.Reset(req.SessionID)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

type recommendRequest struct {
	Preferences      *prefs.UserPreferences `json:"preferences" validate:"required"`
	TopK             *int                   `json:"top_k,omitempty" validate:"omitempty,min=1,max=10"`
	IncludeReasoning *bool                  `json:"include_reasoning,omitempty"`
}

type recommendationDTO struct {
	Rank      int               `json:"rank"`
	Mouse     catalog.MouseSpec `json:"mouse"`
	Score     float64           `json:"similarity_score"`
	Reasoning string            `json:"reasoning,omitempty"`
}

type recommendResponse struct {
	Recommendations []recommendationDTO `json:"recommendations"`
	RelaxedFilters  []string            `json:"relaxed_filters,omitempty"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	k := s.cfg.Recommend.TopK
	if req.TopK != nil {
		k = *req.TopK
	}
	includeReasoning := true
	if req.IncludeReasoning != nil {
		includeReasoning = *req.IncludeReasoning
	}

	s.respondRecommendations(w, r, req.Preferences, k, includeReasoning)
}

// handleQuickRecommendations skips reasoning generation for callers that
// only need ranked names and scores.
func (s *Server) handleQuickRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	k := s.cfg.Recommend.TopK
	if req.TopK != nil {
		k = *req.TopK
	}
	s.respondRecommendations(w, r, req.Preferences, k, false)
}

func (s *Server) respondRecommendations(w http.ResponseWriter, r *http.Request, p *prefs.UserPreferences, k int, includeReasoning bool) {
	result, err := s.rec.Recommend(r.Context(), p, k, includeReasoning)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := recommendResponse{
		Recommendations: make([]recommendationDTO, 0, len(result.Recommendations)),
		RelaxedFilters:  result.RelaxedFilters,
	}
	for i, rec := range result.Recommendations {
		resp.Recommendations = append(resp.Recommendations, recommendationDTO{
			Rank:      i + 1,
			Mouse:     *rec.Mouse,
			Score:     clamp01(float64(rec.Score)),
			Reasoning: rec.Reasoning,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type embeddingSpaceResponse struct {
	Points    []projection.Point `json:"points"`
	UserPoint *projection.Point  `json:"user_point,omitempty"`
}

func (s *Server) handleEmbeddingSpace(w http.ResponseWriter, r *http.Request) {
	points, err := s.proj.Points(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, embeddingSpaceResponse{Points: points})
}

type userVisualizationRequest struct {
	Preferences *prefs.UserPreferences `json:"preferences" validate:"required"`
}

func (s *Server) handleEmbeddingSpaceWithUser(w http.ResponseWriter, r *http.Request) {
	var req userVisualizationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Preferences.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	points, err := s.proj.Points(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	query, err := s.rec.QueryVector(r.Context(), req.Preferences)
	if err != nil {
		s.writeError(w, err)
		return
	}

	userPoint, err := s.proj.QueryPoint(r.Context(), query, "Your Preferences")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, embeddingSpaceResponse{Points: points, UserPoint: userPoint})
}

// userNodeID identifies the preference query node in graph payloads.
const userNodeID = "user-preference"

type graphRequest struct {
	Preferences *prefs.UserPreferences `json:"preferences,omitempty"`
}

type graphNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Index int    `json:"index"`
}

type graphEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Similarity float64 `json:"similarity"`
}

type graphResponse struct {
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
}

func mouseNodeID(index int) string {
	return fmt.Sprintf("mouse-%d", index)
}

func edgeSourceID(source int) string {
	if source == graph.QuerySource {
		return userNodeID
	}
	return mouseNodeID(source)
}

func (s *Server) handleGraphData(w http.ResponseWriter, r *http.Request) {
	k := s.cfg.Graph.DefaultNeighbors
	if raw := r.URL.Query().Get("k_neighbors"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "k_neighbors must be an integer"})
			return
		}
		k = parsed
	}
	if k > s.cfg.Graph.MaxNeighbors {
		k = s.cfg.Graph.MaxNeighbors
	}

	var req graphRequest
	if r.ContentLength != 0 && !s.decodeJSON(w, r, &req) {
		return
	}

	matrix, _, err := s.store.Matrix(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	edges, err := graph.Build(matrix, k)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := graphResponse{
		Nodes: make([]graphNode, 0, s.cat.Len()+1),
		Edges: make([]graphEdge, 0, len(edges)),
	}
	for i := range s.cat.Mice {
		resp.Nodes = append(resp.Nodes, graphNode{
			ID:    mouseNodeID(i),
			Name:  s.cat.Mice[i].Name,
			Index: i,
		})
	}
	for _, e := range edges {
		resp.Edges = append(resp.Edges, graphEdge{
			Source:     edgeSourceID(e.Source),
			Target:     mouseNodeID(e.Target),
			Similarity: clamp01(float64(e.Similarity)),
		})
	}

	if req.Preferences != nil {
		if err := req.Preferences.Validate(); err != nil {
			s.writeError(w, err)
			return
		}
		query, err := s.rec.QueryVector(r.Context(), req.Preferences)
		if err != nil {
			s.writeError(w, err)
			return
		}
		queryEdges, err := graph.QueryEdges(matrix, query, k)
		if err != nil {
			s.writeError(w, err)
			return
		}

		resp.Nodes = append(resp.Nodes, graphNode{ID: userNodeID, Name: "Your Preferences", Index: graph.QuerySource})
		for _, e := range queryEdges {
			resp.Edges = append(resp.Edges, graphEdge{
				Source:     edgeSourceID(e.Source),
				Target:     mouseNodeID(e.Target),
				Similarity: clamp01(float64(e.Similarity)),
			})
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}
