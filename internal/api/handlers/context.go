package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/folioworks/careerbase/internal/api"
	"github.com/folioworks/careerbase/internal/api/middleware"
	"github.com/folioworks/careerbase/internal/service"
)

type ContextAssembler interface {
	BuildContext(ctx context.Context, userID, query string) (*service.AssembledContext, error)
}

type ContextHandler struct {
	assembler ContextAssembler
}

func NewContextHandler(assembler ContextAssembler) *ContextHandler {
	return &ContextHandler{assembler: assembler}
}

type BuildContextRequest struct {
	Query string `json:"query"`
}

type KnowledgeHitResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Category   string  `json:"category"`
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

type AssembledContextResponse struct {
	RecentMemories    []*MemoryResponse       `json:"recent_memories"`
	RelevantKnowledge []*KnowledgeHitResponse `json:"relevant_knowledge"`
	CareerInsights    []*MemoryResponse       `json:"career_insights"`
	PersonalContext   map[string]string       `json:"personal_context"`
}

// Build assembles the retrieval context for a conversational turn. All four
// sections are always present in the response, possibly empty.
func (h *ContextHandler) Build(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BuildContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assembled, err := h.assembler.BuildContext(r.Context(), userID, req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := AssembledContextResponse{
		RecentMemories:    make([]*MemoryResponse, len(assembled.RecentMemories)),
		RelevantKnowledge: make([]*KnowledgeHitResponse, len(assembled.RelevantKnowledge)),
		CareerInsights:    make([]*MemoryResponse, len(assembled.CareerInsights)),
		PersonalContext:   assembled.PersonalContext,
	}
	for i, m := range assembled.RecentMemories {
		resp.RecentMemories[i] = memoryToResponse(m)
	}
	for i, hit := range assembled.RelevantKnowledge {
		resp.RelevantKnowledge[i] = &KnowledgeHitResponse{
			ChunkID:    hit.ChunkID,
			DocumentID: hit.DocumentID,
			Filename:   hit.Filename,
			Category:   string(hit.Category),
			Index:      hit.Index,
			Text:       hit.Text,
			Score:      hit.Score,
		}
	}
	for i, m := range assembled.CareerInsights {
		resp.CareerInsights[i] = memoryToResponse(m)
	}

	api.Success(w, http.StatusOK, resp)
}
