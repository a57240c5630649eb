package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/folioworks/careerbase/internal/api"
	"github.com/folioworks/careerbase/internal/api/middleware"
	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/service"
	"github.com/go-chi/chi/v5"
)

type MemoryService interface {
	Record(ctx context.Context, input service.RecordInput) (*domain.Memory, error)
	GetByID(ctx context.Context, userID, memoryID string) (*domain.Memory, error)
	Query(ctx context.Context, input service.QueryInput) ([]*domain.Memory, error)
}

type MemoryHandler struct {
	svc MemoryService
}

func NewMemoryHandler(svc MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

type RecordMemoryRequest struct {
	Content  string            `json:"content"`
	Category string            `json:"category,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type MemoryResponse struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Category   string            `json:"category"`
	Importance float64           `json:"importance"`
	Metadata   map[string]string `json:"metadata"`
	CreatedAt  string            `json:"created_at"`
}

func memoryToResponse(m *domain.Memory) *MemoryResponse {
	return &MemoryResponse{
		ID:         m.ID,
		Content:    m.Content,
		Category:   string(m.Category),
		Importance: m.Importance,
		Metadata:   m.Metadata,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

func (h *MemoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RecordMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	mem, err := h.svc.Record(r.Context(), service.RecordInput{
		UserID:   userID,
		Content:  req.Content,
		Category: domain.MemoryCategory(req.Category),
		Metadata: req.Metadata,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, memoryToResponse(mem))
}

func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	mem, err := h.svc.GetByID(r.Context(), userID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, memoryToResponse(mem))
}

type MemoryListResponse struct {
	Items []*MemoryResponse `json:"items"`
}

// List queries memories. With q the results are ranked by blended
// relevance, importance and recency; otherwise newest first.
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := r.URL.Query()
	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	mems, err := h.svc.Query(r.Context(), service.QueryInput{
		UserID:   userID,
		Category: domain.MemoryCategory(query.Get("category")),
		FreeText: query.Get("q"),
		Limit:    limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*MemoryResponse, len(mems))
	for i, m := range mems {
		items[i] = memoryToResponse(m)
	}

	api.Success(w, http.StatusOK, MemoryListResponse{Items: items})
}
