package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/folioworks/careerbase/internal/api"
	"github.com/folioworks/careerbase/internal/api/middleware"
	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxUploadBytes bounds the multipart form memory for document uploads.
const maxUploadBytes = 5 << 20

type DocumentService interface {
	Upload(ctx context.Context, input service.UploadInput) (*domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, input service.ListDocumentsInput) (*service.DocumentPageResult, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type DocumentResponse struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	Category      string `json:"category"`
	SizeBytes     int64  `json:"size_bytes"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	ChunkCount    int    `json:"chunk_count"`
	UploadedAt    string `json:"uploaded_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	resp := &DocumentResponse{
		ID:            d.ID,
		Filename:      d.Filename,
		Category:      string(d.Category),
		SizeBytes:     d.SizeBytes,
		Status:        string(d.Status),
		FailureReason: d.FailureReason,
		ChunkCount:    d.ChunkCount,
		UploadedAt:    d.UploadedAt.Format(time.RFC3339),
	}
	if d.ProcessedAt != nil {
		resp.ProcessedAt = d.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

// Upload accepts a multipart upload (file + category) and returns 202; the
// document is chunked and embedded asynchronously.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	category := r.FormValue("category")
	if category == "" {
		api.Error(w, http.StatusBadRequest, "category is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	input := service.UploadInput{
		OwnerID:  userID,
		Filename: header.Filename,
		Category: domain.DocumentCategory(category),
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}

	doc, err := h.svc.Upload(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, documentToResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

type DocumentListResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.svc.List(r.Context(), service.ListDocumentsInput{
		OwnerID: userID,
		Cursor:  cursor,
		Limit:   limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, len(page.Items))
	for i, d := range page.Items {
		items[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, DocumentListResponse{
		Items:   items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

type StatsResponse struct {
	TotalDocuments      int            `json:"total_documents"`
	DocumentsByCategory map[string]int `json:"documents_by_category"`
	DocumentsByStatus   map[string]int `json:"documents_by_status"`
	TotalChunks         int            `json:"total_chunks"`
}

func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	byCategory := make(map[string]int, len(stats.DocumentsByCategory))
	for category, count := range stats.DocumentsByCategory {
		byCategory[string(category)] = count
	}
	byStatus := make(map[string]int, len(stats.DocumentsByStatus))
	for status, count := range stats.DocumentsByStatus {
		byStatus[string(status)] = count
	}

	api.Success(w, http.StatusOK, StatsResponse{
		TotalDocuments:      stats.TotalDocuments,
		DocumentsByCategory: byCategory,
		DocumentsByStatus:   byStatus,
		TotalChunks:         stats.TotalChunks,
	})
}
