package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/folioworks/careerbase/internal/api/middleware"
	"github.com/folioworks/careerbase/internal/domain"
	"github.com/folioworks/careerbase/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, input service.UploadInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, input service.ListDocumentsInput) (*service.DocumentPageResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentPageResult), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentService) Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeBaseStats), args.Error(1)
}

func withUser(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func multipartUpload(t *testing.T, filename, category, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	require.NoError(t, writer.WriteField("category", category))

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:         "doc-1",
		OwnerID:    "user-1",
		Filename:   "interview.txt",
		Category:   domain.CategoryInterviewTranscript,
		SizeBytes:  11,
		Status:     domain.DocumentStatusProcessing,
		UploadedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDocumentHandler_Upload(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("Upload", mock.Anything, mock.MatchedBy(func(input service.UploadInput) bool {
		return input.OwnerID == "user-1" &&
			input.Filename == "interview.txt" &&
			input.Category == domain.CategoryInterviewTranscript &&
			string(input.Data) == "hello world"
	})).Return(testDocument(), nil)

	body, contentType := multipartUpload(t, "interview.txt", "interview-transcript", "text/plain", []byte("hello world"))
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, "user-1")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Data DocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.Data.ID)
	assert.Equal(t, "processing", resp.Data.Status)
	svc.AssertExpectations(t)
}

func TestDocumentHandler_Upload_NoUser(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	body, contentType := multipartUpload(t, "interview.txt", "interview-transcript", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Upload")
}

func TestDocumentHandler_Upload_MissingCategory(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "interview.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = withUser(req, "user-1")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "category is required")
}

func TestDocumentHandler_Upload_UnsupportedFormat(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("Upload", mock.Anything, mock.Anything).Return(nil, domain.ErrUnsupportedFormat)

	body, contentType := multipartUpload(t, "resume.pdf", "resume-version", "application/pdf", []byte{0x25, 0x50})
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, "user-1")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestDocumentHandler_Get(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	doc := testDocument()
	doc.Status = domain.DocumentStatusEmbedded
	doc.ChunkCount = 3
	processedAt := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	doc.ProcessedAt = &processedAt

	svc.On("GetByID", mock.Anything, "doc-1").Return(doc, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1", nil)
	req = withURLParam(withUser(req, "user-1"), "id", "doc-1")

	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "embedded", resp.Data.Status)
	assert.Equal(t, 3, resp.Data.ChunkCount)
	assert.NotEmpty(t, resp.Data.ProcessedAt)
}

func TestDocumentHandler_Get_NotFound(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrDocumentNotFound)

	req := httptest.NewRequest(http.MethodGet, "/documents/missing", nil)
	req = withURLParam(withUser(req, "user-1"), "id", "missing")

	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_List(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("List", mock.Anything, service.ListDocumentsInput{
		OwnerID: "user-1",
		Cursor:  "abc",
		Limit:   5,
	}).Return(&service.DocumentPageResult{
		Items:      []*domain.Document{testDocument()},
		NextCursor: "next",
		HasMore:    true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents?cursor=abc&limit=5", nil)
	req = withUser(req, "user-1")

	w := httptest.NewRecorder()
	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DocumentListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "next", resp.Data.Cursor)
	assert.True(t, resp.Data.HasMore)
}

func TestDocumentHandler_Delete(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("Delete", mock.Anything, "doc-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/documents/doc-1", nil)
	req = withURLParam(withUser(req, "user-1"), "id", "doc-1")

	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDocumentHandler_Delete_NotFound(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("Delete", mock.Anything, "missing").Return(domain.ErrDocumentNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/documents/missing", nil)
	req = withURLParam(withUser(req, "user-1"), "id", "missing")

	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_Stats(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)

	svc.On("Stats", mock.Anything).Return(&domain.KnowledgeBaseStats{
		TotalDocuments: 3,
		DocumentsByCategory: map[domain.DocumentCategory]int{
			domain.CategoryResumeVersion: 2,
			domain.CategoryCareerPlan:    1,
		},
		DocumentsByStatus: map[domain.DocumentStatus]int{
			domain.DocumentStatusEmbedded:   2,
			domain.DocumentStatusProcessing: 1,
		},
		TotalChunks: 42,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req = withUser(req, "user-1")

	w := httptest.NewRecorder()
	handler.Stats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.TotalDocuments)
	assert.Equal(t, 2, resp.Data.DocumentsByCategory["resume-version"])
	assert.Equal(t, 1, resp.Data.DocumentsByStatus["processing"])
	assert.Equal(t, 42, resp.Data.TotalChunks)
}
