package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pixvault/internal/auth"
	"pixvault/internal/model"
	"pixvault/internal/service"
)

// MockUploadService is a mock implementation of service.UploadService.
type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Upload(ctx context.Context, caller auth.Identity, file service.FilePayload, meta service.RequestMeta) (*model.Upload, error) {
	args := m.Called(ctx, caller, file, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Upload), args.Error(1)
}

func (m *MockUploadService) GetUpload(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.Upload, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Upload), args.Error(1)
}

func (m *MockUploadService) ListByOwner(ctx context.Context, caller auth.Identity, page, limit int) ([]model.Upload, *service.Pagination, error) {
	args := m.Called(ctx, caller, page, limit)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]model.Upload), args.Get(1).(*service.Pagination), args.Error(2)
}

func (m *MockUploadService) SignedDownloadURL(ctx context.Context, caller auth.Identity, id uuid.UUID, expiresIn int) (string, int, error) {
	args := m.Called(ctx, caller, id, expiresIn)
	return args.String(0), args.Int(1), args.Error(2)
}

func (m *MockUploadService) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func (m *MockUploadService) Stats(ctx context.Context) (*service.UploadStatsView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadStatsView), args.Error(1)
}

func multipartPNG(t *testing.T, filename string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	assert.NoError(t, err)
	_, err = part.Write(make([]byte, size))
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func uploadContext(t *testing.T, body *bytes.Buffer, contentType string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &jwt.Token{Claims: &auth.Claims{
		UserID: uuid.New().String(),
		Email:  "ann@x.com",
		Role:   model.RoleUser,
	}})
	return c
}

func TestUploadHandler_Upload_RejectsOversizeBeforeRead(t *testing.T) {
	mockService := new(MockUploadService)
	h := NewUploadHandler(mockService, 16)

	body, contentType := multipartPNG(t, "big.png", 64)
	c := uploadContext(t, body, contentType)

	err := h.Upload(c)

	// rejected from the multipart header alone, without reading the part
	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	mockService.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadHandler_Upload_MissingFile(t *testing.T) {
	mockService := new(MockUploadService)
	h := NewUploadHandler(mockService, 16)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	assert.NoError(t, writer.Close())
	c := uploadContext(t, &buf, writer.FormDataContentType())

	err := h.Upload(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	mockService.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadHandler_Upload_PassesPayloadThrough(t *testing.T) {
	mockService := new(MockUploadService)
	mockService.On("Upload", mock.Anything, mock.Anything, mock.MatchedBy(func(p service.FilePayload) bool {
		return p.OriginalFilename == "pic.png" && p.Size == 8 && len(p.Content) == 8
	}), mock.Anything).Return(&model.Upload{OriginalFilename: "pic.png"}, nil)

	h := NewUploadHandler(mockService, 16)

	body, contentType := multipartPNG(t, "pic.png", 8)
	c := uploadContext(t, body, contentType)

	assert.NoError(t, h.Upload(c))
	mockService.AssertExpectations(t)
}
