package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"pixvault/internal/auth"
	apperrors "pixvault/internal/errors"
	"pixvault/internal/service"
)

// UploadHandler handles the upload pipeline and lifecycle endpoints.
type UploadHandler struct {
	uploadService service.UploadService
	maxBytes      int64
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(uploadService service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxBytes: maxBytes}
}

// Upload godoc
// @Summary Upload a PNG file and generate its QR code
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PNG file to upload (max 10MB)"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	caller, err := auth.IdentityFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, apperrors.ErrNoFile)
	}

	// Reject oversized files before buffering the part into memory.
	if fileHeader.Size > h.maxBytes {
		return respondError(c, apperrors.ErrFileTooLarge)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, apperrors.ErrNoFile)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.Logger().Errorf("read upload body: %v", err)
		return respondError(c, err)
	}

	payload := service.FilePayload{
		OriginalFilename: fileHeader.Filename,
		MimeType:         fileHeader.Header.Get("Content-Type"),
		Size:             fileHeader.Size,
		Content:          content,
	}
	meta := service.RequestMeta{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}

	upload, err := h.uploadService.Upload(c.Request().Context(), caller, payload, meta)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "File uploaded successfully",
		"upload":  upload,
	})
}

// MyUploads godoc
// @Summary Get current user's uploads
// @Tags upload
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Uploads per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /upload/my-uploads [get]
func (h *UploadHandler) MyUploads(c echo.Context) error {
	caller, err := auth.IdentityFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	uploads, pagination, err := h.uploadService.ListByOwner(c.Request().Context(), caller, page, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"uploads":    uploads,
		"pagination": pagination,
	})
}

// GetUpload godoc
// @Summary Get upload by ID
// @Tags upload
// @Produce json
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /upload/{id} [get]
func (h *UploadHandler) GetUpload(c echo.Context) error {
	caller, err := auth.IdentityFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	upload, err := h.uploadService.GetUpload(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"upload":  upload,
	})
}

// Download godoc
// @Summary Generate a signed URL for file download
// @Tags upload
// @Produce json
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Param expires query int false "URL expiration in seconds" default(3600)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /upload/{id}/download [get]
func (h *UploadHandler) Download(c echo.Context) error {
	caller, err := auth.IdentityFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	expires, _ := strconv.Atoi(c.QueryParam("expires"))

	url, expiresIn, err := h.uploadService.SignedDownloadURL(c.Request().Context(), caller, id, expires)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"downloadUrl": url,
		"expiresIn":   expiresIn,
	})
}

// Delete godoc
// @Summary Delete upload and associated stored objects
// @Tags upload
// @Produce json
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /upload/{id} [delete]
func (h *UploadHandler) Delete(c echo.Context) error {
	caller, err := auth.IdentityFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.uploadService.Delete(c.Request().Context(), caller, id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Upload deleted successfully",
	})
}

// Stats godoc
// @Summary Get upload statistics
// @Tags upload
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /upload/stats [get]
func (h *UploadHandler) Stats(c echo.Context) error {
	stats, err := h.uploadService.Stats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// respondError translates domain errors into the shared error envelope.
// Unexpected errors are logged and surface as a generic 500.
func respondError(c echo.Context, err error) error {
	he := apperrors.MapErrorToHTTP(err)
	if he.StatusCode == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}
