package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pixvault/internal/service"
)

// ReportHandler handles admin reporting endpoints.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Dashboard godoc
// @Summary Get dashboard statistics (admin only)
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errors.ErrorResponse
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c echo.Context) error {
	dashboard, err := h.reportService.Dashboard(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"dashboard": dashboard,
	})
}

// UploadsByDate godoc
// @Summary Get uploads grouped by date (admin only)
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /reports/uploads-by-date [get]
func (h *ReportHandler) UploadsByDate(c echo.Context) error {
	rows, period, err := h.reportService.UploadsByDate(
		c.Request().Context(),
		c.QueryParam("start_date"),
		c.QueryParam("end_date"),
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rows,
		"period":  period,
	})
}
