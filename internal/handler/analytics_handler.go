package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaseeljazc/campuss-atd/internal/service"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
	"github.com/jaseeljazc/campuss-atd/pkg/response"
)

const defaultLowAttendanceThreshold = 75.0

// AnalyticsHandler exposes the aggregate attendance views and exports.
type AnalyticsHandler struct {
	stats  *service.StatsService
	export *service.ExportService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(stats *service.StatsService, export *service.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{stats: stats, export: export}
}

// Students returns each student of a semester with their percentage.
func (h *AnalyticsHandler) Students(c *gin.Context) {
	semester, err := querySemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	rows, err := h.stats.StudentsWithAttendance(c.Request.Context(), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, map[string]interface{}{
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}

// LowAttendance returns students below the threshold, worst first.
func (h *AnalyticsHandler) LowAttendance(c *gin.Context) {
	semester, err := querySemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	threshold, err := queryThreshold(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	rows, err := h.stats.LowAttendance(c.Request.Context(), semester, threshold)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Summary returns the semester-level aggregates.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	semester, err := querySemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.stats.SemesterSummary(c.Request.Context(), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ExportLowAttendance streams the low-attendance list as CSV.
func (h *AnalyticsHandler) ExportLowAttendance(c *gin.Context) {
	semester, err := querySemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	threshold, err := queryThreshold(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.export.LowAttendanceCSV(c.Request.Context(), semester, threshold)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}

// StudentReport streams one student's attendance report as PDF.
func (h *AnalyticsHandler) StudentReport(c *gin.Context) {
	semester, err := querySemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.export.StudentReportPDF(c.Request.Context(), c.Param("id"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}

// Download re-serves an archived export by signed token.
func (h *AnalyticsHandler) Download(c *gin.Context) {
	result, err := h.export.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}

func writeExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	if result.Token != "" {
		c.Header("X-Export-Token", result.Token)
	}
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func queryThreshold(c *gin.Context) (float64, error) {
	raw := c.Query("threshold")
	if raw == "" {
		return defaultLowAttendanceThreshold, nil
	}
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || threshold < 0 || threshold > 100 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "threshold must be a number between 0 and 100")
	}
	return threshold, nil
}
