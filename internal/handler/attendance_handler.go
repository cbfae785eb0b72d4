package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/internal/service"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
	"github.com/jaseeljazc/campuss-atd/pkg/response"
)

// AttendanceHandler exposes the attendance record endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	stats      *service.StatsService
	calendar   *service.CalendarService
}

// NewAttendanceHandler constructs the attendance handler.
func NewAttendanceHandler(attendance *service.AttendanceService, stats *service.StatsService, calendar *service.CalendarService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, stats: stats, calendar: calendar}
}

// Mark records attendance for one class period.
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req models.MarkPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	record, err := h.attendance.MarkPeriod(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update replaces the entries of an existing record.
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req models.UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	record, err := h.attendance.UpdatePeriod(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete removes a record.
func (h *AttendanceHandler) Delete(c *gin.Context) {
	if err := h.attendance.DeletePeriod(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Department lists raw records for a semester.
func (h *AttendanceHandler) Department(c *gin.Context) {
	semester, err := querySemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := queryDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	records, err := h.attendance.ListDepartment(c.Request.Context(), semester, models.AttendanceFilter{DateFrom: from, DateTo: to})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Student returns one student's marks and per-semester statistics.
func (h *AttendanceHandler) Student(c *gin.Context) {
	semester, err := queryOptionalSemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := queryDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.stats.StudentReport(c.Request.Context(), c.Param("id"), models.AttendanceFilter{Semester: semester, DateFrom: from, DateTo: to})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Calendar returns the reconstructed day-by-day view for a student.
func (h *AttendanceHandler) Calendar(c *gin.Context) {
	semester, err := querySemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := queryDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	calendar, err := h.calendar.BuildCalendar(c.Request.Context(), c.Param("id"), semester, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar, nil)
}
