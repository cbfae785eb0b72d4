package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/internal/service"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
	"github.com/jaseeljazc/campuss-atd/pkg/response"
)

// LeaveHandler exposes the class and college leave endpoints.
type LeaveHandler struct {
	leaves *service.LeaveService
}

// NewLeaveHandler constructs the leave handler.
func NewLeaveHandler(leaves *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

// MarkClass registers a class leave day.
func (h *LeaveHandler) MarkClass(c *gin.Context) {
	var req service.MarkClassLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	leave, err := h.leaves.MarkClassLeave(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// ListClass lists class leaves, newest first.
func (h *LeaveHandler) ListClass(c *gin.Context) {
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

	leaves, err := h.leaves.ListClassLeaves(c.Request.Context(), models.LeaveFilter{Semester: semester, DateFrom: from, DateTo: to})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// RemoveClass deletes a class leave by semester and date.
func (h *LeaveHandler) RemoveClass(c *gin.Context) {
	semester, err := querySemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	if date == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}

	if err := h.leaves.RemoveClassLeave(c.Request.Context(), semester, *date); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkCollege registers a college leave day.
func (h *LeaveHandler) MarkCollege(c *gin.Context) {
	var req service.MarkCollegeLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	leave, err := h.leaves.MarkCollegeLeave(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// ListCollege lists college leaves, newest first.
func (h *LeaveHandler) ListCollege(c *gin.Context) {
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

	leaves, err := h.leaves.ListCollegeLeaves(c.Request.Context(), models.LeaveFilter{Semester: semester, DateFrom: from, DateTo: to})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// RemoveCollege deletes a college leave by date.
func (h *LeaveHandler) RemoveCollege(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	if date == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	semester, err := queryOptionalSemester(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.leaves.RemoveCollegeLeave(c.Request.Context(), *date, semester); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
