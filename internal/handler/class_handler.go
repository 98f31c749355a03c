package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/internal/service"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
	"github.com/izone-edu/izone-api/pkg/export"
	"github.com/izone-edu/izone-api/pkg/response"
)

// ClassHandler exposes class scheduling endpoints.
type ClassHandler struct {
	classes     *service.ClassService
	enrollments *service.EnrollmentService
	csv         *export.CSVExporter
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService, enrollments *service.EnrollmentService) *ClassHandler {
	return &ClassHandler{classes: classes, enrollments: enrollments, csv: export.NewCSVExporter()}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "Filter by course"
// @Param lecturerId query string false "Filter by lecturer"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	var filter models.ClassFilter
	filter.CourseID = c.Query("courseId")
	filter.LecturerID = c.Query("lecturerId")
	filter.Status = models.ClassStatus(strings.ToUpper(c.Query("status")))
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Class detail with occupancy
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Schedule a class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class schedule fields
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body service.UpdateClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// UpdateStatus godoc
// @Summary Move a class through its lifecycle
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body object true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/status [put]
func (h *ClassHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.UpdateStatus(c.Request.Context(), c.Param("id"), models.ClassStatus(strings.ToUpper(req.Status)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Complete godoc
// @Summary Finish a class and complete its studying enrollments
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/complete [post]
func (h *ClassHandler) Complete(c *gin.Context) {
	classID := c.Param("id")
	if _, err := h.classes.UpdateStatus(c.Request.Context(), classID, models.ClassStatusFinished); err != nil {
		response.Error(c, err)
		return
	}
	completed, err := h.enrollments.CompleteClass(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"class_id": classID, "completed_enrollments": completed}, nil)
}

// Roster godoc
// @Summary Class roster, as JSON or CSV
// @Tags Classes
// @Produce json
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param format query string false "json or csv"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/roster [get]
func (h *ClassHandler) Roster(c *gin.Context) {
	classID := c.Param("id")
	roster, err := h.classes.Roster(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "csv") {
		dataset := export.Dataset{
			Headers: []string{"Student ID", "Student Name", "Registration Type", "Payment Status", "Registered At"},
		}
		for _, row := range roster {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Student ID":        row.StudentID,
				"Student Name":      row.StudentName,
				"Registration Type": row.Type.Label(),
				"Payment Status":    row.PaymentStatus.Label(),
				"Registered At":     row.RegisteredAt.Format("2006-01-02"),
			})
		}
		raw, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=roster-%s.csv", classID))
		c.Data(http.StatusOK, "text/csv", raw)
		return
	}

	response.JSON(c, http.StatusOK, roster, nil)
}
