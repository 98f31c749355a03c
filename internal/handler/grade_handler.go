package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izone-edu/izone-api/internal/service"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
	"github.com/izone-edu/izone-api/pkg/response"
)

// GradeHandler exposes exam grading endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Record godoc
// @Summary Record or replace an exam grade
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RecordGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Record(c *gin.Context) {
	var req service.RecordGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Report godoc
// @Summary A student's grade report for one class
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param studentId query string true "Student ID"
// @Param classId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /grades/report [get]
func (h *GradeHandler) Report(c *gin.Context) {
	studentID := c.Query("studentId")
	classID := c.Query("classId")
	if studentID == "" || classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId and classId are required"))
		return
	}
	report, err := h.grades.Report(c.Request.Context(), studentID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ByClass godoc
// @Summary All grades recorded for a class
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/grades [get]
func (h *GradeHandler) ByClass(c *gin.Context) {
	grades, err := h.grades.ClassGrades(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}
