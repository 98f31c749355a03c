package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/internal/service"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
	"github.com/izone-edu/izone-api/pkg/response"
)

// LecturerHandler exposes lecturer endpoints.
type LecturerHandler struct {
	lecturers *service.LecturerService
}

// NewLecturerHandler constructs LecturerHandler.
func NewLecturerHandler(lecturers *service.LecturerService) *LecturerHandler {
	return &LecturerHandler{lecturers: lecturers}
}

// List godoc
// @Summary List lecturers
// @Tags Lecturers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name or email"
// @Param specialty query string false "Filter by specialty"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lecturers [get]
func (h *LecturerHandler) List(c *gin.Context) {
	var filter models.LecturerFilter
	filter.Search = c.Query("search")
	filter.Specialty = c.Query("specialty")
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	lecturers, pagination, err := h.lecturers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturers, pagination)
}

// Get godoc
// @Summary Lecturer detail
// @Tags Lecturers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *LecturerHandler) Get(c *gin.Context) {
	lecturer, err := h.lecturers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// Create godoc
// @Summary Register a lecturer
// @Tags Lecturers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateLecturerRequest true "Lecturer payload"
// @Success 201 {object} response.Envelope
// @Router /lecturers [post]
func (h *LecturerHandler) Create(c *gin.Context) {
	var req service.CreateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lecturer, err := h.lecturers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecturer)
}

// Update godoc
// @Summary Update a lecturer
// @Tags Lecturers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lecturer ID"
// @Param payload body service.UpdateLecturerRequest true "Lecturer payload"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id} [put]
func (h *LecturerHandler) Update(c *gin.Context) {
	var req service.UpdateLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lecturer, err := h.lecturers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}
