package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izone-edu/izone-api/internal/models"
	"github.com/izone-edu/izone-api/pkg/response"
)

// StatusHandler serves the server-authoritative status vocabulary.
type StatusHandler struct{}

// NewStatusHandler constructs StatusHandler.
func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

// Vocabulary godoc
// @Summary Status code to display label mapping for every status dimension
// @Tags Statuses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statuses [get]
func (h *StatusHandler) Vocabulary(c *gin.Context) {
	response.JSON(c, http.StatusOK, models.Vocabulary(), nil)
}
