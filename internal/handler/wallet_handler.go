package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izone-edu/izone-api/internal/service"
	appErrors "github.com/izone-edu/izone-api/pkg/errors"
	"github.com/izone-edu/izone-api/pkg/response"
)

// WalletHandler exposes student wallet endpoints.
type WalletHandler struct {
	wallets *service.WalletService
}

// NewWalletHandler constructs WalletHandler.
func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// Balance godoc
// @Summary Current wallet balance for a student
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/wallet [get]
func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.wallets.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}

// History godoc
// @Summary Wallet transaction history for a student
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/wallet/transactions [get]
func (h *WalletHandler) History(c *gin.Context) {
	history, err := h.wallets.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Credit godoc
// @Summary Credit a student's wallet
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.WalletAdjustmentRequest true "Adjustment payload"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/wallet/credit [post]
func (h *WalletHandler) Credit(c *gin.Context) {
	var req service.WalletAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.StudentID = c.Param("id")
	tx, err := h.wallets.Credit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// Debit godoc
// @Summary Debit a student's wallet
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body service.WalletAdjustmentRequest true "Adjustment payload"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/wallet/debit [post]
func (h *WalletHandler) Debit(c *gin.Context) {
	var req service.WalletAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.StudentID = c.Param("id")
	tx, err := h.wallets.Debit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}
