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

// PaymentHandler exposes payment endpoints including the provider callback.
type PaymentHandler struct {
	payments *service.PaymentService
	pdf      *export.PDFExporter
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments, pdf: export.NewPDFExporter()}
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Filter by student"
// @Param enrollmentId query string false "Filter by enrollment"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter models.PaymentFilter
	filter.StudentID = c.Query("studentId")
	filter.EnrollmentID = c.Query("enrollmentId")
	filter.Status = models.TransactionStatus(strings.ToUpper(c.Query("status")))
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	payments, pagination, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Get godoc
// @Summary Payment detail
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Start godoc
// @Summary Start an external payment
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.StartPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Start(c *gin.Context) {
	var req service.StartPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Start(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Callback godoc
// @Summary Provider settlement callback
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.ConfirmPaymentRequest true "Settlement payload"
// @Success 200 {object} response.Envelope
// @Router /payments/callback [post]
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req service.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Confirm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Receipt godoc
// @Summary Download a PDF receipt for a settled payment
// @Tags Payments
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200
// @Router /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if payment.Status != models.TransactionStatusSuccess {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment is not settled"))
		return
	}

	enrollmentID := ""
	if payment.EnrollmentID != nil {
		enrollmentID = *payment.EnrollmentID
	}
	settledAt := ""
	if payment.SettledAt != nil {
		settledAt = payment.SettledAt.Format("2006-01-02 15:04")
	}

	dataset := export.Dataset{
		Headers: []string{"Field", "Value"},
		Rows: []map[string]string{
			{"Field": "Payment ID", "Value": payment.ID},
			{"Field": "Reference", "Value": payment.Reference},
			{"Field": "Student", "Value": payment.StudentID},
			{"Field": "Enrollment", "Value": enrollmentID},
			{"Field": "Amount (VND)", "Value": fmt.Sprintf("%d", payment.Amount)},
			{"Field": "Method", "Value": payment.Method},
			{"Field": "Settled At", "Value": settledAt},
		},
	}
	raw, err := h.pdf.Render(dataset, "Payment Receipt")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", payment.ID))
	c.Data(http.StatusOK, "application/pdf", raw)
}
