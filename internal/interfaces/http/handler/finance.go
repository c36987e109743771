package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	financeapp "github.com/tripdesk/backend/internal/application/finance"
	"github.com/tripdesk/backend/internal/interfaces/http/dto"
)

// FinanceHandler serves the finance dashboard and payment mutations
type FinanceHandler struct {
	BaseHandler
	service *financeapp.FinanceService
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(service *financeapp.FinanceService) *FinanceHandler {
	return &FinanceHandler{service: service}
}

// RegisterRoutes registers finance routes
func (h *FinanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	finance := rg.Group("/finance")
	{
		finance.GET("/dashboard", h.Dashboard)
		finance.GET("/metrics", h.Metrics)
		finance.GET("/export", h.Export)

		finance.POST("/payments", h.RecordPayment)
		finance.PUT("/payments/:id", h.UpdatePayment)
		finance.DELETE("/payments/:id", h.DeletePayment)

		finance.POST("/reservations/:id/invoice", h.IssueInvoice)
		finance.PUT("/reservations/:id/supplier-paid", h.SetSupplierPaid)
	}
}

// Dashboard returns one page of reconciled finance records plus metrics
// over the whole filtered set
// GET /api/v1/finance/dashboard
func (h *FinanceHandler) Dashboard(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var filter financeapp.DashboardFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.Dashboard(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, resp, resp.Total, resp.Page, resp.PageSize)
}

// Metrics returns agency-wide finance metrics
// GET /api/v1/finance/metrics
func (h *FinanceHandler) Metrics(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	metrics, err := h.service.AgencyMetrics(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, metrics)
}

// Export returns the filtered record set without pagination, for export
// GET /api/v1/finance/export
func (h *FinanceHandler) Export(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var filter financeapp.DashboardFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	result, err := h.service.ExportRows(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RecordPayment records a payment against a booking
// POST /api/v1/finance/payments
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req financeapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payment, err := h.service.RecordPayment(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, payment)
}

// UpdatePayment edits an existing payment
// PUT /api/v1/finance/payments/:id
func (h *FinanceHandler) UpdatePayment(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req financeapp.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payment, err := h.service.UpdatePayment(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// DeletePayment removes a payment
// DELETE /api/v1/finance/payments/:id
func (h *FinanceHandler) DeletePayment(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.service.DeletePayment(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// IssueInvoice marks a reservation's invoice as issued
// POST /api/v1/finance/reservations/:id/invoice
func (h *FinanceHandler) IssueInvoice(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	reservation, err := h.service.IssueInvoice(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}

// SupplierPaidRequest is the payload for the supplier-settled toggle
type SupplierPaidRequest struct {
	Paid *bool `json:"paid" binding:"required"`
}

// SetSupplierPaid marks whether the supplier has been settled for a booking
// PUT /api/v1/finance/reservations/:id/supplier-paid
func (h *FinanceHandler) SetSupplierPaid(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req SupplierPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	reservation, err := h.service.SetSupplierPaid(c.Request.Context(), actor, id, *req.Paid)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}

// bindID binds the :id path parameter, writing a 400 on failure
func (h *BaseHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}
