package handler

import (
	"github.com/gin-gonic/gin"

	bookingapp "github.com/tripdesk/backend/internal/application/booking"
)

// ReservationHandler serves reservation CRUD and per-booking payment lookups
type ReservationHandler struct {
	BaseHandler
	service *bookingapp.BookingService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(service *bookingapp.BookingService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// RegisterRoutes registers reservation routes
func (h *ReservationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reservations := rg.Group("/reservations")
	{
		reservations.GET("", h.List)
		reservations.POST("", h.Create)
		reservations.GET("/:id", h.Get)
		reservations.GET("/:id/payments", h.ListPayments)
	}
}

// List returns reservations visible to the actor
// GET /api/v1/reservations
func (h *ReservationHandler) List(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var filter bookingapp.ListReservationsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	reservations, total, err := h.service.ListReservations(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, reservations, total, page, pageSize)
}

// Create registers a new reservation
// POST /api/v1/reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	var req bookingapp.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	reservation, err := h.service.CreateReservation(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, reservation)
}

// Get returns one reservation by ID
// GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	reservation, err := h.service.GetReservation(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, reservation)
}

// ListPayments returns all payments recorded against one reservation
// GET /api/v1/reservations/:id/payments
func (h *ReservationHandler) ListPayments(c *gin.Context) {
	actor, ok := h.getActor(c)
	if !ok {
		return
	}

	id, ok := h.bindID(c)
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}
