package handler

import (
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/internal/service"
	apperrors "cinema-seat-booking/pkg/app_errors"
	"cinema-seat-booking/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service service.SeatService
}

func NewBookingHandler(service service.SeatService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/functions/v1/book-seats", h.BookSeats)

	router := r.Group("/api/v1")
	{
		router.POST("bookings", h.BookSeats)
	}
}

func (h *BookingHandler) BookSeats(c *gin.Context) {
	var req model.BookingRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	resp, err := h.service.BookSeats(c, req)
	if err != nil {
		h.handleBookingError(c, err, "BookSeats")
		return
	}

	handleSuccess(c, resp, http.StatusOK)
}

func (h *BookingHandler) handleBookingError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEmptyBooking):
		log.Warn("Empty booking")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No seats provided",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid booking")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, apperrors.ErrSeatNotFound):
		log.Warn("Seat not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, apperrors.ErrSeatAlreadyTaken):
		log.Warn("Seat already taken")
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Booking failed: " + err.Error(),
		})
	}
}
