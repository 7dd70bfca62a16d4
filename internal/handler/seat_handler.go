package handler

import (
	"cinema-seat-booking/internal/service"
	"cinema-seat-booking/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SeatHandler struct {
	service service.SeatService
}

func NewSeatHandler(service service.SeatService) *SeatHandler {
	return &SeatHandler{service: service}
}

func (h *SeatHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("seats", h.GetSeats)
	}
}

// GetSeats returns the full seat map ordered by row, then seat number.
func (h *SeatHandler) GetSeats(c *gin.Context) {
	seats, err := h.service.List(c)
	if err != nil {
		logger.WithComponent("handler").Error("failed to list seats",
			zap.String("operation", "GetSeats"), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	handleSuccess(c, seats, http.StatusOK)
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
