package handler

import (
	"cinema-seat-booking/internal/feed"
	"cinema-seat-booking/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route of the booking API onto a fresh engine.
func NewRouter(seatService service.SeatService, hub *feed.Hub, feedClientBuffer int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS())

	r.GET("/healthz", Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	NewSeatHandler(seatService).RegisterRoutes(r)
	NewBookingHandler(seatService).RegisterRoutes(r)
	if hub != nil {
		NewFeedHandler(hub, feedClientBuffer).RegisterRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}
