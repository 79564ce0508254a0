package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"cab/internal/handler"
	"cab/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler *handler.BookingHandler
	RiderHandler   *handler.RiderHandler
	VehicleHandler *handler.VehicleHandler
	PaymentHandler *handler.PaymentHandler
	RedisClient    *redis.Client         // optional
	NewRelicApp    *newrelic.Application // optional
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicErrorReporter())
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.POST("/eco", deps.BookingHandler.CreateEcoBooking)
			bookings.GET("", deps.BookingHandler.GetAll)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.GET("/:id/receipt", deps.BookingHandler.GetReceipt)
			bookings.POST("/:id/complete", deps.BookingHandler.CompleteBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
		}

		// Rider routes.
		riders := v1.Group("/riders")
		{
			riders.POST("/register", deps.RiderHandler.Register)
			riders.GET("", deps.RiderHandler.GetAll)
			riders.GET("/:id", deps.RiderHandler.GetRider)
			riders.GET("/:id/bookings", deps.RiderHandler.GetBookings)
		}

		// Vehicle routes.
		vehicles := v1.Group("/vehicles")
		{
			vehicles.GET("", deps.VehicleHandler.GetAll)
			vehicles.GET("/:id", deps.VehicleHandler.GetVehicle)
		}

		// Payment routes.
		v1.GET("/payments/:id", deps.PaymentHandler.GetPayment)
	}

	return router
}
