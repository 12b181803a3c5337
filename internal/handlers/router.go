package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ihcportal/booking-backend/internal/config"
	"github.com/ihcportal/booking-backend/internal/middleware"
	"github.com/ihcportal/booking-backend/pkg/jwt"
)

// RouterDeps holds what NewRouter wires into routes
type RouterDeps struct {
	Auth     AuthAPI
	Bookings BookingAPI
	Store    Pinger
	Backend  string
	Version  string

	JWT        *jwt.Service
	StaffKey   string
	CORS       config.CORSConfig
	RequestLog bool
	Logger     *logrus.Logger
}

// NewRouter builds the gin engine with every API route
func NewRouter(deps RouterDeps) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	if deps.RequestLog {
		router.Use(middleware.RequestLogger(deps.Logger))
	}

	if len(deps.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(deps.CORS)))
	}

	router.GET("/health", HealthHandler(deps.Store, deps.Backend, deps.Version))

	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	bookingHandler := NewBookingHandler(deps.Bookings, deps.Logger)
	staffHandler := NewStaffHandler(deps.Bookings, deps.Logger)

	requireUser := middleware.AuthMiddleware(deps.JWT)
	requireStaff := middleware.StaffMiddleware(deps.StaffKey)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", requireUser, authHandler.GetMe)
		}

		v1.GET("/status/:userId", requireUser, authHandler.GetStatus)

		booking := v1.Group("/booking")
		{
			booking.POST("/:userId", requireUser, bookingHandler.CreateBooking)
			booking.POST("/:userId/paymentMethod", requireUser, bookingHandler.SetPaymentMethod)
			booking.GET("/:userId", requireUser, bookingHandler.ListBookings)
			booking.GET("/:userId/:bookingId", requireUser, bookingHandler.GetBooking)
			booking.GET("/:userId/:bookingId/invoice", requireUser, bookingHandler.GetInvoice)
			booking.DELETE("/:bookingId", requireUser, bookingHandler.DeleteBooking)

			booking.PUT("/:bookingId/invoice", requireStaff, staffHandler.ApproveBooking)
			booking.PUT("/:bookingId/confirmPayment", requireStaff, staffHandler.ConfirmPayment)
		}

		staff := v1.Group("/staff", requireStaff)
		{
			staff.GET("/bookings", staffHandler.ListBookings)
			staff.GET("/bookings/:bookingId", staffHandler.GetBooking)
		}
	}

	return router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  cfg.AllowedMethods,
		AllowHeaders:  cfg.AllowedHeaders,
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}
