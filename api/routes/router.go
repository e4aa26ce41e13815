// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"busline/internal/analytics"
	"busline/internal/auth"
	"busline/internal/bookings"
	"busline/internal/companies"
	"busline/internal/fleet"
	"busline/internal/notifications"
	"busline/internal/payments"
	"busline/internal/realtime"
	busroutes "busline/internal/routes"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/internal/tickets"
	"busline/internal/trips"
	"busline/pkg/cache"
	"busline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router wires repositories, services and controllers and mounts them on the engine.
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier *notifications.Service
	hub      *realtime.Hub

	bookingService bookings.Service
}

// NewRouter creates a new router instance. notifier and hub may be nil.
func NewRouter(cfg *config.Config, db *database.DB, notifier *notifications.Service, hub *realtime.Hub) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
		hub:      hub,
	}
}

// BookingService is available after SetupRoutes; the expiry scheduler runs against it.
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	pg := r.db.PostgreSQL
	cacheService := cache.NewNoop()
	if r.db.Redis != nil {
		cacheService = cache.NewService(r.db.Redis)
	}

	api := engine.Group(r.config.GetAPIBasePath())

	// auth
	authRepo := auth.NewRepository(pg)
	auth.NewRouter(auth.NewController(auth.NewService(authRepo, r.config)), r.config).SetupRoutes(api)

	// reference data
	routeService := busroutes.NewService(busroutes.NewRepository(pg), cacheService)
	busroutes.SetupRouteRoutes(api, busroutes.NewController(routeService))

	companyService := companies.NewService(companies.NewRepository(pg), cacheService, r.config.Booking.MaxReservationHours)
	companies.SetupCompanyRoutes(api, companies.NewController(companyService))

	fleetService := fleet.NewService(fleet.NewRepository(pg))
	fleet.SetupFleetRoutes(api, fleet.NewController(fleetService))

	tripService := trips.NewService(trips.NewRepository(pg), routeService, fleetService)

	// booking engine
	paymentRepo := payments.NewRepository(pg)
	deps := bookings.Dependencies{
		Repo:            bookings.NewRepository(pg),
		Trips:           tripService,
		Fleet:           fleetService,
		Companies:       companyService,
		Cities:          routeService,
		Operators:       auth.NewOperatorDirectory(authRepo),
		Refunder:        payments.NewRefundIssuer(paymentRepo),
		Config:          r.config.Booking,
		ExpiryBatchSize: r.config.Expiry.BatchSize,
		EffectTimeout:   r.config.Messaging.PublishTimeout,
		Logger:          logger.GetDefault().WithComponent("bookings"),
	}
	// typed nils must not reach the interfaces
	if r.notifier != nil {
		deps.Notifier = r.notifier
	}
	if r.hub != nil {
		deps.Broadcaster = r.hub
	}
	bookingService := bookings.NewService(deps)
	r.bookingService = bookingService

	trips.SetupTripRoutes(api, trips.NewController(tripService, bookingService))
	bookings.SetupBookingRoutes(api, bookings.NewController(bookingService, tickets.NewRenderer()))

	paymentService := payments.NewService(paymentRepo, bookingService, r.config.Payments)
	payments.SetupPaymentRoutes(api, payments.NewController(paymentService))

	analyticsService := analytics.NewService(analytics.NewRepository(pg), bookingService, cacheService)
	analytics.SetupAnalyticsRoutes(api, analytics.NewController(analyticsService))

	if r.hub != nil && r.config.Realtime.Enabled {
		realtime.SetupRealtimeRoutes(api, realtime.NewController(r.hub, bookingService, r.config.Realtime))
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		stores := r.db.Status(c.Request.Context())
		code, status := http.StatusOK, "healthy"
		switch {
		case stores["postgres"] != "up":
			code, status = http.StatusServiceUnavailable, "unhealthy"
		case stores["redis"] != "up":
			status = "degraded"
		}
		c.JSON(code, gin.H{
			"status":    status,
			"stores":    stores,
			"timestamp": time.Now(),
			"service":   "busline-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}
