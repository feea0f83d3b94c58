package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/careconnect/booking-backend/internal/adapters/cache"
	"github.com/careconnect/booking-backend/internal/adapters/database"
	"github.com/careconnect/booking-backend/internal/adapters/events"
	"github.com/careconnect/booking-backend/internal/adapters/providers/calendar"
	"github.com/careconnect/booking-backend/internal/api/handlers"
	"github.com/careconnect/booking-backend/internal/api/middleware"
	"github.com/careconnect/booking-backend/internal/api/routes"
	"github.com/careconnect/booking-backend/internal/application/services"
	"github.com/careconnect/booking-backend/internal/domain/providers"
	"github.com/careconnect/booking-backend/internal/infrastructure/clients/postgres"
	"github.com/careconnect/booking-backend/internal/infrastructure/clients/redis"
	"github.com/careconnect/booking-backend/internal/infrastructure/notifications"
	"github.com/careconnect/booking-backend/internal/infrastructure/observability"
	"github.com/careconnect/booking-backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Booking.TimeZone)
	if err != nil {
		log.Fatalf("Invalid booking timezone %q: %v", cfg.Booking.TimeZone, err)
	}

	// Initialize structured logging
	env := os.Getenv("ENV")
	if env == "" {
		env = "production"
	}
	observability.InitLogger(cfg.OTEL.ServiceName, env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize adapters
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	credentialAdapter := database.NewCredentialAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	calendarProvider := calendar.NewGoogleCalendarAdapter(cfg.Calendar, credentialAdapter, loc)

	// Initialize services
	var notificationService *services.NotificationService
	whatsappSender, err := notifications.NewWhatsAppCloudSender(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)
	if err != nil {
		log.Printf("Warning: WhatsApp sender not configured, notifications disabled: %v", err)
	} else {
		sqlxDB := sqlx.NewDb(pgClient.DB(), "postgres")
		notificationService = services.NewNotificationService(sqlxDB, whatsappSender)
		log.Println("Notification service initialized successfully")
	}

	validator := services.NewBookingValidator(cfg.Booking.MinAdvanceHours, loc)
	availabilityService := services.NewAvailabilityService(cfg.Booking.MinAdvanceHours, loc)

	var notifier services.Notifier
	if notificationService != nil {
		notifier = notificationService
	}

	bookingService := services.NewBookingService(
		appointmentAdapter,
		validator,
		notifier,
		calendarProvider,
		eventBus,
		loc,
	)

	// Start background completion of elapsed appointments
	completionService := services.NewCompletionService(appointmentAdapter)
	completionService.StartPeriodicSweep(ctx, time.Duration(cfg.Booking.CompletionSweepMinutes)*time.Minute)

	// Initialize handlers
	appointmentHandler := handlers.NewAppointmentHandler(bookingService, availabilityService)
	credentialsHandler := handlers.NewCalendarCredentialsHandler(credentialAdapter)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		appointmentHandler,
		credentialsHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
