package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"resort-booking/internal/auth"
	"resort-booking/internal/config"
	"resort-booking/internal/kafka"
	"resort-booking/internal/logger"
	"resort-booking/internal/payment/handler"
	"resort-booking/internal/payment/services"
	"resort-booking/internal/payment/storage"
)

func main() {
	appLogger := logger.NewLogger()
	defer appLogger.Close()

	appLogger.Info("APP", "Starting Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		appLogger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	paymentStore, err := storage.NewPostgreSQLStore(cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("DATABASE", fmt.Sprintf("Failed to initialize payment store: %v", err))
	}
	defer paymentStore.Close()

	stripeService, err := services.NewStripeService(appLogger)
	if err != nil {
		appLogger.Fatal("STRIPE", fmt.Sprintf("Failed to initialize Stripe: %v", err))
	}

	var kafkaProducer *kafka.Producer
	if cfg.Kafka.MockMode {
		kafkaProducer = kafka.NewMockProducer(appLogger)
		appLogger.Warn("KAFKA", "Mock mode: events are logged, not published")
	} else {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
	}
	defer kafkaProducer.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Warn("REDIS", fmt.Sprintf("Redis unavailable, token caching disabled: %v", err))
		redisClient = nil
	}

	var tokenCache *auth.RedisTokenCache
	if redisClient != nil {
		tokenCache = auth.NewRedisTokenCache(redisClient)
	}

	m2m := auth.M2MConfig{
		IssuerURL:    os.Getenv("OIDC_ISSUER_URL"),
		Realm:        os.Getenv("OIDC_REALM"),
		ClientID:     os.Getenv("PAYMENT_CLIENT_ID"),
		ClientSecret: os.Getenv("PAYMENT_CLIENT_SECRET"),
	}
	bookingURL := os.Getenv("BOOKING_SERVICE_URL")
	if bookingURL == "" {
		bookingURL = "http://localhost:8080"
	}
	settler := services.NewBookingClient(bookingURL, tokenCache, m2m, appLogger)

	stripeHandler := handler.NewStripeHandler(
		stripeService,
		paymentStore,
		kafkaProducer,
		settler,
		cfg.Kafka.Topics.PaymentEvents,
		appLogger,
	)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		if err := paymentStore.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/payments", stripeHandler.CreatePayment)
		v1.POST("/payments/validate-card", stripeHandler.ValidateCard)
		v1.POST("/payments/process", stripeHandler.ProcessPayment)
		v1.POST("/payments/:paymentId/verify", stripeHandler.VerifyPayment)
		v1.GET("/payments/:paymentId", stripeHandler.GetPayment)
		v1.GET("/bookings/:bookingId/payments", stripeHandler.ListBookingPayments)
	}

	port := os.Getenv("PAYMENT_PORT")
	if port == "" {
		port = ":8081"
	}

	server := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		appLogger.Info("HTTP", fmt.Sprintf("Payment Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	appLogger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		appLogger.Info("HTTP", "Payment Service shutdown complete")
	}
}
