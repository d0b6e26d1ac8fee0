package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"resort-booking/internal/audit"
	"resort-booking/internal/auth"
	"resort-booking/internal/booking"
	"resort-booking/internal/booking/api"
	bookingdb "resort-booking/internal/booking/db"
	bookingkafka "resort-booking/internal/booking/kafka"
	rediswrap "resort-booking/internal/booking/redis"
	"resort-booking/internal/config"
	"resort-booking/internal/database/migrations"
	"resort-booking/internal/kafka"
	"resort-booking/internal/logger"
	"resort-booking/internal/models"
	"resort-booking/internal/notify"
	"resort-booking/internal/payment/storage"
	"resort-booking/internal/voucher"
)

// subscribeNightLockExpiry listens for redis keyspace expiry events on the
// night lock keys and runs a reconciliation pass whenever one fires. The
// worker itself stays idempotent, so a burst of expirations is harmless.
func subscribeNightLockExpiry(rdb *redis.Client, reconciler *booking.Reconciler, logger *logger.Logger) {
	ctx := context.Background()

	val, err := rdb.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		logger.Error("REDIS", fmt.Sprintf("Failed to get keyspace config: %v", err))
	} else {
		logger.Info("REDIS", fmt.Sprintf("Current keyspace notifications setting: %v", val))
		if len(val) < 2 || !strings.Contains(val[1].(string), "x") || !strings.Contains(val[1].(string), "E") {
			logger.Warn("REDIS", "Keyspace notifications not properly configured for expiry events!")
		}
	}

	pubsub := rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	logger.Info("REDIS", fmt.Sprintf("Subscribed to Redis keyevent expired notifications (DB %d)", rdb.Options().DB))

	go func() {
		for msg := range pubsub.Channel() {
			if !strings.HasPrefix(msg.Payload, "room_hold:") {
				continue
			}
			logger.Info("HOLD_EXPIRY", fmt.Sprintf("Night lock expired: %s", msg.Payload))

			released, err := reconciler.Run()
			if err != nil {
				logger.Error("HOLD_EXPIRY", fmt.Sprintf("Reconciliation after expiry failed: %v", err))
				continue
			}
			if released > 0 {
				logger.Info("HOLD_EXPIRY", fmt.Sprintf("Released %d expired bookings", released))
			}
		}
	}()
}

// startReconcileTicker runs a reconciliation pass on a fixed interval as a
// fallback for missed keyspace notifications.
func startReconcileTicker(ctx context.Context, reconciler *booking.Reconciler, interval time.Duration, logger *logger.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := reconciler.Run(); err != nil {
					logger.Error("RECONCILE", fmt.Sprintf("Periodic reconciliation failed: %v", err))
				}
			}
		}
	}()
}

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.Username, cfg.Database.Password,
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	logger.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	_, err = redisClient.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result()
	if err != nil {
		logger.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		logger.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	logger.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, redisClient.Options().DB))
	return bunDB, redisClient
}

func runMigrations(bunDB *bun.DB, logger *logger.Logger) {
	opts := migrations.DefaultOptions()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		opts.MigrationsDir = dir
	}
	opts.SeedData = os.Getenv("SEED_DATA") == "true"

	runner := migrations.NewRunner(bunDB, opts)
	if err := runner.RunMigrations(); err != nil {
		logger.Warn("DATABASE", fmt.Sprintf("Migration runner failed, falling back to schema sync: %v", err))
		bookingdb.Migrate(bunDB)
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Booking Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	runMigrations(bunDB, logger)

	var kafkaProducer *kafka.Producer
	if cfg.Kafka.MockMode {
		kafkaProducer = kafka.NewMockProducer(logger)
		logger.Warn("KAFKA", "Mock mode: events are logged, not published")
	} else {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
		logger.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{
			cfg.Kafka.Topics.BookingCreated,
			cfg.Kafka.Topics.BookingConfirmed,
			cfg.Kafka.Topics.BookingCancelled,
			cfg.Kafka.Topics.BookingReleased,
			cfg.Kafka.Topics.PaymentEvents,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
	}
	defer kafkaProducer.Close()

	paymentStore, err := storage.NewPostgreSQLStoreWithDB(bunDB.DB, logger)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to initialize payment store: %v", err))
	}

	store := &bookingdb.DB{Bun: bunDB}
	auditTrail := audit.NewTrail(bunDB, logger)
	voucherIssuer := voucher.NewIssuer(os.Getenv("VOUCHER_SECRET"))
	bookingProducer := bookingkafka.NewProducer(kafkaProducer, cfg.Kafka.Topics)

	bookingService := booking.NewBookingService(
		store,
		rediswrap.NewRedis(redisClient, cfg.Booking.HoldTTL),
		bookingProducer,
		paymentStore,
		logger,
		cfg.Booking.HoldTTL,
		cfg.Booking.DefaultRoomQuantity,
	)
	bookingService.Audit = auditTrail
	bookingService.Voucher = voucherIssuer

	reconciler := booking.NewReconciler(store, bookingProducer, logger)
	reconciler.Audit = auditTrail

	handler := api.NewHandler(bookingService, reconciler, logger)
	sseHandler := api.NewSSEHandler(logger)

	notifier := notify.NewNotifier(notify.NewSMTPSender(cfg.Email), store, logger)
	startConsumers(ctx, cfg, sseHandler, notifier, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Post("/api/v1/availability", handler.Availability)
	logger.Info("ROUTER", "Public availability endpoint registered at /api/v1/availability")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		logger.Info("AUTH", "JWT middleware applied to protected API routes")

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", handler.PlaceHold)
				r.Get("/{bookingId}", handler.GetBooking)
				r.Post("/{bookingId}/settle", handler.SettleBooking)
				r.Delete("/{bookingId}", handler.CancelBooking)
			})
			logger.Info("ROUTER", "Booking routes registered under /api/v1/bookings")

			r.Get("/guests/{guestId}/bookings", handler.GuestBookings)
			r.Get("/events/guests/{guestId}", sseHandler.HandleGuestEvents)

			// Back-office routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole("staff"))
				r.Post("/bookings/{bookingId}/reserve", handler.ReserveBooking)
				r.Post("/bookings/{bookingId}/complete", handler.CompleteBooking)
				r.Post("/bookings/release", handler.ReleaseExpired)
				r.Get("/events/rooms/{roomId}", sseHandler.HandleRoomEvents)
			})
			logger.Info("ROUTER", "Back-office routes registered for role: staff")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("REDIS", "Starting night lock expiry subscription")
	subscribeNightLockExpiry(redisClient, reconciler, logger)
	startReconcileTicker(ctx, reconciler, time.Minute, logger)

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Booking Service shutdown complete")
	}
}

// startConsumers fans booking topics out to the SSE emitter and the
// email notifier.
func startConsumers(ctx context.Context, cfg *config.Config, sseHandler *api.SSEHandler, notifier *notify.Notifier, logger *logger.Logger) {
	if !cfg.Kafka.Enabled {
		logger.Warn("KAFKA", "Kafka disabled, skipping event consumers")
		return
	}

	topics := []string{
		cfg.Kafka.Topics.BookingCreated,
		cfg.Kafka.Topics.BookingConfirmed,
		cfg.Kafka.Topics.BookingCancelled,
		cfg.Kafka.Topics.BookingReleased,
	}

	for _, topic := range topics {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID)
		go consumer.Start(ctx, func(event models.BookingEvent) {
			sseHandler.EmitBookingEvent(event)
			notifier.HandleBookingEvent(event)
		})
		logger.Info("KAFKA", fmt.Sprintf("Consumer started for topic %s", topic))
	}
}
