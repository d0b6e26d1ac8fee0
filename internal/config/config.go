package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Booking  BookingConfig
	Email    EmailConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BookingConfig carries the knobs of the hold workflow. HoldTTL is the
// single authoritative hold duration; DefaultRoomQuantity is used when a
// room record has no quantity set.
type BookingConfig struct {
	HoldTTL             time.Duration
	DefaultRoomQuantity int
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	Topics   TopicConfig
	MockMode bool
	Enabled  bool
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type TopicConfig struct {
	BookingCreated   string
	BookingConfirmed string
	BookingCancelled string
	BookingReleased  string
	PaymentEvents    string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	From         string
}

func Load() *Config {
	kafkaEnabled := getEnvBool("KAFKA_ENABLED", true)
	mockMode := getEnvBool("KAFKA_MOCK_MODE", false)

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Booking: BookingConfig{
			HoldTTL:             time.Duration(getEnvInt("HOLD_TTL_MINUTES", 15)) * time.Minute,
			DefaultRoomQuantity: getEnvInt("DEFAULT_ROOM_QUANTITY", 4),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("SMTP_FROM", "bookings@resortly.local"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "resort_user"),
			Password:     getEnv("DB_PASSWORD", "resort_pass"),
			Database:     getEnv("DB_NAME", "resort_booking"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			GroupID:  getEnv("KAFKA_GROUP_ID", "resort-booking-group"),
			Enabled:  kafkaEnabled,
			MockMode: mockMode,
			Topics: TopicConfig{
				BookingCreated:   getEnv("KAFKA_TOPIC_BOOKING_CREATED", "resortly.bookings.created"),
				BookingConfirmed: getEnv("KAFKA_TOPIC_BOOKING_CONFIRMED", "resortly.bookings.confirmed"),
				BookingCancelled: getEnv("KAFKA_TOPIC_BOOKING_CANCELLED", "resortly.bookings.cancelled"),
				BookingReleased:  getEnv("KAFKA_TOPIC_BOOKING_RELEASED", "resortly.bookings.released"),
				PaymentEvents:    getEnv("KAFKA_TOPIC_PAYMENT_EVENTS", "resortly.payments.status"),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
