package auth

import (
	"context"
	"resort-booking/internal/logger"
	"time"

	"github.com/go-redis/redis/v8"
)

// InitializeTokenCache sets up Redis for token caching and tests the connection
func InitializeTokenCache(redisAddr string, customLogger *logger.Logger) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		if customLogger != nil {
			customLogger.Error("AUTH", "Failed to connect to Redis for token caching: "+err.Error())
		}
		return nil, err
	}

	if customLogger != nil {
		customLogger.Info("AUTH", "Redis token cache is ready at "+redisAddr)
	}
	return redisClient, nil
}
