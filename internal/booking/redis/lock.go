package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis takes short-lived night locks on room inventory while a hold is
// being placed. The lock TTL mirrors the booking hold duration so an
// abandoned checkout releases itself.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *log.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		Client: client,
		TTL:    ttl,
		Logger: log.Default(),
	}
}

func nightKey(roomID, night string) string {
	return fmt.Sprintf("room_hold:%s:%s", roomID, night)
}

// holdTTL returns the configured lock duration, falling back to the
// HOLD_TTL_MINUTES env var and finally to 15 minutes.
func (r *Redis) holdTTL() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}

	defaultDuration := 15 * time.Minute

	ttlStr := os.Getenv("HOLD_TTL_MINUTES")
	if ttlStr == "" {
		return defaultDuration
	}

	ttlMin, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid HOLD_TTL_MINUTES value '" + ttlStr + "', using default 15 minutes")
		return defaultDuration
	}
	return time.Duration(ttlMin) * time.Minute
}

// CheckNightAvailability checks if a room night is free without locking it
func (r *Redis) CheckNightAvailability(roomID, night string) (bool, error) {
	_, err := r.Client.Get(context.Background(), nightKey(roomID, night)).Result()
	if err == redis.Nil {
		// Key doesn't exist, night is free
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// LockRoomNight locks a single night of a room for a booking
func (r *Redis) LockRoomNight(roomID, night, bookingID string) (bool, error) {
	ok, err := r.Client.SetNX(context.Background(), nightKey(roomID, night), bookingID, r.holdTTL()).Result()
	return ok, err
}

// UnlockRoomNight releases a night lock, but only if this booking owns it
func (r *Redis) UnlockRoomNight(roomID, night, bookingID string) error {
	ctx := context.Background()
	key := nightKey(roomID, night)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already unlocked
	}
	if err != nil {
		return err
	}
	if val == bookingID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LockRoomNights locks every night of a stay, rolling back on any failure
// so a partial lock never survives.
func (r *Redis) LockRoomNights(roomID string, nights []string, bookingID string) (bool, error) {
	locked := []string{}
	for _, night := range nights {
		ok, err := r.LockRoomNight(roomID, night, bookingID)
		if err != nil {
			for _, l := range locked {
				_ = r.UnlockRoomNight(roomID, l, bookingID)
			}
			return false, err
		}
		if !ok {
			for _, l := range locked {
				_ = r.UnlockRoomNight(roomID, l, bookingID)
			}
			return false, nil
		}
		locked = append(locked, night)
	}
	return true, nil
}

// UnlockRoomNights releases every night lock of a stay
func (r *Redis) UnlockRoomNights(roomID string, nights []string, bookingID string) error {
	var firstErr error
	for _, night := range nights {
		err := r.UnlockRoomNight(roomID, night, bookingID)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
