package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	rediswrap "resort-booking/internal/booking/redis"
)

// TestNightLockIntegration exercises the night lock against a real Redis
// container. Run with -short to skip it.
func TestNightLockIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{
		Addr: host + ":" + port.Port(),
	})
	lock := rediswrap.NewRedis(client, 15*time.Minute)

	nights := []string{"2026-07-10", "2026-07-11", "2026-07-12"}

	locked, err := lock.LockRoomNights("room-1", nights, "bk-1")
	require.NoError(t, err)
	assert.True(t, locked, "expected the nights to be lockable")

	locked, err = lock.LockRoomNights("room-1", nights, "bk-2")
	require.NoError(t, err)
	assert.False(t, locked, "expected the nights to be already locked")

	require.NoError(t, lock.UnlockRoomNights("room-1", nights, "bk-1"))

	locked, err = lock.LockRoomNights("room-1", nights, "bk-2")
	require.NoError(t, err)
	assert.True(t, locked, "expected the nights to be lockable after unlock")
}
