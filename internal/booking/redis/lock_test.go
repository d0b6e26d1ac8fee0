package redis_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediswrap "resort-booking/internal/booking/redis"
)

func setupRedis(t *testing.T) (*rediswrap.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return rediswrap.NewRedis(client, 15*time.Minute), mr
}

func TestLockAndCheckNight(t *testing.T) {
	r, _ := setupRedis(t)

	free, err := r.CheckNightAvailability("room-1", "2026-07-10")
	require.NoError(t, err)
	assert.True(t, free, "untouched night should be free")

	ok, err := r.LockRoomNight("room-1", "2026-07-10", "bk-1")
	require.NoError(t, err)
	assert.True(t, ok)

	free, err = r.CheckNightAvailability("room-1", "2026-07-10")
	require.NoError(t, err)
	assert.False(t, free, "locked night should not be free")

	// Same night, different booking
	ok, err = r.LockRoomNight("room-1", "2026-07-10", "bk-2")
	require.NoError(t, err)
	assert.False(t, ok, "SetNX must reject a second locker")

	// Same night, different room
	ok, err = r.LockRoomNight("room-2", "2026-07-10", "bk-2")
	require.NoError(t, err)
	assert.True(t, ok, "locks are per room")
}

func TestUnlockIsOwnerChecked(t *testing.T) {
	r, _ := setupRedis(t)

	ok, err := r.LockRoomNight("room-1", "2026-07-10", "bk-1")
	require.NoError(t, err)
	require.True(t, ok)

	// A stranger cannot release the lock
	require.NoError(t, r.UnlockRoomNight("room-1", "2026-07-10", "bk-2"))
	free, err := r.CheckNightAvailability("room-1", "2026-07-10")
	require.NoError(t, err)
	assert.False(t, free, "non-owner unlock must be a no-op")

	// The owner can
	require.NoError(t, r.UnlockRoomNight("room-1", "2026-07-10", "bk-1"))
	free, err = r.CheckNightAvailability("room-1", "2026-07-10")
	require.NoError(t, err)
	assert.True(t, free)

	// Unlocking an absent key is fine
	require.NoError(t, r.UnlockRoomNight("room-1", "2026-07-10", "bk-1"))
}

func TestLockRoomNightsRollsBack(t *testing.T) {
	r, _ := setupRedis(t)

	// Pre-lock the middle night for someone else
	ok, err := r.LockRoomNight("room-1", "2026-07-11", "bk-other")
	require.NoError(t, err)
	require.True(t, ok)

	nights := []string{"2026-07-10", "2026-07-11", "2026-07-12"}
	ok, err = r.LockRoomNights("room-1", nights, "bk-1")
	require.NoError(t, err)
	assert.False(t, ok, "stay with a contested night must fail")

	// The first night must have been rolled back
	free, err := r.CheckNightAvailability("room-1", "2026-07-10")
	require.NoError(t, err)
	assert.True(t, free, "partially taken locks must be rolled back")

	// And the other booking keeps its lock
	free, err = r.CheckNightAvailability("room-1", "2026-07-11")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestLockRoomNightsAndUnlockAll(t *testing.T) {
	r, _ := setupRedis(t)

	nights := []string{"2026-07-10", "2026-07-11", "2026-07-12"}
	ok, err := r.LockRoomNights("room-1", nights, "bk-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, r.UnlockRoomNights("room-1", nights, "bk-1"))
	for _, night := range nights {
		free, err := r.CheckNightAvailability("room-1", night)
		require.NoError(t, err)
		assert.True(t, free, "night %s should be free after unlock", night)
	}
}

func TestLockExpiresWithTTL(t *testing.T) {
	r, mr := setupRedis(t)

	ok, err := r.LockRoomNight("room-1", "2026-07-10", "bk-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(16 * time.Minute)

	free, err := r.CheckNightAvailability("room-1", "2026-07-10")
	require.NoError(t, err)
	assert.True(t, free, "lock should evaporate after the hold TTL")
}
