package redisad_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "room_booking/internal/adapters/redis"
)

type item struct {
	ID    int64  `json:"id"`
	Price string `json:"price"`
}

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetTTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	var got []item
	ok, err := c.Get(ctx, "rooms:order=", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "rooms:order=", []item{{ID: 1, Price: "100.00"}}, 60))
	ok, err = c.Get(ctx, "rooms:order=", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []item{{ID: 1, Price: "100.00"}}, got)
	assert.True(t, mr.Exists("roombooking:rooms:order="))

	mr.FastForward(61 * time.Second)
	ok, err = c.Get(ctx, "rooms:order=", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_DelPrefix(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	for _, k := range []string{"rooms:order=", "rooms:order=-price", "bookings:room=all:order="} {
		require.NoError(t, c.Set(ctx, k, []item{}, 60))
	}
	// bulk enough to need several SCAN rounds
	for i := 0; i < 500; i++ {
		require.NoError(t, mr.Set("roombooking:rooms:bulk:"+strconv.Itoa(i), "[]"))
	}
	require.NoError(t, mr.Set("other:rooms:order=", "keep"))

	require.NoError(t, c.Del(ctx, "bookings:missing"))
	require.NoError(t, c.DelPrefix(ctx, "rooms:"))

	assert.False(t, mr.Exists("roombooking:rooms:order="))
	assert.False(t, mr.Exists("roombooking:rooms:order=-price"))
	assert.False(t, mr.Exists("roombooking:rooms:bulk:0"))
	assert.True(t, mr.Exists("roombooking:bookings:room=all:order="))
	assert.True(t, mr.Exists("other:rooms:order="))
}

func TestCache_CorruptPayloadIsMiss(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set("roombooking:rooms:order=", "{not json"))

	var got []item
	ok, err := c.Get(context.Background(), "rooms:order=", &got)
	assert.Error(t, err)
	assert.False(t, ok)
}
