package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/store/redis"
	"github.com/warp/timeclock-engine/timeclock"
	"github.com/warp/timeclock-engine/timeclock/gatewaytest"
)

func newStore(t *testing.T, prefix string) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := redis.New(client, prefix)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestStore_Gateway(t *testing.T) {
	gatewaytest.Run(t, func(t *testing.T) timeclock.Gateway {
		s, _ := newStore(t, "")
		return s
	})
}

func TestStore_KeyLayout(t *testing.T) {
	s, mr := newStore(t, "acme")
	ctx := context.Background()

	require.NoError(t, s.AppendRow(ctx, timeclock.TableEvents, timeclock.Row{"event_id": "a"}))
	assert.True(t, mr.Exists("acme:table:Events"))

	items, err := mr.List("acme:table:Events")
	require.NoError(t, err)
	assert.Equal(t, []string{`{"event_id":"a"}`}, items)
}

func TestStore_DialAndPing(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := redis.Dial(ctx, mr.Addr())
	require.NoError(t, err)
	s := redis.New(client, "")
	defer s.Close()
	assert.NoError(t, s.Ping(ctx))

	mr.Close()
	assert.Error(t, s.Ping(ctx))
}

func TestStore_CorruptRow(t *testing.T) {
	s, mr := newStore(t, "")
	_, err := mr.Push("timeclock:table:Users", "not json")
	require.NoError(t, err)

	_, err = s.ReadRows(context.Background(), timeclock.TableUsers)
	assert.ErrorContains(t, err, "decode Users row")
}

func TestStore_Reset(t *testing.T) {
	// GIVEN: rows under two prefixes on one server
	// WHEN: one store resets
	// THEN: only its own keys go

	s, mr := newStore(t, "acme")
	ctx := context.Background()
	other := redis.New(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "other")
	defer other.Close()

	require.NoError(t, s.AppendRow(ctx, timeclock.TableEvents, timeclock.Row{"event_id": "a"}))
	require.NoError(t, s.AppendRow(ctx, timeclock.TableUsers, timeclock.Row{"user_id": "u1"}))
	require.NoError(t, other.AppendRow(ctx, timeclock.TableEvents, timeclock.Row{"event_id": "b"}))

	require.NoError(t, s.Reset(ctx))

	assert.False(t, mr.Exists("acme:table:Events"))
	assert.False(t, mr.Exists("acme:table:Users"))
	assert.True(t, mr.Exists("other:table:Events"))
}
