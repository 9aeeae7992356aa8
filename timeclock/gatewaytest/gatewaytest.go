// Package gatewaytest holds the behavior every timeclock.Gateway must share.
// Store packages call Run from their own tests with a constructor for a
// fresh, empty gateway.
package gatewaytest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/timeclock"
)

// Factory returns a new empty gateway. Cleanup is registered on t.
type Factory func(t *testing.T) timeclock.Gateway

// Run exercises gw's contract and an engine round trip on top of it.
func Run(t *testing.T, newGateway Factory) {
	t.Run("ReadEmptyTable", func(t *testing.T) {
		gw := newGateway(t)
		rows, err := gw.ReadRows(context.Background(), timeclock.TableEvents)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("AppendKeepsOrder", func(t *testing.T) {
		gw := newGateway(t)
		ctx := context.Background()
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, gw.AppendRow(ctx, timeclock.TableEvents, timeclock.Row{"event_id": id}))
		}
		require.NoError(t, gw.AppendRow(ctx, timeclock.TableUsers, timeclock.Row{"user_id": "u1"}))

		rows, err := gw.ReadRows(ctx, timeclock.TableEvents)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, column(rows, "event_id"))

		users, err := gw.ReadRows(ctx, timeclock.TableUsers)
		require.NoError(t, err)
		assert.Len(t, users, 1, "tables do not leak into each other")
	})

	t.Run("ReplaceSwapsTable", func(t *testing.T) {
		gw := newGateway(t)
		ctx := context.Background()
		require.NoError(t, gw.AppendRow(ctx, timeclock.TableHolidays, timeclock.Row{"date": "2025-01-01"}))

		require.NoError(t, gw.ReplaceRows(ctx, timeclock.TableHolidays, []timeclock.Row{
			{"date": "2025-05-03", "name": "Constitution Memorial Day"},
			{"date": "2025-05-05", "name": ""},
		}))
		rows, err := gw.ReadRows(ctx, timeclock.TableHolidays)
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-05-03", "2025-05-05"}, column(rows, "date"))
		assert.Equal(t, "", rows[1]["name"], "empty values survive")

		require.NoError(t, gw.ReplaceRows(ctx, timeclock.TableHolidays, nil))
		rows, err = gw.ReadRows(ctx, timeclock.TableHolidays)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("TailRows", func(t *testing.T) {
		gw := newGateway(t)
		tr, ok := gw.(timeclock.TailReader)
		if !ok {
			t.Skip("gateway does not read tails")
		}
		ctx := context.Background()
		for _, id := range []string{"a", "b", "c", "d"} {
			require.NoError(t, gw.AppendRow(ctx, timeclock.TableEvents, timeclock.Row{"event_id": id}))
		}

		rows, err := tr.ReadTailRows(ctx, timeclock.TableEvents, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "d"}, column(rows, "event_id"))

		rows, err = tr.ReadTailRows(ctx, timeclock.TableEvents, 10)
		require.NoError(t, err)
		assert.Len(t, rows, 4)

		rows, err = tr.ReadTailRows(ctx, timeclock.TableEvents, 0)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("ReturnedRowsAreCopies", func(t *testing.T) {
		gw := newGateway(t)
		ctx := context.Background()
		require.NoError(t, gw.AppendRow(ctx, timeclock.TableUsers, timeclock.Row{"user_id": "u1"}))

		rows, err := gw.ReadRows(ctx, timeclock.TableUsers)
		require.NoError(t, err)
		rows[0]["user_id"] = "mutated"

		rows, err = gw.ReadRows(ctx, timeclock.TableUsers)
		require.NoError(t, err)
		assert.Equal(t, "u1", rows[0]["user_id"])
	})

	t.Run("EngineRoundTrip", func(t *testing.T) {
		runEngine(t, newGateway(t))
	})
}

// runEngine punches a day through the engine and reads it back, so every
// codec path crosses the gateway at least once.
func runEngine(t *testing.T, gw timeclock.Gateway) {
	loc := time.FixedZone("JST", 9*3600)
	day := timeclock.NewDate(2025, time.March, 3)
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, loc)
	clock := func() time.Time { return now }

	ctx := context.Background()
	eng := timeclock.New(gw, timeclock.WithLocation(loc), timeclock.WithClock(clock))
	require.NoError(t, eng.Init(ctx))

	_, err := eng.UpsertUser(ctx, timeclock.User{ID: "u1", Name: "Hanako", ClosingDay: 25, Active: true})
	require.NoError(t, err)

	in, err := eng.ClockAction(ctx, timeclock.ClockRequest{UserID: "u1", Action: timeclock.EventIn, Note: "早番"})
	require.NoError(t, err)
	now = now.Add(9 * time.Hour)
	_, err = eng.ClockAction(ctx, timeclock.ClockRequest{UserID: "u1", Action: timeclock.EventOut})
	require.NoError(t, err)

	_, err = eng.EditEvent(ctx, timeclock.EditEventRequest{
		Actor: "admin", EventID: in.ID, Type: timeclock.EventIn,
		At: time.Date(2025, time.March, 3, 9, 15, 0, 0, loc),
	})
	require.NoError(t, err)

	// A second engine over the same gateway sees everything.
	reopened := timeclock.New(gw, timeclock.WithLocation(loc), timeclock.WithClock(clock))
	require.NoError(t, reopened.Init(ctx))

	rec, err := reopened.DayRecord(ctx, "u1", day)
	require.NoError(t, err)
	assert.Len(t, rec.Events, 3)
	assert.True(t, rec.IsEdited)
	assert.Equal(t, "早番", rec.Note)
	got, ok := rec.Punch(timeclock.EventIn)
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2025, time.March, 3, 9, 15, 0, 0, loc)))

	u, err := reopened.User(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 25, u.ClosingDay)

	edits, err := reopened.Edits(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, in.ID, edits[0].EventID)

	settings, err := reopened.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, timeclock.DefaultSettings().ClosingDay, settings.ClosingDay)
}

func column(rows []timeclock.Row, key string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[key])
	}
	return out
}
