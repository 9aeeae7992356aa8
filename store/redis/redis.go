// Package redis provides a Redis-backed timeclock.Gateway.
//
// Each logical table is one Redis list of JSON-encoded rows under
// "<prefix>:table:<name>". RPUSH appends, LRANGE reads in insertion order and
// a MULTI/EXEC pipeline of DEL + RPUSH replaces a table atomically.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/warp/timeclock-engine/timeclock"
)

const defaultPrefix = "timeclock"

// Store implements timeclock.Gateway and timeclock.TailReader.
type Store struct {
	client *redis.Client
	prefix string
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store/redis: ping: %w", err)
	}
	return client, nil
}

// New wraps an existing client. An empty prefix uses "timeclock".
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error { return s.client.Close() }

// Ping checks the connection for the readiness endpoint.
func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

// Reset deletes the list of every known table under the prefix.
func (s *Store) Reset(ctx context.Context) error {
	keys := make([]string, 0, len(timeclock.Tables))
	for _, t := range timeclock.Tables {
		keys = append(keys, s.key(t))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("store/redis: reset: %w", err)
	}
	return nil
}

func (s *Store) key(table string) string {
	return s.prefix + ":table:" + table
}

// ReadRows returns every row of table in insertion order.
func (s *Store) ReadRows(ctx context.Context, table string) ([]timeclock.Row, error) {
	items, err := s.client.LRange(ctx, s.key(table), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("store/redis: read %s: %w", table, err)
	}
	return decodeRows(table, items)
}

// AppendRow pushes one row to the end of the list.
func (s *Store) AppendRow(ctx context.Context, table string, row timeclock.Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("store/redis: encode %s row: %w", table, err)
	}
	if err := s.client.RPush(ctx, s.key(table), data).Err(); err != nil {
		return fmt.Errorf("store/redis: append %s: %w", table, err)
	}
	return nil
}

// ReplaceRows swaps the list contents in one MULTI/EXEC.
func (s *Store) ReplaceRows(ctx context.Context, table string, rows []timeclock.Row) error {
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("store/redis: encode %s row: %w", table, err)
		}
		values = append(values, data)
	}

	key := s.key(table)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store/redis: replace %s: %w", table, err)
	}
	return nil
}

// ReadTailRows returns the last limit rows, oldest first.
func (s *Store) ReadTailRows(ctx context.Context, table string, limit int) ([]timeclock.Row, error) {
	if limit <= 0 {
		return []timeclock.Row{}, nil
	}
	items, err := s.client.LRange(ctx, s.key(table), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("store/redis: tail %s: %w", table, err)
	}
	return decodeRows(table, items)
}

func decodeRows(table string, items []string) ([]timeclock.Row, error) {
	out := make([]timeclock.Row, 0, len(items))
	for _, item := range items {
		row := timeclock.Row{}
		if err := json.Unmarshal([]byte(item), &row); err != nil {
			return nil, fmt.Errorf("store/redis: decode %s row: %w", table, err)
		}
		out = append(out, row)
	}
	return out, nil
}
