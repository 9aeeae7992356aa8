// Package store provides an in-memory timeclock.Gateway.
package store

import (
	"context"
	"sync"

	"github.com/warp/timeclock-engine/timeclock"
)

// =============================================================================
// MEMORY GATEWAY - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	tables map[string][]timeclock.Row
	fail   error
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]timeclock.Row)}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
// Used to exercise storage failure paths.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Reset drops every table.
func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	m.tables = make(map[string][]timeclock.Row)
	return nil
}

// ReadRows returns copies of every row, insertion order preserved.
func (m *Memory) ReadRows(ctx context.Context, table string) ([]timeclock.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return cloneRows(m.tables[table]), nil
}

// AppendRow adds a row at the end. Append-only.
func (m *Memory) AppendRow(ctx context.Context, table string, row timeclock.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	m.tables[table] = append(m.tables[table], row.Clone())
	return nil
}

// ReplaceRows swaps the whole table in one step.
func (m *Memory) ReplaceRows(ctx context.Context, table string, rows []timeclock.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	m.tables[table] = cloneRows(rows)
	return nil
}

// ReadTailRows returns the last limit rows.
func (m *Memory) ReadTailRows(ctx context.Context, table string, limit int) ([]timeclock.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	rows := m.tables[table]
	if limit < len(rows) {
		rows = rows[len(rows)-max(0, limit):]
	}
	return cloneRows(rows), nil
}

func (m *Memory) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.fail
}

func cloneRows(rows []timeclock.Row) []timeclock.Row {
	out := make([]timeclock.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
