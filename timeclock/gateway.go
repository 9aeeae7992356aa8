/*
gateway.go - Row store contract consumed by the engine

PURPOSE:
  The engine persists everything through a table-of-rows gateway. A row is a
  column -> string map; booleans travel as "true"/"false" and structured
  values as JSON text. Typed conversion lives in codec.go only.

CONTRACT:
  ReadRows:     every row of a table, insertion order preserved
  AppendRow:    append one row, never reorder existing rows
  ReplaceRows:  atomically replace the whole table (the only way to "update")
  ReadTailRows: optional, last N rows; callers fall back to a full scan

There are no row-level transactions. Read-modify-write sequences are made safe
by the engine's lock (see engine.go).

IMPLEMENTATIONS:
  - timeclock/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go:    SQLite (WAL)
  - store/redis/redis.go:      Redis lists
*/
package timeclock

import (
	"context"
	"strings"
)

// Row is one table row as it crosses the storage boundary.
type Row map[string]string

// Clone returns a copy safe to hand to another owner.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// patchRow overwrites cols on the first row whose key column equals id and
// appends cols as a new row when none does. Other rows, including ones the
// codec cannot read, and columns outside cols are kept as stored.
func patchRow(all []Row, key, id string, cols Row) []Row {
	for i, r := range all {
		if strings.TrimSpace(r[key]) != id {
			continue
		}
		patched := r.Clone()
		for k, v := range cols {
			patched[k] = v
		}
		all[i] = patched
		return all
	}
	return append(all, cols.Clone())
}

// Gateway is the row store the engine depends on.
type Gateway interface {
	ReadRows(ctx context.Context, table string) ([]Row, error)
	AppendRow(ctx context.Context, table string, row Row) error
	ReplaceRows(ctx context.Context, table string, rows []Row) error
}

// TailReader is implemented by gateways that can read the last rows of a
// table cheaply.
type TailReader interface {
	ReadTailRows(ctx context.Context, table string, limit int) ([]Row, error)
}

// Table names.
const (
	TableEvents         = "Events"
	TableLeaveRequests  = "LeaveRequests"
	TableHolidays       = "Holidays"
	TableSettings       = "Settings"
	TableUsers          = "Users"
	TableEdits          = "Edits"
	TableDailySummary   = "DailySummary"
	TableMonthlySummary = "MonthlySummary"
)

// Tables lists every table the engine uses.
var Tables = []string{
	TableEvents,
	TableLeaveRequests,
	TableHolidays,
	TableSettings,
	TableUsers,
	TableEdits,
	TableDailySummary,
	TableMonthlySummary,
}

// =============================================================================
// STORAGE-ERROR WRAPPING
// =============================================================================

// rows wraps a gateway so every failure becomes a *StorageError.
type rows struct {
	gw Gateway
}

func (r rows) read(ctx context.Context, table string) ([]Row, error) {
	out, err := r.gw.ReadRows(ctx, table)
	if err != nil {
		return nil, &StorageError{Op: "read", Table: table, Err: err}
	}
	return out, nil
}

func (r rows) append(ctx context.Context, table string, row Row) error {
	if err := r.gw.AppendRow(ctx, table, row); err != nil {
		return &StorageError{Op: "append", Table: table, Err: err}
	}
	return nil
}

func (r rows) replace(ctx context.Context, table string, all []Row) error {
	if err := r.gw.ReplaceRows(ctx, table, all); err != nil {
		return &StorageError{Op: "replace", Table: table, Err: err}
	}
	return nil
}

// tail returns (rows, true) when the gateway supports tail reads.
func (r rows) tail(ctx context.Context, table string, limit int) ([]Row, bool, error) {
	tr, ok := r.gw.(TailReader)
	if !ok {
		return nil, false, nil
	}
	out, err := tr.ReadTailRows(ctx, table, limit)
	if err != nil {
		return nil, true, &StorageError{Op: "tail", Table: table, Err: err}
	}
	return out, true, nil
}
