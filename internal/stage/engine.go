// Package stage runs the filter stages inside a private in-memory SQLite
// database. Every stage predicate is the Go function from package filter,
// exposed to SQL as gorate_keep, so both engines agree row for row.
package stage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"

	"github.com/hyperifyio/gorate/internal/filter"
	"github.com/hyperifyio/gorate/internal/table"
)

const (
	keepFunc  = "gorate_keep"
	tableName = `"records"`
)

// Engine implements filter.Engine on modernc.org/sqlite. The zero value runs
// filter.DefaultStages.
type Engine struct {
	Stages []filter.Stage
}

// call is the per-Filter state gorate_keep looks up by id.
type call struct {
	stages   []filter.Stage
	criteria filter.Criteria
}

var (
	registerOnce sync.Once
	registerErr  error
	nextCall     atomic.Int64
	callsMu      sync.RWMutex
	calls        = map[int64]*call{}
)

func register() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterScalarFunction(keepFunc, -1, keep)
	})
	return registerErr
}

// keep evaluates gorate_keep(call_id, stage_index, value...).
func keep(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) < 2 {
		return nil, errors.New(keepFunc + ": want call id and stage index")
	}
	id, ok1 := args[0].(int64)
	idx, ok2 := args[1].(int64)
	if !ok1 || !ok2 {
		return nil, errors.New(keepFunc + ": non-integer call id or stage index")
	}
	callsMu.RLock()
	c := calls[id]
	callsMu.RUnlock()
	if c == nil || idx < 0 || int(idx) >= len(c.stages) {
		return nil, fmt.Errorf("%s: unknown call %d stage %d", keepFunc, id, idx)
	}
	values := make([]string, len(args)-2)
	for i, a := range args[2:] {
		values[i] = text(a)
	}
	if c.stages[idx].Keep(values, c.criteria) {
		return int64(1), nil
	}
	return int64(0), nil
}

func text(v driver.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func (e Engine) stages() []filter.Stage {
	if e.Stages == nil {
		return filter.DefaultStages
	}
	return e.Stages
}

// column returns the fixed identifier of the i-th table column.
func column(i int) string { return fmt.Sprintf(`"c%d"`, i) }

// Filter implements filter.Engine. The database lives only for this call and
// is closed on every return path.
func (e Engine) Filter(ctx context.Context, t *table.Table, s filter.Schema, c filter.Criteria) (out *table.Table, rep filter.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("sqlite staging panicked: %v", r)
		}
	}()
	if err := register(); err != nil {
		return nil, rep, fmt.Errorf("register %s: %w", keepFunc, err)
	}
	if t == nil {
		t = table.Empty()
	}
	stages := e.stages()

	id := nextCall.Add(1)
	callsMu.Lock()
	calls[id] = &call{stages: stages, criteria: c}
	callsMu.Unlock()
	defer func() {
		callsMu.Lock()
		delete(calls, id)
		callsMu.Unlock()
	}()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, rep, fmt.Errorf("opening staging database: %w", err)
	}
	defer db.Close()
	// each connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if err := load(ctx, db, t); err != nil {
		return nil, rep, err
	}

	run, counts, warnings := filter.Plan(stages, s, c)
	rep.Warnings = warnings
	for i, st := range stages {
		n, err := count(ctx, db)
		if err != nil {
			return nil, rep, err
		}
		counts[i].In = n
		if run[i] {
			if err := apply(ctx, db, t, s, id, i, st); err != nil {
				return nil, rep, fmt.Errorf("stage %s: %w", st.Name, err)
			}
			n, err = count(ctx, db)
			if err != nil {
				return nil, rep, err
			}
		}
		counts[i].Out = n
		log.Debug().Str("stage", st.Name).Int("in", counts[i].In).Int("out", n).Msg("sqlite stage")
	}
	rep.Stages = counts

	out, err = readBack(ctx, db, t.Columns)
	if err != nil {
		return nil, rep, err
	}
	return out, rep, nil
}

func load(ctx context.Context, db *sql.DB, t *table.Table) error {
	width := len(t.Columns)
	defs := make([]string, width)
	cols := make([]string, width)
	marks := make([]string, width)
	for i := range t.Columns {
		cols[i] = column(i)
		defs[i] = column(i) + " TEXT"
		marks[i] = "?"
	}
	create := "CREATE TABLE " + tableName + " (" + strings.Join(defs, ", ") + ")"
	if width == 0 {
		create = "CREATE TABLE " + tableName + " (placeholder TEXT)"
	}
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating staging table: %w", err)
	}
	if width == 0 || len(t.Rows) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+tableName+" ("+strings.Join(cols, ", ")+") VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, width)
	for _, row := range t.Rows {
		for i := range args {
			args[i] = row[i]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("staging row: %w", err)
		}
	}
	return tx.Commit()
}

func apply(ctx context.Context, db *sql.DB, t *table.Table, s filter.Schema, id int64, idx int, st filter.Stage) error {
	refs := make([]string, 0, len(st.Fields))
	for _, f := range st.Fields {
		i := t.Index(s.Column(f))
		if i < 0 {
			return fmt.Errorf("column for %s not in table", f)
		}
		refs = append(refs, column(i))
	}
	q := "DELETE FROM " + tableName + " WHERE NOT " + keepFunc + "(?, ?, " + strings.Join(refs, ", ") + ")"
	_, err := db.ExecContext(ctx, q, id, int64(idx))
	return err
}

func count(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting staged rows: %w", err)
	}
	return n, nil
}

func readBack(ctx context.Context, db *sql.DB, columns []string) (*table.Table, error) {
	out := table.New(columns)
	out.Rows = [][]string{}
	if len(columns) == 0 {
		return out, nil
	}
	cols := make([]string, len(columns))
	for i := range columns {
		cols[i] = column(i)
	}
	rows, err := db.QueryContext(ctx, "SELECT "+strings.Join(cols, ", ")+" FROM "+tableName+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("reading staged rows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		vals := make([]sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning staged row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			row[i] = v.String
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rows.Err()
}
