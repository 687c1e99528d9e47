package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/miles/pkg/types"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// table implements types.Table for a single entity type. A table bound to
// a transaction runs against it directly; an unbound table takes the
// backend lock and commits each write on its own.
type table struct {
	name    string
	backend *Backend
	tx      *sql.Tx
}

var _ types.Table = (*table)(nil)

func newTable(b *Backend, tx *sql.Tx, name string) (*table, error) {
	switch name {
	case types.BlocksTable, types.WeeksTable, types.DaysTable, types.RacesTable:
		return &table{name: name, backend: b, tx: tx}, nil
	default:
		return nil, types.ErrTableNotFound
	}
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (t *table) read(fn func(q querier) error) error {
	if t.tx != nil {
		return fn(t.tx)
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return types.ErrCupboardDetached
	}
	return fn(t.backend.db)
}

func (t *table) write(fn func(q querier) error) error {
	if t.tx != nil {
		return fn(t.tx)
	}
	return t.backend.update(func(tx *sql.Tx) error { return fn(tx) })
}

// Get retrieves an entity by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var entity any
	err := t.read(func(q querier) error {
		var err error
		switch t.name {
		case types.BlocksTable:
			entity, err = getBlock(q, id)
		case types.WeeksTable:
			entity, err = getWeek(q, id)
		case types.DaysTable:
			entity, err = getDay(q, id)
		case types.RacesTable:
			entity, err = getRace(q, id)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Set creates or updates an entity. If both id and the entity's own ID are
// empty, a UUID v7 is generated. Returns the entity ID.
func (t *table) Set(id string, data any) (string, error) {
	var newID string
	err := t.write(func(q querier) error {
		var err error
		switch t.name {
		case types.BlocksTable:
			newID, err = setBlock(q, id, data)
		case types.WeeksTable:
			newID, err = setWeek(q, id, data)
		case types.DaysTable:
			newID, err = setDay(q, id, data)
		case types.RacesTable:
			newID, err = setRace(q, id, data)
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// Delete removes an entity by ID. Entities still referenced by others
// return ErrReferenced.
func (t *table) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return t.write(func(q querier) error {
		switch t.name {
		case types.BlocksTable:
			return deleteRow(q, "blocks", "block_id", id)
		case types.WeeksTable:
			return deleteRow(q, "weeks", "week_id", id)
		case types.DaysTable:
			return deleteRow(q, "days", "day_id", id)
		default:
			return deleteRow(q, "races", "race_id", id)
		}
	})
}

// Fetch returns the entities matching every key of filter. Keys a table
// does not support return ErrInvalidFilter.
func (t *table) Fetch(filter types.Filter) ([]any, error) {
	results := []any{}
	err := t.read(func(q querier) error {
		switch t.name {
		case types.BlocksTable:
			rows, err := fetchBlocks(q, filter)
			for _, r := range rows {
				results = append(results, r)
			}
			return err
		case types.WeeksTable:
			rows, err := fetchWeeks(q, filter)
			for _, r := range rows {
				results = append(results, r)
			}
			return err
		case types.DaysTable:
			rows, err := fetchDays(q, filter)
			for _, r := range rows {
				results = append(results, r)
			}
			return err
		default:
			rows, err := fetchRaces(q, filter)
			for _, r := range rows {
				results = append(results, r)
			}
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// resolveID picks the ID for a Set: the explicit id, then the entity's
// own, then a fresh UUID v7.
func resolveID(id, entityID string) string {
	if id != "" {
		return id
	}
	if entityID != "" {
		return entityID
	}
	return newUUID()
}

func deleteRow(q querier, tableName, idColumn, id string) error {
	res, err := q.Exec("DELETE FROM "+tableName+" WHERE "+idColumn+" = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", tableName, id, constraintError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", tableName, id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// constraintError maps SQLite constraint failures onto sentinel errors.
func constraintError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: blocks.name"),
		strings.Contains(msg, "UNIQUE constraint failed: races.name"):
		return fmt.Errorf("%w: %v", types.ErrDuplicateName, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", types.ErrReferenced, err)
	case strings.Contains(msg, "constraint failed"):
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("parsing stored date %q: %w", s, err)
	}
	return d, nil
}

func noRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	return err
}

type filterKind int

const (
	filterText filterKind = iota
	filterInt
	filterDate
)

// filterColumns whitelists the filter keys a table accepts.
type filterColumns map[string]filterKind

// where builds a WHERE clause for filter. An empty string on a text
// column matches NULL, so {"week_id": ""} selects detached days.
func (fc filterColumns) where(filter types.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if _, ok := fc[k]; !ok {
			return "", nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	var args []any
	for _, k := range keys {
		v := filter[k]
		switch fc[k] {
		case filterText:
			s, ok := v.(string)
			if !ok {
				return "", nil, fmt.Errorf("%w: %s must be a string", types.ErrInvalidFilter, k)
			}
			if s == "" {
				conds = append(conds, k+" IS NULL")
				continue
			}
			conds = append(conds, k+" = ?")
			args = append(args, s)
		case filterInt:
			n, ok := v.(int)
			if !ok {
				return "", nil, fmt.Errorf("%w: %s must be an int", types.ErrInvalidFilter, k)
			}
			conds = append(conds, k+" = ?")
			args = append(args, n)
		case filterDate:
			var s string
			switch d := v.(type) {
			case civil.Date:
				s = d.String()
			case string:
				parsed, err := civil.ParseDate(d)
				if err != nil {
					return "", nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidFilter, k, err)
				}
				s = parsed.String()
			default:
				return "", nil, fmt.Errorf("%w: %s must be a date", types.ErrInvalidFilter, k)
			}
			conds = append(conds, k+" = ?")
			args = append(args, s)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// queryRows runs query and scans each row with scan.
func queryRows[T any](q querier, query string, args []any, scan func(scanner) (*T, error)) ([]*T, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
