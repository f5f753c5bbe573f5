package module

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"quill/internal/vm"
)

// dbTable tracks open sqlite handles by id, mirroring the websocket
// connection table.
type dbTable struct {
	mu    sync.Mutex
	next  int
	conns map[string]*sql.DB
}

func (t *dbTable) add(db *sql.DB) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	id := fmt.Sprintf("db-%d", t.next)
	t.conns[id] = db
	return id
}

func (t *dbTable) get(id string) (*sql.DB, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	db, ok := t.conns[id]
	if !ok {
		return nil, fmt.Errorf("unknown database connection %s", id)
	}
	return db, nil
}

func (t *dbTable) remove(id string) (*sql.DB, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	db, ok := t.conns[id]
	if !ok {
		return nil, fmt.Errorf("unknown database connection %s", id)
	}
	delete(t.conns, id)
	return db, nil
}

func dbModule() *Module {
	table := &dbTable{conns: make(map[string]*sql.DB)}
	return &Module{
		Package: "ext",
		Name:    "db",
		Exports: map[string]vm.Value{
			"open": &vm.NativeFunction{
				Name:  "open",
				Arity: 1,
				Function: func(args []vm.Value) (vm.Value, error) {
					dsn := vm.ToString(args[0])
					db, err := sql.Open("sqlite", dsn)
					if err != nil {
						return nil, fmt.Errorf("db open %s: %w", dsn, err)
					}
					if err := db.Ping(); err != nil {
						db.Close()
						return nil, fmt.Errorf("db open %s: %w", dsn, err)
					}
					return table.add(db), nil
				},
			},
			"exec": &vm.NativeFunction{
				Name:  "exec",
				Arity: 2,
				Function: func(args []vm.Value) (vm.Value, error) {
					db, err := table.get(vm.ToString(args[0]))
					if err != nil {
						return nil, err
					}
					res, err := db.Exec(vm.ToString(args[1]))
					if err != nil {
						return nil, fmt.Errorf("db exec: %w", err)
					}
					n, _ := res.RowsAffected()
					return float64(n), nil
				},
			},
			"query": &vm.NativeFunction{
				Name:  "query",
				Arity: 2,
				Function: func(args []vm.Value) (vm.Value, error) {
					db, err := table.get(vm.ToString(args[0]))
					if err != nil {
						return nil, err
					}
					rows, err := db.Query(vm.ToString(args[1]))
					if err != nil {
						return nil, fmt.Errorf("db query: %w", err)
					}
					defer rows.Close()
					return scanRows(rows)
				},
			},
			"close": &vm.NativeFunction{
				Name:  "close",
				Arity: 1,
				Function: func(args []vm.Value) (vm.Value, error) {
					db, err := table.remove(vm.ToString(args[0]))
					if err != nil {
						return nil, err
					}
					return db.Close() == nil, nil
				},
			},
		},
	}
}

// scanRows converts a result set into an array of row maps.
func scanRows(rows *sql.Rows) (vm.Value, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db query: %w", err)
	}
	out := vm.NewArray(0)
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("db scan: %w", err)
		}
		row := vm.NewMap()
		for i, col := range cols {
			row.Items[col] = sqlValue(raw[i])
		}
		out.Elements = append(out.Elements, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db query: %w", err)
	}
	return out, nil
}

func sqlValue(v interface{}) vm.Value {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case int64:
		return float64(val)
	case float64:
		return val
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
