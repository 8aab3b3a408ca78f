package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/fulldump/editdb/connmgr"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

const createDocuments = `CREATE TABLE IF NOT EXISTS documents (
	kind TEXT NOT NULL,
	id TEXT NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY (kind, id)
)`

// Every SQL store on the same driver and dsn shares one *sql.DB.
var databases = connmgr.New[*sql.DB](openDatabase)

func databaseName(driver, dsn string) string {
	return driver + "|" + dsn
}

func openDatabase(ctx context.Context, name string) (*sql.DB, error) {
	driver, dsn, _ := strings.Cut(name, "|")
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	err = db.PingContext(ctx)
	if err == nil {
		_, err = db.ExecContext(ctx, createDocuments)
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SQL keeps documents as JSON in a single documents table.
type SQL struct {
	handle *connmgr.Handle[*sql.DB]
	db     *sql.DB
	driver string
}

var _ Store = (*SQL)(nil)

func OpenSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	handle, err := databases.Acquire(ctx, databaseName(driver, dsn))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return &SQL{
		handle: handle,
		db:     handle.Resource(),
		driver: driver,
	}, nil
}

// rebind rewrites ? placeholders for drivers that number them.
func (s *SQL) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	b := strings.Builder{}
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) Get(ctx context.Context, kind, id string, value any) error {
	payload := ""
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT payload FROM documents WHERE kind = ? AND id = ?`),
		kind, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("get %s '%s': %w", kind, id, err)
	}
	return json.Unmarshal([]byte(payload), value)
}

func (s *SQL) Put(ctx context.Context, kind, id string, value any) error {
	payload, err := json.Marshal(value, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("encode %s '%s': %w", kind, id, err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO documents (kind, id, payload) VALUES (?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET payload = excluded.payload`),
		kind, id, string(payload),
	)
	if err != nil {
		return fmt.Errorf("put %s '%s': %w", kind, id, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, kind, id string) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM documents WHERE kind = ? AND id = ?`),
		kind, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s '%s': %w", kind, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound(kind, id)
	}
	return nil
}

func (s *SQL) List(ctx context.Context, kind string, visit func(id string, decode func(value any) error) error) error {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, payload FROM documents WHERE kind = ? ORDER BY id`),
		kind,
	)
	if err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}

	// sqlite runs on a single connection, so rows are drained before visiting
	entries := []entry{}
	for rows.Next() {
		id, payload := "", ""
		err := rows.Scan(&id, &payload)
		if err != nil {
			rows.Close()
			return err
		}
		entries = append(entries, entry{id: id, data: []byte(payload)})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return err
	}

	for _, e := range entries {
		data := e.data
		err := visit(e.id, func(value any) error {
			return json.Unmarshal(data, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases this store's reference to the shared database.
func (s *SQL) Close() error {
	return s.handle.Dispose()
}
