package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
	devenv "ucrauth/dev/env"
	"ucrauth/lib/session"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

const Schema = `create table if not exists session_snapshot (
	key text primary key,
	snapshot text not null,
	saved_at integer not null
);`

// SQLConfig selects the database: a local sqlite file, or a remote libsql
// database when Url is set.
type SQLConfig struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c SQLConfig) OpenDB() (*sql.DB, error) {
	if c.Url == "" {
		if c.File == "" {
			return nil, fmt.Errorf("a database file was not specified")
		}
		if c.File == ":memory:" {
			db, err := sql.Open("sqlite", c.File)
			if err != nil {
				return nil, err
			}
			// every connection would get its own empty database
			db.SetMaxOpenConns(1)
			return db, nil
		}

		dbpath, err := devenv.ResolvePath(c.File)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite", dbpath)
		if err != nil {
			return nil, err
		}
		// sqlite serializes writers anyway, see
		// https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		db.SetMaxOpenConns(1)
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	values := url.Values{}
	if c.AuthToken != "" {
		values.Add("authToken", c.AuthToken)
	}
	return sql.Open("libsql", c.Url+"?"+values.Encode())
}

type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates the snapshot table if it is missing.
func NewSQLStore(ctx context.Context, db *sql.DB) (SQLStore, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return SQLStore{}, err
	}
	return SQLStore{db: db}, nil
}

func (s SQLStore) Save(ctx context.Context, key string, snap session.Snapshot) error {
	ctx, span := tracer.Start(ctx, "SQLStore:Save")
	defer span.End()

	if err := validateKey(key); err != nil {
		return err
	}
	serialized, err := json.Marshal(snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize snapshot")
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`insert into session_snapshot(key, snapshot, saved_at) values (?, ?, ?)
		on conflict(key) do update set snapshot = excluded.snapshot, saved_at = excluded.saved_at`,
		key, string(serialized), time.Now().Unix(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert snapshot row")
		return err
	}
	return nil
}

func (s SQLStore) Load(ctx context.Context, key string) (session.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SQLStore:Load")
	defer span.End()

	if err := validateKey(key); err != nil {
		return session.Snapshot{}, err
	}

	var serialized string
	err := s.db.QueryRowContext(
		ctx,
		"select snapshot from session_snapshot where key = ?",
		key,
	).Scan(&serialized)
	if err == sql.ErrNoRows {
		return session.Snapshot{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read snapshot row")
		return session.Snapshot{}, err
	}

	var snap session.Snapshot
	err = json.Unmarshal([]byte(serialized), &snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize snapshot")
		return session.Snapshot{}, err
	}
	return snap, nil
}
