package sessionstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"ucrauth/lib/session"

	"go.opentelemetry.io/otel/codes"
)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (FileStore, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return FileStore{}, err
	}
	return FileStore{dir: dir}, nil
}

func (s FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s FileStore) Save(ctx context.Context, key string, snap session.Snapshot) error {
	_, span := tracer.Start(ctx, "FileStore:Save")
	defer span.End()

	if err := validateKey(key); err != nil {
		return err
	}
	serialized, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize snapshot")
		return err
	}
	err = os.WriteFile(s.path(key), serialized, 0600)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write snapshot")
		return err
	}
	return nil
}

func (s FileStore) Load(ctx context.Context, key string) (session.Snapshot, error) {
	_, span := tracer.Start(ctx, "FileStore:Load")
	defer span.End()

	if err := validateKey(key); err != nil {
		return session.Snapshot{}, err
	}
	serialized, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return session.Snapshot{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read snapshot")
		return session.Snapshot{}, err
	}

	var snap session.Snapshot
	err = json.Unmarshal(serialized, &snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize snapshot")
		return session.Snapshot{}, err
	}
	return snap, nil
}
