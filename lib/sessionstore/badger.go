package sessionstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"ucrauth/lib/session"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const badgerKeyPrefix = "session:"

type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a badger database in dir, or an in-memory one when dir
// is empty.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}

func NewBadgerStore(db *badger.DB) BadgerStore {
	return BadgerStore{db: db}
}

func (s BadgerStore) Save(ctx context.Context, key string, snap session.Snapshot) error {
	_, span := tracer.Start(ctx, "BadgerStore:Save")
	defer span.End()

	if err := validateKey(key); err != nil {
		return err
	}
	span.SetAttributes(attribute.KeyValue{
		Key:   "custom.session_key",
		Value: attribute.StringValue(key),
	})

	serialized := bytes.NewBuffer(nil)
	err := gob.NewEncoder(serialized).Encode(snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize snapshot")
		return err
	}

	err = s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(badgerKeyPrefix+key), serialized.Bytes())
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}

func (s BadgerStore) Load(ctx context.Context, key string) (session.Snapshot, error) {
	_, span := tracer.Start(ctx, "BadgerStore:Load")
	defer span.End()

	if err := validateKey(key); err != nil {
		return session.Snapshot{}, err
	}
	span.SetAttributes(attribute.KeyValue{
		Key:   "custom.session_key",
		Value: attribute.StringValue(key),
	})

	tx := s.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get([]byte(badgerKeyPrefix + key))
	if err == badger.ErrKeyNotFound {
		return session.Snapshot{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return session.Snapshot{}, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy badger item")
		return session.Snapshot{}, err
	}

	var snap session.Snapshot
	err = gob.NewDecoder(bytes.NewReader(serialized)).Decode(&snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize snapshot")
		return session.Snapshot{}, err
	}
	return snap, nil
}
