// Package sessionstore persists session snapshots so a process can restore
// a logged in session instead of logging in again.
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"ucrauth/lib/session"
	"ucrauth/lib/telemetry"
)

var tracer = telemetry.Tracer("ucrauth.lib.sessionstore")

var ErrNotFound = errors.New("session snapshot not found")
var ErrInvalidKey = errors.New("invalid session key")

type Store interface {
	Save(ctx context.Context, key string, snap session.Snapshot) error
	// Load returns ErrNotFound if nothing was saved under key.
	Load(ctx context.Context, key string) (session.Snapshot, error)
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Restore loads the snapshot under key and rebuilds a live jar from it.
func Restore(ctx context.Context, store Store, key string) (*session.Jar, error) {
	snap, err := store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return session.FromSnapshot(snap)
}
