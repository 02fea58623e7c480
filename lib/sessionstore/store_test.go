package sessionstore

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"
	"ucrauth/lib/session"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(t *testing.T) session.Snapshot {
	u, err := url.Parse("https://auth.example.edu/cas/login")
	require.NoError(t, err)

	jar := session.New()
	jar.SetCookies(u, []*http.Cookie{
		{Name: "JSESSIONID", Value: "j1", Path: "/cas", HttpOnly: true},
		{
			Name:    "CASTGC",
			Value:   "TGT-1",
			Domain:  "example.edu",
			Path:    "/",
			Secure:  true,
			Expires: time.Now().Add(time.Hour),
		},
	})
	return jar.Snapshot()
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Save(ctx, "", session.Snapshot{}), ErrInvalidKey)
	require.ErrorIs(t, store.Save(ctx, "../escape", session.Snapshot{}), ErrInvalidKey)

	snap := sampleSnapshot(t)
	require.NoError(t, store.Save(ctx, "student", snap))

	loaded, err := store.Load(ctx, "student")
	require.NoError(t, err)
	diff := cmp.Diff(snap, loaded, cmpopts.EquateApproxTime(time.Second), cmpopts.EquateEmpty())
	if diff != "" {
		t.Fatal(diff)
	}

	// saving again replaces the previous snapshot
	require.NoError(t, store.Save(ctx, "student", session.Snapshot{}))
	loaded, err = store.Load(ctx, "student")
	require.NoError(t, err)
	require.Empty(t, loaded.Cookies)

	require.NoError(t, store.Save(ctx, "student", snap))
	jar, err := Restore(ctx, store, "student")
	require.NoError(t, err)
	tgc, ok := jar.Get("CASTGC")
	require.True(t, ok)
	require.Equal(t, "TGT-1", tgc.Value)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, store)
}

func TestSQLStore(t *testing.T) {
	db, err := SQLConfig{File: ":memory:"}.OpenDB()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLStore(context.Background(), db)
	require.NoError(t, err)
	testStore(t, store)
}

func TestSQLConfigRequiresTarget(t *testing.T) {
	_, err := SQLConfig{}.OpenDB()
	require.Error(t, err)
}

func TestBadgerStore(t *testing.T) {
	db, err := OpenBadger("")
	require.NoError(t, err)
	defer db.Close()

	testStore(t, NewBadgerStore(db))
}
