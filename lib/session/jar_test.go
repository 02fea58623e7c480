package session

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func mustParse(t testing.TB, raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestJarIndex(t *testing.T) {
	jar := New()
	u := mustParse(t, "https://auth.example.edu/cas/login")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "JSESSIONID", Value: "j1", Path: "/cas", HttpOnly: true},
		{Name: "CASTGC", Value: "TGT-1", Domain: ".example.edu", Path: "/", Secure: true},
	})

	require.Equal(t, 2, jar.Len())

	tgc, ok := jar.Get("CASTGC")
	require.True(t, ok)
	require.Equal(t, "example.edu", tgc.Domain)
	require.False(t, tgc.HostOnly)

	sid, ok := jar.Get("JSESSIONID")
	require.True(t, ok)
	require.Equal(t, "auth.example.edu", sid.Domain)
	require.Equal(t, "/cas", sid.Path)
	require.True(t, sid.HostOnly)

	// same (domain, path, name) replaces the value in place
	jar.SetCookies(u, []*http.Cookie{{Name: "JSESSIONID", Value: "j2", Path: "/cas"}})
	require.Equal(t, 2, jar.Len())
	sid, _ = jar.Get("JSESSIONID")
	require.Equal(t, "j2", sid.Value)

	// portal requests carry the domain cookie only
	portal := jar.Cookies(mustParse(t, "https://portal.example.edu/uPortal/"))
	require.Len(t, portal, 1)
	require.Equal(t, "CASTGC", portal[0].Name)
}

func TestJarDeletion(t *testing.T) {
	jar := New()
	u := mustParse(t, "https://example.edu/")

	jar.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "abc"}})
	require.Equal(t, 1, jar.Len())

	jar.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "", MaxAge: -1}})
	require.Equal(t, 0, jar.Len())

	jar.SetCookies(u, []*http.Cookie{{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)}})
	require.Equal(t, 0, jar.Len())
}

func TestJarRejectsForeignDomain(t *testing.T) {
	jar := New()
	jar.SetCookies(
		mustParse(t, "https://auth.example.edu/"),
		[]*http.Cookie{{Name: "evil", Value: "1", Domain: "other.edu"}},
	)
	require.Equal(t, 0, jar.Len())
}

func TestSnapshotRoundTrip(t *testing.T) {
	jar := New()
	jar.SetCookies(mustParse(t, "https://auth.example.edu/cas/login"), []*http.Cookie{
		{Name: "JSESSIONID", Value: "j1", Path: "/cas"},
		{Name: "CASTGC", Value: "TGT-1", Domain: "example.edu", Path: "/", Secure: true},
		{Name: "remember", Value: "yes", Expires: time.Now().Add(24 * time.Hour).Truncate(time.Second)},
	})

	serialized, err := json.Marshal(jar.Snapshot())
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(serialized, &decoded))

	restored, err := FromSnapshot(decoded)
	require.NoError(t, err)

	diff := cmp.Diff(
		jar.All(),
		restored.All(),
		cmpopts.EquateApproxTime(time.Second),
	)
	if diff != "" {
		t.Fatal(diff)
	}

	sent := restored.Cookies(mustParse(t, "https://auth.example.edu/cas/login"))
	require.Len(t, sent, 3)
}

func TestFromSnapshotInvalid(t *testing.T) {
	_, err := FromSnapshot(Snapshot{Cookies: []Cookie{{Name: "sid", Value: "abc"}}})
	require.ErrorIs(t, err, ErrInvalidSnapshot)

	restored, err := FromSnapshot(Snapshot{Cookies: []Cookie{{
		Name:    "stale",
		Value:   "1",
		Domain:  "example.edu",
		Expires: time.Now().Add(-time.Minute),
	}}})
	require.NoError(t, err)
	require.Equal(t, 0, restored.Len())
}
