package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Cookie is the plain form of a cookie held by a Jar.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
	HostOnly bool      `json:"host_only,omitempty"`
}

func (c Cookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

type entryKey struct {
	domain string
	path   string
	name   string
}

// Jar is a cookie container shared by every request that should see the
// same authenticated state. It satisfies http.CookieJar and additionally
// keeps an index of every accepted cookie so the whole jar can be
// enumerated and snapshotted.
type Jar struct {
	inner *cookiejar.Jar

	mu    sync.Mutex
	index map[entryKey]Cookie
}

func New() *Jar {
	// cookiejar.New never returns a non-nil error
	inner, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		panic(err)
	}
	return &Jar{
		inner: inner,
		index: map[entryKey]Cookie{},
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	if u.Scheme != "http" && u.Scheme != "https" {
		return
	}

	now := time.Now()
	host := strings.ToLower(u.Hostname())

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		entry := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}

		entry.Domain = strings.TrimPrefix(strings.ToLower(c.Domain), ".")
		if entry.Domain == "" || isIP(host) {
			entry.Domain = host
			entry.HostOnly = true
		}

		entry.Path = c.Path
		if !strings.HasPrefix(entry.Path, "/") {
			entry.Path = defaultPath(u.Path)
		}

		switch {
		case c.MaxAge < 0:
			entry.Expires = now
		case c.MaxAge > 0:
			entry.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		default:
			entry.Expires = c.Expires
		}

		key := entryKey{domain: entry.Domain, path: entry.Path, name: entry.Name}
		if entry.expired(now) {
			delete(j.index, key)
			continue
		}
		if !j.accepted(entry) {
			continue
		}
		j.index[key] = entry
	}
}

// accepted reports whether the underlying jar actually stored the cookie,
// it refuses cookies for foreign domains or public suffixes.
func (j *Jar) accepted(c Cookie) bool {
	probe := &url.URL{Scheme: "https", Host: c.Domain, Path: c.Path}
	for _, stored := range j.inner.Cookies(probe) {
		if stored.Name == c.Name && stored.Value == c.Value {
			return true
		}
	}
	return false
}

// All returns every cookie in the jar that has not expired, ordered by
// domain, path and name.
func (j *Jar) All() []Cookie {
	now := time.Now()

	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Cookie, 0, len(j.index))
	for key, c := range j.index {
		if c.expired(now) {
			delete(j.index, key)
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Cookie) int {
		if a.Domain != b.Domain {
			return strings.Compare(a.Domain, b.Domain)
		}
		if a.Path != b.Path {
			return strings.Compare(a.Path, b.Path)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (j *Jar) Len() int {
	return len(j.All())
}

// Get returns the first live cookie with the given name.
func (j *Jar) Get(name string) (Cookie, bool) {
	for _, c := range j.All() {
		if c.Name == name {
			return c, true
		}
	}
	return Cookie{}, false
}

// Snapshot is the plain, serializable form of a Jar.
type Snapshot struct {
	Cookies []Cookie `json:"cookies"`
}

func (j *Jar) Snapshot() Snapshot {
	return Snapshot{Cookies: j.All()}
}

var ErrInvalidSnapshot = errors.New("invalid session snapshot")

// FromSnapshot reconstructs a live Jar, expired cookies are dropped.
func FromSnapshot(snap Snapshot) (*Jar, error) {
	jar := New()
	now := time.Now()

	for _, c := range snap.Cookies {
		if c.Name == "" || c.Domain == "" {
			return nil, fmt.Errorf("%w: cookie must have a name and a domain", ErrInvalidSnapshot)
		}
		if c.expired(now) {
			continue
		}

		path := c.Path
		if path == "" {
			path = "/"
		}
		restored := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if !c.HostOnly {
			restored.Domain = c.Domain
		}

		u := &url.URL{Scheme: "https", Host: c.Domain, Path: path}
		jar.SetCookies(u, []*http.Cookie{restored})
	}

	return jar, nil
}

func isIP(host string) bool {
	return strings.Contains(host, ":") || strings.Trim(host, "0123456789.") == ""
}

// directory of the request path, as in RFC 6265 section 5.1.4
func defaultPath(path string) string {
	if len(path) == 0 || path[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(path, "/")
	if i == 0 {
		return "/"
	}
	return path[:i]
}
