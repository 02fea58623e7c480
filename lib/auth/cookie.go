package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SerializedCookie is a cookie as it appears in configuration, in the
// shape browser cookie exporters produce. It is handed to cookie
// construction unmodified.
type SerializedCookie struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expires  string `json:"expires"`
	MaxAge   int    `json:"maxAge"`
	Secure   bool   `json:"secure"`
	HttpOnly bool   `json:"httpOnly"`
	HostOnly bool   `json:"hostOnly"`
	SameSite string `json:"sameSite"`
}

var expiryLayouts = []string{
	time.RFC3339Nano,
	http.TimeFormat,
	time.RFC1123,
}

func parseExpires(raw string) time.Time {
	for _, layout := range expiryLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t
		}
	}
	// "Infinity" and other unknown forms mean a session cookie
	return time.Time{}
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(raw) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none", "no_restriction":
		return http.SameSiteNoneMode
	}
	return http.SameSiteDefaultMode
}

func (c SerializedCookie) cookie() *http.Cookie {
	name := c.Name
	if name == "" {
		name = c.Key
	}
	out := &http.Cookie{
		Name:     name,
		Value:    c.Value,
		Path:     c.Path,
		MaxAge:   c.MaxAge,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: parseSameSite(c.SameSite),
	}
	if !c.HostOnly {
		out.Domain = c.Domain
	}
	if c.Expires != "" {
		out.Expires = parseExpires(c.Expires)
	}
	return out
}

// cookieUrl accepts a bare domain ("example.edu") or a full url as the
// place configured cookies are bound to.
func cookieUrl(domain string) (*url.URL, error) {
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain + "/"
	}
	u, err := url.Parse(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: cookie_domain: %s", ErrConfiguration, err.Error())
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: cookie_domain has no host", ErrConfiguration)
	}
	return u, nil
}
