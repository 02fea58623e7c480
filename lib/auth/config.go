package auth

import "fmt"

const (
	DefaultLoginUrl        = "https://auth.ucr.edu/cas/login?service=https://portal.ucr.edu/uPortal/Login"
	DefaultRegistrationUrl = "https://registrationssb.ucr.edu/StudentRegistrationSsb/"
	DefaultPortalUrl       = "https://portal.ucr.edu/uPortal/f/home-student/normal/render.uP"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/60.0.3112.113 Safari/537.36"
)

type CredentialsConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthConfig is the `auth` object of a configuration file, `type` selects
// which of the remaining fields are read.
type AuthConfig struct {
	Type         string             `json:"type"`
	Cookies      []SerializedCookie `json:"cookies"`
	CookieDomain string             `json:"cookie_domain"`
	Credentials  CredentialsConfig  `json:"credentials"`
	LoginUrl     string             `json:"login_url"`
}

// RequestConfig overrides the defaults of every HTTP client the authority
// creates.
type RequestConfig struct {
	// merged over the default headers, these win on conflicting keys
	Headers map[string]string `json:"headers"`
	// zero means no timeout
	TimeoutSeconds   int    `json:"timeout_seconds"`
	Proxy            string `json:"proxy"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
	RegistrationUrl  string `json:"registration_url"`
	PortalUrl        string `json:"portal_url"`
}

type Config struct {
	Auth    AuthConfig    `json:"auth"`
	Request RequestConfig `json:"request"`
}

// Strategy turns the `auth` object into the arm of the Strategy sum type
// it names.
func (c AuthConfig) Strategy() (Strategy, error) {
	switch c.Type {
	case "cookie":
		return CookieStrategy{
			Cookies:      c.Cookies,
			CookieDomain: c.CookieDomain,
		}, nil
	case "credentials":
		return CredentialStrategy{
			Username: c.Credentials.Username,
			Password: c.Credentials.Password,
			LoginUrl: c.LoginUrl,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, c.Type)
}
