package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"ucrauth/lib/restyutil"
	"ucrauth/lib/session"
	"ucrauth/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Strategy is how an Authority obtains sessions. It is closed: the only
// arms are CookieStrategy and CredentialStrategy.
type Strategy interface {
	Name() string
	acquire(ctx context.Context, a *Authority, refresh bool) (*session.Jar, error)
}

// CookieStrategy builds sessions out of cookies supplied up front.
type CookieStrategy struct {
	Cookies      []SerializedCookie
	CookieDomain string
}

func (CookieStrategy) Name() string { return "cookie" }

// CredentialStrategy logs in through the CAS form with a username and
// password, the resulting session is cached on the Authority.
type CredentialStrategy struct {
	Username string
	Password string
	// defaults to DefaultLoginUrl
	LoginUrl string
}

func (CredentialStrategy) Name() string { return "credentials" }

func (s CredentialStrategy) loginUrl() string {
	if s.LoginUrl == "" {
		return DefaultLoginUrl
	}
	return s.LoginUrl
}

type Options struct {
	Request RequestConfig
	// if nil, resty's default transport is used
	Transport http.RoundTripper
	// if set, HTTP exchanges are dumped here while debug logging is on
	Output restyutil.InstrumentOutput
}

// Authority acquires sessions for one strategy and issues requests with
// the cached one. It performs no locking: callers that refresh from
// several goroutines must serialize those calls themselves.
type Authority struct {
	strategy  Strategy
	request   RequestConfig
	headers   map[string]string
	transport http.RoundTripper
	output    restyutil.InstrumentOutput

	cached *session.Jar
}

// New performs no I/O and no validation, configuration errors surface on
// first use.
func New(strategy Strategy, opts Options) *Authority {
	headers := map[string]string{
		"User-Agent": DefaultUserAgent,
	}
	for k, v := range opts.Request.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}

	return &Authority{
		strategy:  strategy,
		request:   opts.Request,
		headers:   headers,
		transport: opts.Transport,
		output:    opts.Output,
	}
}

// FromConfig resolves the `auth.type` discriminator and builds an Authority.
func FromConfig(cfg Config, opts Options) (*Authority, error) {
	strategy, err := cfg.Auth.Strategy()
	if err != nil {
		return nil, err
	}
	opts.Request = cfg.Request
	return New(strategy, opts), nil
}

func (a *Authority) Strategy() Strategy {
	return a.strategy
}

// Headers returns a copy of the headers every request starts with.
func (a *Authority) Headers() map[string]string {
	out := make(map[string]string, len(a.headers))
	for k, v := range a.headers {
		out[k] = v
	}
	return out
}

// newClient returns a resty client carrying the authority's headers and
// overrides, with `jar` as its cookie carrier (nil for none).
func (a *Authority) newClient(jar *session.Jar) *resty.Client {
	hc := &http.Client{Transport: a.transport}
	if jar != nil {
		hc.Jar = jar
	}

	client := resty.NewWithClient(hc)
	client.SetHeaders(a.headers)
	if a.request.TimeoutSeconds > 0 {
		client.SetTimeout(time.Duration(a.request.TimeoutSeconds) * time.Second)
	}
	if a.request.Proxy != "" {
		client.SetProxy(a.request.Proxy)
	}
	if a.request.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	telemetry.InstrumentResty(client, "ucrauth/http")
	restyutil.InstrumentClient(client, a.output)
	return client
}

// Session returns a session for the configured strategy.
//
// The cookie strategy builds a new jar on every call and never caches it.
// The credential strategy logs in when `refresh` is set or nothing is
// cached yet, caches the result, and otherwise returns the cached jar
// without touching the network.
func (a *Authority) Session(ctx context.Context, refresh bool) (*session.Jar, error) {
	ctx, span := tracer.Start(ctx, "Authority:Session")
	defer span.End()

	if a.strategy == nil {
		span.SetStatus(codes.Error, ErrUnsupportedStrategy.Error())
		return nil, ErrUnsupportedStrategy
	}
	span.SetAttributes(
		attribute.String("strategy", a.strategy.Name()),
		attribute.Bool("refresh", refresh),
	)

	jar, err := a.strategy.acquire(ctx, a, refresh)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire session")
		return nil, err
	}
	return jar, nil
}

func (s CookieStrategy) acquire(ctx context.Context, a *Authority, _ bool) (*session.Jar, error) {
	if s.Cookies == nil {
		return nil, fmt.Errorf("%w: auth.cookies missing: required for cookie authentication method", ErrConfiguration)
	}
	if s.CookieDomain == "" {
		return nil, fmt.Errorf("%w: auth.cookie_domain missing: required for cookie authentication method", ErrConfiguration)
	}
	u, err := cookieUrl(s.CookieDomain)
	if err != nil {
		return nil, err
	}

	jar := session.New()
	for _, c := range s.Cookies {
		cookie := c.cookie()
		before := jar.Len()
		jar.SetCookies(u, []*http.Cookie{cookie})
		if jar.Len() == before {
			return nil, fmt.Errorf(
				"%w: auth.cookies: cookie %q was rejected for domain %q (domain mismatch, expired or duplicate)",
				ErrConfiguration, cookie.Name, s.CookieDomain,
			)
		}
	}
	return jar, nil
}

func (s CredentialStrategy) acquire(ctx context.Context, a *Authority, refresh bool) (*session.Jar, error) {
	if !refresh && a.cached != nil {
		return a.cached, nil
	}

	outcome, err := a.Login(ctx, s)
	if err != nil {
		return nil, err
	}
	a.setCached(ctx, outcome.Jar)
	return outcome.Jar, nil
}

// SetSession replaces the cached session unconditionally, whatever the
// strategy. Use it to inject a session restored from storage.
func (a *Authority) SetSession(jar *session.Jar) {
	a.setCached(context.Background(), jar)
}

func (a *Authority) setCached(ctx context.Context, jar *session.Jar) {
	a.cached = jar
	slog.DebugContext(ctx, "session cache assigned", "strategy", a.strategyName())
}

// Cached returns the cached session, nil if there is none.
func (a *Authority) Cached() *session.Jar {
	return a.cached
}

func (a *Authority) strategyName() string {
	if a.strategy == nil {
		return ""
	}
	return a.strategy.Name()
}

// RequestSpec describes a single request made with the cached session.
type RequestSpec struct {
	// defaults to GET
	Method  string
	Url     string
	Headers map[string]string
	Query   url.Values
	Form    map[string]string
	Body    any
}

// Client returns a resty client that sends the cached session's cookies.
func (a *Authority) Client() *resty.Client {
	return a.newClient(a.cached)
}

// Do sends `spec` with the cached session as its cookie jar. It never
// acquires a session itself. Non-2xx responses are returned as is, with a
// nil error.
func (a *Authority) Do(ctx context.Context, spec RequestSpec) (*resty.Response, error) {
	ctx, span := tracer.Start(ctx, "Authority:Do")
	defer span.End()

	method := spec.Method
	if method == "" {
		method = resty.MethodGet
	}
	span.SetAttributes(
		attribute.String("method", method),
		attribute.String("url", spec.Url),
		attribute.Bool("has_session", a.cached != nil),
	)

	req := a.Client().R().SetContext(ctx)
	if spec.Headers != nil {
		req.SetHeaders(spec.Headers)
	}
	if spec.Query != nil {
		req.SetQueryParamsFromValues(spec.Query)
	}
	if spec.Form != nil {
		req.SetFormData(spec.Form)
	}
	if spec.Body != nil {
		req.SetBody(spec.Body)
	}

	res, err := req.Execute(method, spec.Url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make request")
		return nil, err
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	return res, nil
}
