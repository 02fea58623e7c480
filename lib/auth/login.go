package auth

import (
	"context"
	"fmt"
	"net/http"
	"ucrauth/lib/htmlutil"
	"ucrauth/lib/session"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TicketGrantingCookie is set by CAS once the login form is accepted.
const TicketGrantingCookie = "CASTGC"

// LoginOutcome is the result of a login exchange that received a response.
// Any status on the credentials POST counts, including the redirect CAS
// answers a successful login with. The redirect is not followed.
// Transport failures are reported as errors instead.
type LoginOutcome struct {
	Jar        *session.Jar
	StatusCode int
	// informational, a missing ticket is not treated as a failure
	TicketGranted bool
}

// Login performs the CAS form login with a fresh jar and returns it. The
// cached session is not touched.
func (a *Authority) Login(ctx context.Context, creds CredentialStrategy) (LoginOutcome, error) {
	ctx, span := tracer.Start(ctx, "Authority:Login")
	defer span.End()

	if creds.Username == "" || creds.Password == "" {
		err := fmt.Errorf("%w: username or password missing: required for credentials authentication method", ErrConfiguration)
		span.SetStatus(codes.Error, err.Error())
		return LoginOutcome{}, err
	}

	loginUrl := creds.loginUrl()
	jar := session.New()
	client := a.newClient(jar)

	res, err := client.R().
		SetContext(ctx).
		Get(loginUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return LoginOutcome{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("%w: login page answered %d", ErrUnexpectedStatus, res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return LoginOutcome{}, err
	}

	doc, err := htmlutil.Parse(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse login page html")
		return LoginOutcome{}, err
	}

	// absent fields are forwarded as empty values, CAS rejects them itself
	lt := htmlutil.InputValue(doc.Selection, "lt")
	execution := htmlutil.InputValue(doc.Selection, "execution")
	span.SetAttributes(
		attribute.Bool("found_lt", lt != ""),
		attribute.Bool("found_execution", execution != ""),
	)

	// the ticket is already in the jar once CAS answers, whatever the
	// service url it redirects to does
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}))
	res, err = client.R().
		SetContext(ctx).
		SetHeader("Referer", loginUrl).
		SetFormData(map[string]string{
			"lt":        lt,
			"execution": execution,
			"username":  creds.Username,
			"password":  creds.Password,
			"_eventId":  "submit",
			"submit.x":  "0",
			"submit.y":  "0",
			"submit":    "LOGIN",
		}).
		Post(loginUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return LoginOutcome{}, err
	}

	_, granted := jar.Get(TicketGrantingCookie)
	loginCounter.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int("status", res.StatusCode()),
		attribute.Bool("ticket_granted", granted),
	)

	return LoginOutcome{
		Jar:           jar,
		StatusCode:    res.StatusCode(),
		TicketGranted: granted,
	}, nil
}
