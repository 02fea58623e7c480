package auth

import (
	"context"
	"fmt"
	"ucrauth/lib/session"

	"go.opentelemetry.io/otel/codes"
)

// FetchRegistrationCookies visits the course registration system with
// `jar` so it collects that system's cookies. The jar is modified in place
// and returned.
func (a *Authority) FetchRegistrationCookies(ctx context.Context, jar *session.Jar) (*session.Jar, error) {
	ctx, span := tracer.Start(ctx, "Authority:FetchRegistrationCookies")
	defer span.End()

	registrationUrl := a.request.RegistrationUrl
	if registrationUrl == "" {
		registrationUrl = DefaultRegistrationUrl
	}
	portalUrl := a.request.PortalUrl
	if portalUrl == "" {
		portalUrl = DefaultPortalUrl
	}

	res, err := a.newClient(jar).R().
		SetContext(ctx).
		SetHeader("Referer", portalUrl).
		Get(registrationUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch registration page")
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("%w: registration page answered %d", ErrUnexpectedStatus, res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return jar, nil
}
