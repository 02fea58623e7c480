package ilearn

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"ucrauth/lib/auth"
	"ucrauth/lib/htmlutil"
	"ucrauth/lib/telemetry"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("ucrauth.lib.scrapers.ilearn")

const DefaultBaseUrl = "https://ilearn.ucr.edu"

const (
	casBridgePath  = "/webapps/bb-auth-provider-cas-bb_bb60/execute/casLogin"
	courseListPath = "/webapps/portal/execute/tabs/tabAction?tab_tab_group_id=_2_1"
)

// MatchThreshold is the lowest Jaro-Winkler similarity FindCourse accepts.
const MatchThreshold = 0.8

type Client struct {
	Auth *auth.Authority
	// defaults to DefaultBaseUrl
	BaseUrl string
}

func NewClient(authority *auth.Authority, baseUrl string) Client {
	return Client{Auth: authority, BaseUrl: baseUrl}
}

func (c Client) base() string {
	if c.BaseUrl == "" {
		return DefaultBaseUrl
	}
	return strings.TrimSuffix(c.BaseUrl, "/")
}

func (c Client) resolve(path string) string {
	return c.base() + path
}

func (c Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	res, err := c.Auth.Do(ctx, auth.RequestSpec{Url: endpoint})
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: GET %s: %d", auth.ErrUnexpectedStatus, endpoint, res.StatusCode())
	}
	return res.Body(), nil
}

// Login walks the CAS bridge so the authority's cached session also carries
// iLearn's own cookies. A session is acquired and cached first only when
// none is cached, so a restored session is kept.
func (c Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if c.Auth.Cached() == nil {
		jar, err := c.Auth.Session(ctx, false)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to acquire session")
			return err
		}
		c.Auth.SetSession(jar)
	}

	query := url.Values{}
	query.Set("cmd", "login")
	query.Set("authProviderId", "_102_1")
	query.Set("redirectUrl", c.base()+"/")
	_, err := c.get(ctx, c.resolve(casBridgePath)+"?"+query.Encode())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to pass the cas bridge")
		return err
	}
	return nil
}

type Course htmlutil.Anchor

func (c Course) Id() string {
	href, err := url.Parse(c.Href)
	if err != nil {
		return ""
	}
	return href.Query().Get("course_id")
}

// Courses lists the links on the course tab that point at a course.
func (c Client) Courses(ctx context.Context) ([]Course, error) {
	ctx, span := tracer.Start(ctx, "client:Courses")
	defer span.End()

	body, err := c.get(ctx, c.resolve(courseListPath))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	doc, err := htmlutil.Parse(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	anchors := htmlutil.FilterAnchors(ctx, doc.Selection, "href", "course_id")
	seen := map[string]bool{}
	courses := []Course{}
	for _, a := range anchors {
		if a.Name == "" || seen[a.Href] {
			continue
		}
		seen[a.Href] = true
		courses = append(courses, Course(a))
	}

	span.SetAttributes(attribute.Int("courses", len(courses)))
	return courses, nil
}

// FindCourse returns the course whose name is most similar to `name`, false
// if none reaches MatchThreshold.
func FindCourse(courses []Course, name string) (Course, bool) {
	target := strings.ToLower(htmlutil.CleanText(name))

	best := -1
	bestScore := 0.0
	for i, course := range courses {
		score := matchr.JaroWinkler(target, strings.ToLower(course.Name), false)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 || bestScore < MatchThreshold {
		return Course{}, false
	}
	return courses[best], true
}
