package ilearn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"ucrauth/lib/auth"
	"ucrauth/lib/session"
	"ucrauth/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body><form method="post">
	<input type="hidden" name="lt" value="LT-1">
	<input type="hidden" name="execution" value="e1s1">
</form></body></html>`

const courseTab = `<html><body>
<div id="module:_4_1">
	<ul class="portletList-img courseListing">
		<li><a href="/webapps/blackboard/execute/launcher?type=Course&url=&course_id=_101_1">CS 100 - Software Construction</a></li>
		<li><a href="/webapps/blackboard/execute/launcher?type=Course&course_id=_202_1">MATH 010A - Calculus
			for Science</a></li>
		<li><a href="/webapps/blackboard/execute/launcher?type=Course&course_id=_202_1">MATH 010A - Calculus for Science</a></li>
		<li><a href="/webapps/portal/execute/tabs/tabAction?tab_tab_group_id=_3_1">Organizations</a></li>
	</ul>
</div>
</body></html>`

func newFakeIlearn(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/cas/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			http.SetCookie(w, &http.Cookie{Name: auth.TicketGrantingCookie, Value: "TGT-1", Path: "/"})
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write([]byte(loginPage))
	})
	mux.HandleFunc(casBridgePath, func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(auth.TicketGrantingCookie); err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("cmd") != "login" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "s_session_id", Value: "BB-1", Path: "/"})
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/webapps/portal/execute/tabs/tabAction", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("s_session_id"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(courseTab))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) Client {
	authority := auth.New(auth.CredentialStrategy{
		Username: "student",
		Password: "secret",
		LoginUrl: server.URL + "/cas/login",
	}, auth.Options{})
	return NewClient(authority, server.URL)
}

func TestCourses(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/scrapers/ilearn")
	defer cleanup()

	server := newFakeIlearn(t)
	client := newTestClient(server)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx))
	require.NotNil(t, client.Auth.Cached())

	courses, err := client.Courses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	require.Equal(t, "CS 100 - Software Construction", courses[0].Name)
	require.Equal(t, "_101_1", courses[0].Id())
	require.Equal(t, "MATH 010A - Calculus for Science", courses[1].Name)
	require.Equal(t, "_202_1", courses[1].Id())
}

func TestLoginKeepsRestoredSession(t *testing.T) {
	server := newFakeIlearn(t)
	authority := auth.New(auth.CookieStrategy{
		Cookies:      []auth.SerializedCookie{},
		CookieDomain: "ilearn.example.edu",
	}, auth.Options{})

	serverUrl, err := url.Parse(server.URL)
	require.NoError(t, err)
	restored := session.New()
	restored.SetCookies(serverUrl, []*http.Cookie{
		{Name: auth.TicketGrantingCookie, Value: "TGT-restored", Path: "/"},
	})
	authority.SetSession(restored)

	client := NewClient(authority, server.URL)
	ctx := context.Background()
	require.NoError(t, client.Login(ctx))
	require.Same(t, restored, authority.Cached())

	_, ok := restored.Get("s_session_id")
	require.True(t, ok)
	courses, err := client.Courses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
}

func TestCoursesWithoutLogin(t *testing.T) {
	server := newFakeIlearn(t)
	client := newTestClient(server)

	_, err := client.Courses(context.Background())
	require.ErrorIs(t, err, auth.ErrUnexpectedStatus)
}

func TestFindCourse(t *testing.T) {
	courses := []Course{
		{Name: "CS 100 - Software Construction", Href: "a"},
		{Name: "MATH 010A - Calculus for Science", Href: "b"},
		{Name: "PHYS 040A - General Physics", Href: "c"},
	}

	course, ok := FindCourse(courses, "math 010a calculus for science")
	require.True(t, ok)
	require.Equal(t, "b", course.Href)

	course, ok = FindCourse(courses, "  CS 100 -  software construction ")
	require.True(t, ok)
	require.Equal(t, "a", course.Href)

	_, ok = FindCourse(courses, "zzzz")
	require.False(t, ok)

	_, ok = FindCourse(nil, "anything")
	require.False(t, ok)
}
