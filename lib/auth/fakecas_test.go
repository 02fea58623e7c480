package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

const fakeLoginPage = `<html><body>
<form id="fm1" action="/cas/login" method="post">
	<input id="username" name="username" type="text">
	<input id="password" name="password" type="password">
	<input type="hidden" name="lt" value="T1">
	<input type="hidden" name="execution" value="E1">
	<input type="hidden" name="_eventId" value="submit">
</form>
</body></html>`

// fakeCas imitates the CAS login form flow. Everything it records is
// guarded by mu since handlers run on server goroutines.
type fakeCas struct {
	server *httptest.Server

	// served on GET /cas/login
	page string
	// status for GET /cas/login, 0 means 200
	pageStatus int
	// status for POST /cas/login, 0 means 200, 302 redirects to redirectTo
	postStatus int
	// defaults to /portal/Login?ticket=ST-1
	redirectTo string

	mu               sync.Mutex
	gets             int
	posts            int
	form             url.Values
	referer          string
	userAgent        string
	sawSessionCookie bool
	requestCookies   []string
}

func newFakeCas(t testing.TB) *fakeCas {
	f := &fakeCas{page: fakeLoginPage}

	mux := http.NewServeMux()
	mux.HandleFunc("/cas/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.userAgent = r.UserAgent()

		switch r.Method {
		case http.MethodGet:
			f.gets++
			http.SetCookie(w, &http.Cookie{
				Name:  "JSESSIONID",
				Value: fmt.Sprintf("session-%d", f.gets),
			})
			if f.pageStatus != 0 {
				w.WriteHeader(f.pageStatus)
			}
			w.Write([]byte(f.page))
		case http.MethodPost:
			f.posts++
			r.ParseForm()
			f.form = r.PostForm
			f.referer = r.Referer()
			_, err := r.Cookie("JSESSIONID")
			f.sawSessionCookie = err == nil

			http.SetCookie(w, &http.Cookie{
				Name:  TicketGrantingCookie,
				Value: fmt.Sprintf("TGT-%d", f.posts),
				Path:  "/",
			})
			switch f.postStatus {
			case 0:
				w.Write([]byte("logged in"))
			case http.StatusFound:
				target := f.redirectTo
				if target == "" {
					target = "/portal/Login?ticket=ST-1"
				}
				http.Redirect(w, r, target, http.StatusFound)
			default:
				w.WriteHeader(f.postStatus)
				w.Write([]byte("login rejected"))
			}
		}
	})
	mux.HandleFunc("/portal/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "portal", Value: "p1", Path: "/"})
		w.Write([]byte("portal home"))
	})
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requestCookies = nil
		for _, c := range r.Cookies() {
			f.requestCookies = append(f.requestCookies, c.Name)
		}
		f.userAgent = r.UserAgent()
		f.mu.Unlock()

		if r.URL.Query().Get("status") == "teapot" {
			w.WriteHeader(http.StatusTeapot)
		}
		w.Write([]byte(r.Method + " " + r.Header.Get("X-Extra")))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCas) loginUrl() string {
	return f.server.URL + "/cas/login"
}

func (f *fakeCas) counts() (gets, posts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets, f.posts
}

// countingTransport counts the requests the authority's clients make.
type countingTransport struct {
	inner http.RoundTripper
	n     atomic.Int64
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return c.inner.RoundTrip(req)
}

func newCountingTransport() *countingTransport {
	return &countingTransport{inner: http.DefaultTransport.(*http.Transport).Clone()}
}
