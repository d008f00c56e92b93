package ecampus

import (
	"bunker-backend/internal/components/telemetry"
	"context"
	_ "embed"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

//go:embed testdata/login.html
var loginHtml string

//go:embed testdata/attendance.html
var attendanceHtml string

//go:embed testdata/timetable.html
var timetableHtml string

const (
	testUsername  = "22z201"
	testPassword  = "hunter2"
	sessionCookie = "ASP.NET_SessionId"
)

// fakePortal imitates the studzone pages closely enough to drive a Client through
// the whole login flow.
type fakePortal struct {
	server *httptest.Server

	lock      sync.Mutex
	pages     map[string]string
	posts     int
	postPaths []string
	lastForm  url.Values
}

func newFakePortal(t testing.TB) *fakePortal {
	p := &fakePortal{
		pages: map[string]string{
			"login":      loginHtml,
			"attendance": attendanceHtml,
			"timetable":  timetableHtml,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /studzone2/{$}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, p.page("login"))
	})
	mux.HandleFunc("POST /studzone2/Default.aspx", p.handleLogin)
	mux.HandleFunc("GET /studzone2/AttWfLoginPage.aspx", p.protected("home"))
	mux.HandleFunc("GET /studzone2/AttWfPercView.aspx", p.protected("attendance"))
	mux.HandleFunc("GET /studzone2/AttWfStudTimtab.aspx", p.protected("timetable"))

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePortal) baseUrl() string {
	return p.server.URL + "/studzone2/"
}

func (p *fakePortal) options() ClientOptions {
	return ClientOptions{
		BaseUrl:           p.baseUrl(),
		RequestsPerSecond: 1000,
	}
}

func (p *fakePortal) setPage(name, body string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.pages[name] = body
}

func (p *fakePortal) page(name string) string {
	p.lock.Lock()
	defer p.lock.Unlock()
	body, ok := p.pages[name]
	if !ok {
		return "<html><body>Welcome</body></html>"
	}
	return body
}

func (p *fakePortal) postCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.posts
}

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.lock.Lock()
	p.posts++
	p.postPaths = append(p.postPaths, r.URL.Path)
	p.lastForm = r.PostForm
	p.lock.Unlock()

	if r.PostForm.Get("txtusercheck") != testUsername ||
		r.PostForm.Get("txtpwdcheck") != testPassword ||
		r.PostForm.Get("__VIEWSTATE") == "" {
		io.WriteString(w, "<html><body><span>Invalid Username or Password</span></body></html>")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  sessionCookie,
		Value: "fake-session",
		Path:  "/studzone2",
	})
	http.Redirect(w, r, "/studzone2/AttWfLoginPage.aspx", http.StatusFound)
}

// protected serves a page only to clients holding the session cookie, anybody else
// is shown the login page like the real portal does.
func (p *fakePortal) protected(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value != "fake-session" {
			io.WriteString(w, p.page("login"))
			return
		}
		io.WriteString(w, p.page(name))
	}
}

func newLoggedInClient(t testing.TB, p *fakePortal, tel telemetry.API) *Client {
	client, err := NewClient(p.options(), tel)
	require.NoError(t, err)
	ok := client.Authenticate(context.Background(), Credentials{
		Username: testUsername,
		Password: testPassword,
	})
	require.True(t, ok, "login failed: %v", client.LastError())
	return client
}
