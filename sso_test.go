package sso

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ucchile/sso/errors"
)

// fakeProvider is a minimal CAS identity provider for end-to-end tests.
// GET renders the login page with hidden tokens and sets a session cookie;
// POST validates the credentials and either redirects with a ticket,
// renders the diagnostics page, or re-renders the login form.
type fakeProvider struct {
	password   string
	omitLT     bool
	redirectTo string // overrides the success redirect target

	lastPost  url.Values
	sawCookie bool
}

const (
	testUser   = "user"
	testTicket = "ST-12345"
)

func (p *fakeProvider) loginPage() string {
	lt := `<input type="hidden" name="lt" value="LT-1" />`
	if p.omitLT {
		lt = ""
	}
	return fmt.Sprintf(`<html><body>
	<form id="fm1" action="/cas/login" method="post">
	  <input type="text" name="username" />
	  <input type="password" name="password" />
	  <input type="hidden" name="execution" value="e1" />
	  %s
	  <input type="hidden" name="_eventId" value="submit" />
	  <input type="hidden" name="ssoflow" value="flow-7" />
	</form>
	</body></html>`, lt)
}

const diagnosticsPage = `<html><body>
<div class="alert alert-success">Log In Successful</div>
<table>
  <tr><td>uid</td><td>[user]</td></tr>
  <tr><td>mail</td><td>[user@uc.cl]</td></tr>
  <tr><td>mailAlternateAddress</td><td>[first@gmail.com, second@ing.uc.cl]</td></tr>
</table>
</body></html>`

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		http.SetCookie(w, &http.Cookie{Name: "TGC", Value: "tgc-1", Path: "/"})
		fmt.Fprint(w, p.loginPage())

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.lastPost = r.PostForm
		if _, err := r.Cookie("TGC"); err == nil {
			p.sawCookie = true
		}

		if r.PostForm.Get("username") != testUser || r.PostForm.Get("password") != p.password {
			fmt.Fprint(w, p.loginPage())
			return
		}

		service := r.PostForm.Get("service")
		if service == "" {
			fmt.Fprint(w, diagnosticsPage)
			return
		}

		target := p.redirectTo
		if target == "" {
			target = service + "?ticket=" + testTicket
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// newTestClient starts the fake provider and returns a client aimed at it.
func newTestClient(t *testing.T, p *fakeProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	return &Client{Endpoint: srv.URL + "/cas/login"}
}

func TestGetTicket_Success(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	ticket, err := client.GetTicket(context.Background(), testUser, "pw1", "https://service.example/")
	require.NoError(t, err)

	assert.Equal(t, testTicket, ticket.Ticket)
	assert.Equal(t, "https://service.example/?ticket="+testTicket, ticket.ServiceURL)
	assert.True(t, p.sawCookie, "session cookie from the login page must be replayed on submission")
}

func TestGetTicket_HiddenFieldRoundTrip(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	_, err := client.GetTicket(context.Background(), testUser, "pw1", "https://service.example/")
	require.NoError(t, err)

	// Every scraped hidden field is resubmitted verbatim.
	assert.Equal(t, "e1", p.lastPost.Get("execution"))
	assert.Equal(t, "LT-1", p.lastPost.Get("lt"))
	assert.Equal(t, "submit", p.lastPost.Get("_eventId"))
	assert.Equal(t, "flow-7", p.lastPost.Get("ssoflow"))
	assert.Equal(t, "https://service.example/", p.lastPost.Get("service"))
}

func TestGetTicket_Deterministic(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	first, err := client.GetTicket(context.Background(), testUser, "pw1", "https://service.example/")
	require.NoError(t, err)
	second, err := client.GetTicket(context.Background(), testUser, "pw1", "https://service.example/")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGetTicket_InvalidCredentials(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	_, err := client.GetTicket(context.Background(), testUser, "wrong", "https://service.example/")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, apperrors.ErrUnexpectedPageLayout)
}

func TestGetTicket_RedirectBackToLogin(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	p.redirectTo = srv.URL + "/cas/login?service=https%3A%2F%2Fservice.example%2F"
	client := &Client{Endpoint: srv.URL + "/cas/login"}

	_, err := client.GetTicket(context.Background(), testUser, "pw1", "https://service.example/")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestGetTicket_MissingLoginTicketToken(t *testing.T) {
	p := &fakeProvider{password: "pw1", omitLT: true}
	client := newTestClient(t, p)

	_, err := client.GetTicket(context.Background(), testUser, "pw1", "https://service.example/")
	require.ErrorIs(t, err, apperrors.ErrUnexpectedPageLayout)
}

func TestGetTicket_RedirectWithoutTicket(t *testing.T) {
	p := &fakeProvider{password: "pw1", redirectTo: "https://service.example/welcome"}
	client := newTestClient(t, p)

	_, err := client.GetTicket(context.Background(), testUser, "pw1", "https://service.example/")
	require.ErrorIs(t, err, apperrors.ErrUnexpectedPageLayout)
}

func TestGetTicket_EmptyServiceURL(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	_, err := client.GetTicket(context.Background(), testUser, "pw1", "")
	require.Error(t, err)

	// Argument validation happens before any network activity and is not
	// one of the classified login failures.
	assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, apperrors.ErrNetwork)
	assert.NotErrorIs(t, err, apperrors.ErrUnexpectedPageLayout)
	assert.NotErrorIs(t, err, apperrors.ErrCancelled)
	assert.Empty(t, p.lastPost)
}

func TestGetTicket_Network(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/cas/login"
	srv.Close()
	client := &Client{Endpoint: endpoint}

	_, err := client.GetTicket(context.Background(), testUser, "pw1", "https://service.example/")
	require.ErrorIs(t, err, apperrors.ErrNetwork)
}

func TestGetTicket_Cancelled(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetTicket(ctx, testUser, "pw1", "https://service.example/")
	require.ErrorIs(t, err, apperrors.ErrCancelled)
}

func TestGetUserInfo_Success(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	attrs, err := client.GetUserInfo(context.Background(), testUser, "pw1")
	require.NoError(t, err)

	assert.Equal(t, "user", attrs.Username())
	assert.Equal(t, "user@uc.cl", attrs.Email())
	assert.Equal(t, []string{"first@gmail.com", "second@ing.uc.cl"}, attrs.AlternateEmails())
}

func TestGetUserInfo_Idempotent(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	first, err := client.GetUserInfo(context.Background(), testUser, "pw1")
	require.NoError(t, err)
	second, err := client.GetUserInfo(context.Background(), testUser, "pw1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGetUserInfo_InvalidCredentials(t *testing.T) {
	p := &fakeProvider{password: "pw1"}
	client := newTestClient(t, p)

	_, err := client.GetUserInfo(context.Background(), testUser, "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginURL(t *testing.T) {
	got, err := loginURL("https://sso.uc.cl/cas/login", "https://portal.uc.cl/")
	require.NoError(t, err)
	assert.Equal(t, "https://sso.uc.cl/cas/login?service=https%3A%2F%2Fportal.uc.cl%2F", got)

	got, err = loginURL("https://sso.uc.cl/cas/login", "")
	require.NoError(t, err)
	assert.Equal(t, "https://sso.uc.cl/cas/login", got)
}
