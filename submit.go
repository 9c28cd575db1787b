package sso

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ucchile/sso/loginform"
)

// submit posts the credentials to the login endpoint. The body carries the
// username, the password, every hidden field scraped in negotiate verbatim,
// and the service parameter when a target service is involved. The form is
// not mutated.
//
// The provider expects an _eventId; pages that do not render one get the
// standard "submit" event.
func (s *session) submit(ctx context.Context, login string, form *loginform.Form, username, password, serviceURL string, follow bool) (*http.Response, error) {
	data := url.Values{}
	for name, value := range form.Fields() {
		data.Set(name, value)
	}
	data.Set("username", username)
	data.Set("password", password)
	if !data.Has(loginform.EventIDField) {
		data.Set(loginform.EventIDField, "submit")
	}
	if serviceURL != "" {
		data.Set("service", serviceURL)
	}

	s.log.Debug().
		Str("username", username).
		Bool("follow_redirects", follow).
		Msg("submitting credentials")
	return s.postForm(ctx, login, data, follow)
}
