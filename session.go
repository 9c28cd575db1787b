package sso

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/phuslu/log"

	apperrors "github.com/ucchile/sso/errors"
)

// session is the per-call HTTP context for one login attempt. It owns a
// fresh cookie jar so the provider's session cookies from the login page
// are replayed on every subsequent request of the same call, and on no
// request of any other call. Discarded when the public call returns.
type session struct {
	http *http.Client
	log  *log.Logger
}

func (c *Client) newSession() (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &session{
		http: &http.Client{
			Jar:       jar,
			Timeout:   c.timeout(),
			Transport: c.Transport,
		},
		log: c.logger(),
	}, nil
}

// get issues a GET with the session cookies attached.
func (s *session) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, classify(ctx, "GET "+rawURL, err)
	}
	return resp, nil
}

// postForm issues a form-encoded POST with the session cookies attached.
// When follow is false the response is returned at the first redirect so
// the Location target stays observable.
func (s *session) postForm(ctx context.Context, rawURL string, data url.Values, follow bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.http
	if !follow {
		noRedirect := *s.http
		noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		client = &noRedirect
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(ctx, "POST "+rawURL, err)
	}
	return resp, nil
}

// classify maps a transport error onto the client's error taxonomy. A
// context aborted by the caller is a cancellation; everything else,
// timeouts included, is a network failure.
func classify(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %v: %w", op, ctx.Err(), apperrors.ErrCancelled)
	}
	return fmt.Errorf("%s: %v: %w", op, err, apperrors.ErrNetwork)
}
