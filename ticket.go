package sso

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	apperrors "github.com/ucchile/sso/errors"
	"github.com/ucchile/sso/loginform"
)

// GetTicket performs one login attempt and returns a service ticket for
// serviceURL, together with the ticket-bearing URL the caller can fetch to
// access the service as the authenticated user.
//
// Classified failures: errors.ErrInvalidCredentials when the provider
// rejects the credentials, errors.ErrUnexpectedPageLayout when the
// provider's page or redirect contract drifted, errors.ErrNetwork on
// transport failure, errors.ErrCancelled when ctx is aborted. GetTicket
// never retries; one call is exactly one attempt.
//
// An empty serviceURL is a caller mistake, reported as a plain argument
// error before any network activity and outside the classification above.
func (c *Client) GetTicket(ctx context.Context, username, password, serviceURL string) (*ServiceTicket, error) {
	if serviceURL == "" {
		return nil, fmt.Errorf("service URL must not be empty")
	}

	login, err := loginURL(c.endpoint(), serviceURL)
	if err != nil {
		return nil, err
	}

	s, err := c.newSession()
	if err != nil {
		return nil, err
	}

	form, err := s.negotiate(ctx, login)
	if err != nil {
		return nil, err
	}

	resp, err := s.submit(ctx, login, form, username, password, serviceURL, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	ticket, err := extractTicket(resp, login)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("service_url", serviceURL).
		Msg("obtained service ticket")
	return ticket, nil
}

// extractTicket recovers the service ticket from the submission response.
//
// A redirect whose target carries a ticket query parameter is the success
// shape; the target is returned unmodified as the authenticated service
// URL. The provider re-rendering the login form, or redirecting back to the
// login endpoint, means the credentials were rejected. Every other shape is
// contract drift.
func extractTicket(resp *http.Response, login string) (*ServiceTicket, error) {
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return nil, fmt.Errorf("redirect without Location header: %w", apperrors.ErrUnexpectedPageLayout)
		}
		target, err := url.Parse(loc)
		if err != nil {
			return nil, fmt.Errorf("unparseable redirect target: %w", apperrors.ErrUnexpectedPageLayout)
		}
		if sameEndpoint(target, login) {
			return nil, fmt.Errorf("provider redirected back to login: %w", apperrors.ErrInvalidCredentials)
		}
		ticket := target.Query().Get("ticket")
		if ticket == "" {
			return nil, fmt.Errorf("redirect target has no ticket parameter: %w", apperrors.ErrUnexpectedPageLayout)
		}
		return &ServiceTicket{Ticket: ticket, ServiceURL: loc}, nil
	}

	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read login response: %w", apperrors.ErrNetwork)
		}
		if loginform.IsLoginPage(string(body)) {
			return nil, fmt.Errorf("provider re-rendered the login form: %w", apperrors.ErrInvalidCredentials)
		}
	}
	return nil, fmt.Errorf("login returned HTTP %d without a ticket redirect: %w", resp.StatusCode, apperrors.ErrUnexpectedPageLayout)
}

// sameEndpoint reports whether a redirect target points back at the login
// endpoint, query string aside.
func sameEndpoint(target *url.URL, login string) bool {
	base, err := url.Parse(login)
	if err != nil {
		return false
	}
	return target.Scheme == base.Scheme && target.Host == base.Host && target.Path == base.Path
}
