package sso

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	apperrors "github.com/ucchile/sso/errors"
	"github.com/ucchile/sso/loginform"
)

// loginURL builds the provider login URL for a target service. The provider
// renders its ticket-granting flow per service, so the service URL travels
// as a query parameter on the login page fetch and again on submission.
// An empty serviceURL yields the bare endpoint (the diagnostics flow).
func loginURL(endpoint, serviceURL string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if serviceURL != "" {
		q := u.Query()
		q.Set("service", serviceURL)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// negotiate fetches the login page and scrapes its hidden form fields.
// The provider's session cookies land in the session jar as a side effect.
func (s *session) negotiate(ctx context.Context, login string) (*loginform.Form, error) {
	resp, err := s.get(ctx, login)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login page returned HTTP %d: %w", resp.StatusCode, apperrors.ErrUnexpectedPageLayout)
	}

	form, err := loginform.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("hidden_fields", len(form.Hidden)).
		Msg("negotiated login page")
	return form, nil
}
