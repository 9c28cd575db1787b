package sso

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ucchile/sso/attributes"
	apperrors "github.com/ucchile/sso/errors"
)

// GetUserInfo performs one login attempt against the provider's own
// diagnostics flow and returns the attribute table it renders for the
// authenticated user.
//
// The diagnostics page is itself a CAS-protected service, so the call runs
// the same negotiate/submit sequence as GetTicket; redirects are followed
// here because the rendered page, not the redirect target, is the result.
// Failure classification mirrors GetTicket.
func (c *Client) GetUserInfo(ctx context.Context, username, password string) (attributes.UserAttributes, error) {
	login, err := loginURL(c.endpoint(), "")
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

	resp, err := s.submit(ctx, login, form, username, password, "", true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("diagnostics flow returned HTTP %d: %w", resp.StatusCode, apperrors.ErrUnexpectedPageLayout)
	}

	attrs, err := attributes.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("attributes", len(attrs)).
		Msg("fetched user attributes")
	return attrs, nil
}
