// Package sso implements a client for the UC Chile CAS single-sign-on
// provider. It obtains service tickets for CAS-protected services and reads
// the user-attribute table from the provider's authenticated diagnostics
// page.
//
// Each call performs exactly one login attempt against the provider: it
// negotiates the login page, submits the credentials with the page's hidden
// anti-forgery tokens, and recovers the service ticket from the provider's
// redirect. Credentials are used once per call and never retained or logged.
//
// Failures are classified with the sentinels in the errors package:
// errors.ErrInvalidCredentials, errors.ErrNetwork,
// errors.ErrUnexpectedPageLayout, and errors.ErrCancelled. Callers test
// for them with errors.Is; returned errors wrap exactly one sentinel.
package sso

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/phuslu/log"

	"github.com/ucchile/sso/attributes"
)

const (
	// DefaultEndpoint is the production login endpoint of the UC Chile
	// identity provider.
	DefaultEndpoint = "https://sso.uc.cl/cas/login"

	// DefaultTimeout bounds each individual HTTP request when the Client
	// does not set its own.
	DefaultTimeout = 30 * time.Second
)

// ServiceTicket proves one successful authentication against one service.
//
// Ticket is the opaque CAS ticket value. ServiceURL is the ticket-bearing
// URL the provider redirected to; fetching it accesses the service as the
// authenticated user.
type ServiceTicket struct {
	Ticket     string
	ServiceURL string
}

// Client issues login attempts against a CAS identity provider.
//
// The zero value is usable and talks to DefaultEndpoint. A Client holds
// configuration only; every call allocates its own HTTP session and cookie
// jar, so a Client is safe for concurrent use.
type Client struct {
	// Endpoint is the provider's login URL. Empty means DefaultEndpoint.
	Endpoint string

	// Timeout bounds each HTTP request (connect and read). Zero means
	// DefaultTimeout. A deadline for the whole call belongs on the ctx
	// passed to GetTicket or GetUserInfo.
	Timeout time.Duration

	// Transport optionally overrides the HTTP transport, e.g. for tests
	// or custom TLS configuration. Nil means http.DefaultTransport.
	Transport http.RoundTripper

	// Logger receives step-level debug logging. Nil disables logging.
	// Passwords are never logged at any level.
	Logger *log.Logger
}

func (c *Client) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return DefaultEndpoint
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

var nopLogger = log.Logger{Writer: log.IOWriter{Writer: io.Discard}}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &nopLogger
}

// GetTicket authenticates against the default provider endpoint and returns
// a service ticket for serviceURL. See Client.GetTicket.
func GetTicket(ctx context.Context, username, password, serviceURL string) (*ServiceTicket, error) {
	return (&Client{}).GetTicket(ctx, username, password, serviceURL)
}

// GetUserInfo authenticates against the default provider endpoint and
// returns the user's attribute table. See Client.GetUserInfo.
func GetUserInfo(ctx context.Context, username, password string) (attributes.UserAttributes, error) {
	return (&Client{}).GetUserInfo(ctx, username, password)
}
