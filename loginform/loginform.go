// Package loginform extracts the identity provider's login form from its
// rendered HTML. The provider embeds anti-forgery tokens as hidden inputs;
// every hidden field must be captured and resubmitted verbatim on login.
package loginform

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/ucchile/sso/errors"
)

// Well-known hidden field names on the provider's login form.
const (
	// ExecutionField carries the Spring Webflow execution token.
	ExecutionField = "execution"

	// LoginTicketField carries the login ticket, the provider's CSRF token.
	LoginTicketField = "lt"

	// EventIDField names the flow event to trigger on submission.
	EventIDField = "_eventId"
)

// Form holds the hidden fields scraped from the login page.
//
// Execution and LoginTicket are the two tokens the provider requires on
// every submission. Hidden preserves the remaining hidden fields exactly as
// rendered; the submitter passes them through unmodified.
type Form struct {
	Execution   string
	LoginTicket string
	Hidden      map[string]string
}

// Fields returns every scraped hidden field, the two well-known tokens
// included, keyed by the name the provider rendered.
func (f *Form) Fields() map[string]string {
	fields := make(map[string]string, len(f.Hidden)+2)
	for name, value := range f.Hidden {
		fields[name] = value
	}
	fields[ExecutionField] = f.Execution
	fields[LoginTicketField] = f.LoginTicket
	return fields
}

// Parse extracts the login form from an HTML document.
//
// Extraction is structural: hidden inputs are located by tag and attribute,
// so attribute order and whitespace differences in the provider's markup do
// not matter. A page missing either well-known token is reported as
// errors.ErrUnexpectedPageLayout.
func Parse(r io.Reader) (*Form, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse login page: %w", apperrors.ErrUnexpectedPageLayout)
	}

	form := &Form{Hidden: make(map[string]string)}
	doc.Find("form input[type='hidden']").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		value := s.AttrOr("value", "")
		switch name {
		case ExecutionField:
			form.Execution = value
		case LoginTicketField:
			form.LoginTicket = value
		default:
			form.Hidden[name] = value
		}
	})

	if form.Execution == "" {
		return nil, fmt.Errorf("login page has no %s token: %w", ExecutionField, apperrors.ErrUnexpectedPageLayout)
	}
	if form.LoginTicket == "" {
		return nil, fmt.Errorf("login page has no %s token: %w", LoginTicketField, apperrors.ErrUnexpectedPageLayout)
	}
	return form, nil
}

// IsLoginPage reports whether the HTML renders the provider's login form.
// The ticket extractor uses it to tell rejected credentials (the provider
// re-renders the form) apart from layout drift.
func IsLoginPage(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return HasForm(doc)
}

// HasForm reports whether an already-parsed document contains the
// provider's login form markers.
func HasForm(doc *goquery.Document) bool {
	return doc.Find("form input[name='"+ExecutionField+"']").Length() > 0 ||
		doc.Find("form input[name='username']").Length() > 0
}
