package attributes

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/ucchile/sso/errors"
	"github.com/ucchile/sso/loginform"
)

// scalarLabels maps the provider's row labels to their normalized keys.
// mailAlternateAddress is handled separately as the one multi-valued field.
var scalarLabels = map[string]Key{
	"displayName":      KeyFullName,
	"givenName":        KeyGivenName,
	"apellidos":        KeySurnames,
	"sn":               KeyFirstLastName,
	"apellidomaterno":  KeySecondLastName,
	"uid":              KeyUsername,
	"mail":             KeyEmail,
	"tipocorreo":       KeyEmailType,
	"carlicense":       KeyRUN,
	"businessCategory": KeyUserCategory,
	"employeeType":     KeyUserType,
	"UDCIdentifier":    KeyUDCID,
}

// ignoredLabels are rows the provider renders but callers have no use for.
var ignoredLabels = map[string]bool{
	"eduPersonScopedAffiliation": true,
	"cn":                         true,
	"organizationName":           true,
}

// Parse reads the diagnostics page and returns the user's attributes.
//
// The provider marks a successful login with an alert-success element. A
// page without the marker that re-renders the login form means the
// credentials were rejected, errors.ErrInvalidCredentials. A page with
// neither marker nor form, or a success marker without the attribute
// table, means the page contract drifted, errors.ErrUnexpectedPageLayout.
func Parse(r io.Reader) (UserAttributes, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse diagnostics page: %w", apperrors.ErrUnexpectedPageLayout)
	}

	if doc.Find("div.alert-success").Length() == 0 {
		if loginform.HasForm(doc) {
			return nil, fmt.Errorf("login form re-rendered instead of diagnostics page: %w", apperrors.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("diagnostics page has neither success marker nor login form: %w", apperrors.ErrUnexpectedPageLayout)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("diagnostics page has no attribute table: %w", apperrors.ErrUnexpectedPageLayout)
	}

	attrs := make(UserAttributes)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			// Header and decorative rows.
			return
		}
		label := normalize(cells.Eq(0).Text())
		values := splitValues(cells.Eq(1).Text())
		if label == "" || len(values) == 0 {
			return
		}
		setAttribute(attrs, label, values)
	})

	if len(attrs) == 0 {
		return nil, fmt.Errorf("attribute table has no recognizable rows: %w", apperrors.ErrUnexpectedPageLayout)
	}
	return attrs, nil
}

// setAttribute stores one table row under its normalized key. Ignored
// labels are dropped; unknown labels pass through under their raw name.
func setAttribute(attrs UserAttributes, label string, values []string) {
	if ignoredLabels[label] {
		return
	}
	if label == "mailAlternateAddress" {
		attrs[KeyAlternateEmails] = List(values...)
		return
	}
	if key, ok := scalarLabels[label]; ok {
		v := values[0]
		if key == KeyRUN {
			v = strings.TrimLeft(v, "0")
		}
		attrs[key] = Scalar(v)
		return
	}
	if len(values) > 1 {
		attrs[Key(label)] = List(values...)
		return
	}
	attrs[Key(label)] = Scalar(values[0])
}

// splitValues turns a value cell into its ordered values. The provider
// renders multi-valued attributes as "[a, b]"; empty entries are dropped.
func splitValues(cell string) []string {
	cell = normalize(cell)
	cell = strings.TrimPrefix(cell, "[")
	cell = strings.TrimSuffix(cell, "]")

	var values []string
	for _, part := range strings.Split(cell, ", ") {
		part = normalize(part)
		if part != "" {
			values = append(values, part)
		}
	}
	return values
}

// zeroWidth strips the invisible codepoints the provider's templating is
// known to leak into cell text.
var zeroWidth = strings.NewReplacer(
	"\u200B", "", // zero width space
	"\u200C", "", // zero width non-joiner
	"\u200D", "", // zero width joiner
	"\uFEFF", "", // byte order mark
)

// normalize applies the same deterministic cleanup to every label and
// value: NFC composition, zero-width character removal, and trimming.
// No locale-dependent transforms, so the same page bytes always produce
// the same attribute mapping.
func normalize(s string) string {
	s = norm.NFC.String(s)
	s = zeroWidth.Replace(s)
	return strings.TrimSpace(s)
}
