// Package attributes parses the identity provider's authenticated
// diagnostics page into a typed mapping of user attributes.
package attributes

// Key identifies a normalized user attribute.
//
// The provider renders its own LDAP-ish labels; known labels are rewritten
// to these keys. Labels outside the known set pass through verbatim as a
// Key so additive provider changes do not break callers.
type Key string

// Known attribute keys.
const (
	KeyUsername        Key = "username"
	KeyEmail           Key = "email"
	KeyAlternateEmails Key = "alternate_emails"
	KeyEmailType       Key = "email_type"
	KeyFullName        Key = "full_name"
	KeyGivenName       Key = "given_name"
	KeySurnames        Key = "surnames"
	KeyFirstLastName   Key = "first_last_name"
	KeySecondLastName  Key = "second_last_name"
	KeyRUN             Key = "run"
	KeyUserCategory    Key = "user_category"
	KeyUserType        Key = "user_type"
	KeyUDCID           Key = "udc_id"
)

// FieldValue is a single attribute value: either a scalar string or an
// ordered list of strings for multi-valued fields such as alternate emails.
type FieldValue struct {
	values []string
	multi  bool
}

// Scalar returns a single-valued FieldValue.
func Scalar(v string) FieldValue {
	return FieldValue{values: []string{v}}
}

// List returns a multi-valued FieldValue preserving the order given.
func List(vs ...string) FieldValue {
	values := make([]string, len(vs))
	copy(values, vs)
	return FieldValue{values: values, multi: true}
}

// IsList reports whether the value is multi-valued.
func (v FieldValue) IsList() bool { return v.multi }

// String returns the scalar value, or the first value of a list.
// Empty FieldValues return "".
func (v FieldValue) String() string {
	if len(v.values) == 0 {
		return ""
	}
	return v.values[0]
}

// Strings returns all values in document order. The returned slice is a
// copy; mutating it does not affect the FieldValue.
func (v FieldValue) Strings() []string {
	values := make([]string, len(v.values))
	copy(values, v.values)
	return values
}

// UserAttributes maps attribute keys to their values for one user.
// Built once per call and not modified afterwards.
type UserAttributes map[Key]FieldValue

// Username returns the login name attribute, or "" if absent.
func (a UserAttributes) Username() string { return a[KeyUsername].String() }

// Email returns the primary email attribute, or "" if absent.
func (a UserAttributes) Email() string { return a[KeyEmail].String() }

// FullName returns the combined display name attribute, or "" if absent.
func (a UserAttributes) FullName() string { return a[KeyFullName].String() }

// AlternateEmails returns the user's alternate email addresses in document
// order, or nil if the provider reported none.
func (a UserAttributes) AlternateEmails() []string {
	v, ok := a[KeyAlternateEmails]
	if !ok {
		return nil
	}
	return v.Strings()
}
