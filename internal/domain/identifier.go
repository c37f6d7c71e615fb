package domain

import (
	"regexp"
	"strings"
)

type IdentifierKind string

const (
	KindEmail  IdentifierKind = "email"
	KindPhone  IdentifierKind = "phone"
	KindOpaque IdentifierKind = "opaque"
)

// Attribute ids used for free-form lookups.
const (
	AttributeEmail      = "email"
	AttributePhone      = "phone"
	AttributeCustomerID = "customer_id"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s.]+(\.[^@\s.]+)+$`)
	phonePattern = regexp.MustCompile(`^(\+\d{1,3})?\d{7,}$`)
	phoneStrip   = strings.NewReplacer("-", "", ".", "", "(", "", ")", "", " ", "", "\t", "", "\n", "", "\r", "")
)

// Classify tags a free-form identifier. It never fails; anything that is not
// an email or phone number is Opaque.
func Classify(raw string) IdentifierKind {
	s := strings.TrimSpace(raw)
	if emailPattern.MatchString(s) {
		return KindEmail
	}
	if phonePattern.MatchString(NormalizePhone(s)) {
		return KindPhone
	}
	return KindOpaque
}

// NormalizePhone strips separators, keeping a leading '+'.
func NormalizePhone(raw string) string {
	return phoneStrip.Replace(strings.TrimSpace(raw))
}

// MaskIdentifier hides most of an identifier for logging.
func MaskIdentifier(raw string) string {
	if at := strings.LastIndex(raw, "@"); at >= 0 {
		return prefix(raw[:at], 2) + "***@" + raw[at+1:]
	}
	return prefix(raw, 2) + "***"
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) < n {
		return string(r)
	}
	return string(r[:n])
}
