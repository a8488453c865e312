// Package validate holds the field checks shared by quoting and checkout.
package validate

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailRe  = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	dateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcRe    = regexp.MustCompile(`^\d{3,4}$`)
)

// Email reports whether s looks like local@domain.tld.
func Email(s string) bool { return emailRe.MatchString(s) }

// VisitDate reports whether s is a real calendar date written YYYY-MM-DD.
func VisitDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// CardNumber reports whether s holds 12 to 19 digits once everything that
// is not a digit has been stripped.
func CardNumber(s string) bool {
	n := len(Digits(s))
	return n >= 12 && n <= 19
}

// Expiry reports whether s is MM/YY.
func Expiry(s string) bool { return expiryRe.MatchString(strings.TrimSpace(s)) }

// CVC reports whether s is 3 or 4 digits.
func CVC(s string) bool { return cvcRe.MatchString(strings.TrimSpace(s)) }

// Digits returns only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
