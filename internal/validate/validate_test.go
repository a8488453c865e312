package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	for _, ok := range []string{"jane@example.com", "a@b.co", "x+tag@sub.domain.org"} {
		assert.True(t, Email(ok), ok)
	}
	for _, bad := range []string{"", "jane", "jane@example", "jane @example.com", "@.", "jane@example."} {
		assert.False(t, Email(bad), bad)
	}
}

func TestVisitDate(t *testing.T) {
	assert.True(t, VisitDate("2025-06-01"))
	assert.True(t, VisitDate("2024-02-29"))
	assert.False(t, VisitDate("2025-02-30"))
	assert.False(t, VisitDate("2025-6-1"))
	assert.False(t, VisitDate("01/06/2025"))
	assert.False(t, VisitDate(""))
}

func TestCardFields(t *testing.T) {
	assert.True(t, CardNumber("4242 4242 4242 4242"))
	assert.True(t, CardNumber("4242-4242-4242"))
	assert.False(t, CardNumber("4242 4242 424"))
	assert.False(t, CardNumber("12345678901234567890"))

	assert.True(t, Expiry("09/27"))
	assert.False(t, Expiry("13/27"))
	assert.False(t, Expiry("9/27"))

	assert.True(t, CVC("123"))
	assert.True(t, CVC("1234"))
	assert.False(t, CVC("12"))
	assert.False(t, CVC("12a"))

	assert.Equal(t, "4242", Digits(" 4-2 4 2 "))
}
