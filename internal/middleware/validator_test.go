package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScanID(t *testing.T) {
	id, err := ParseScanID("42")
	assert.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseScanID(raw)
		assert.Error(t, err, raw)
	}
}

func TestValidatePage(t *testing.T) {
	assert.Equal(t, 1, ValidatePage(""))
	assert.Equal(t, 1, ValidatePage("0"))
	assert.Equal(t, 1, ValidatePage("x"))
	assert.Equal(t, 3, ValidatePage("3"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "https://example.com", SanitizeString("  https://example.com\x00\x07 "))
}
