package scans

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scanJSON = `{
  "id": 7,
  "website_url": "https://example.com",
  "company_name": null,
  "summary": "Example summary",
  "structured_data": {
    "company_name": "Example",
    "website": "https://example.com",
    "summary": "Example summary",
    "emails": ["info@example.com"],
    "phone_numbers": [],
    "socials": [{"platform": "LinkedIn", "url": "https://linkedin.com/company/example"}],
    "addresses": [],
    "notes": null,
    "sources": ["https://example.com/contact"]
  },
  "created_at": "2025-01-02T03:04:05.123456"
}`

func TestScanDecodesBackendShape(t *testing.T) {
	var s Scan
	require.NoError(t, json.Unmarshal([]byte(scanJSON), &s))

	assert.Equal(t, ScanID(7), s.ID)
	assert.Nil(t, s.CompanyName)
	require.NotNil(t, s.Summary)
	assert.Equal(t, []string{"info@example.com"}, s.StructuredData.Emails)
	assert.Equal(t, "LinkedIn", s.StructuredData.Socials[0].Platform)
	assert.False(t, s.StructuredData.HasNotes())
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC), s.CreatedAt.Time)
}

func TestTimestampZoned(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-02T10:04:05+07:00"`), &ts))
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), ts.Time)

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}

func TestDisplayName(t *testing.T) {
	name := "Acme"
	blank := "  "
	assert.Equal(t, "Acme", ScanListItem{CompanyName: &name}.DisplayName())
	assert.Equal(t, "Unknown Company", ScanListItem{CompanyName: &blank}.DisplayName())
	assert.Equal(t, "Unknown Company", ScanListItem{}.DisplayName())
}
