package scans

import (
	"strings"
	"time"
)

// ScanID tipe untuk Scan (integer di backend)
type ScanID int64

// SocialMedia value object
type SocialMedia struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// ScanResult is the structured extraction payload produced by the backend.
// All arrays may be empty.
type ScanResult struct {
	CompanyName  string        `json:"company_name"`
	Website      string        `json:"website"`
	Summary      string        `json:"summary"`
	Emails       []string      `json:"emails"`
	PhoneNumbers []string      `json:"phone_numbers"`
	Socials      []SocialMedia `json:"socials"`
	Addresses    []string      `json:"addresses"`
	Notes        *string       `json:"notes"`
	Sources      []string      `json:"sources"`
}

// HasNotes reports whether the optional notes field carries text.
func (r ScanResult) HasNotes() bool {
	return r.Notes != nil && strings.TrimSpace(*r.Notes) != ""
}

// Aggregate Root: Scan (full record for detail view)
type Scan struct {
	ID             ScanID     `json:"id"`
	WebsiteURL     string     `json:"website_url"`
	CompanyName    *string    `json:"company_name"`
	Summary        *string    `json:"summary"`
	StructuredData ScanResult `json:"structured_data"`
	CreatedAt      Timestamp  `json:"created_at"`
}

// ScanListItem trimmed record for the history list (no structured_data)
type ScanListItem struct {
	ID          ScanID    `json:"id"`
	WebsiteURL  string    `json:"website_url"`
	CompanyName *string   `json:"company_name"`
	Summary     *string   `json:"summary"`
	CreatedAt   Timestamp `json:"created_at"`
}

// DisplayName returns the company name or a placeholder when the backend sent none.
func (s ScanListItem) DisplayName() string {
	if s.CompanyName == nil || strings.TrimSpace(*s.CompanyName) == "" {
		return "Unknown Company"
	}
	return *s.CompanyName
}

// Timestamp decodes backend datetimes. The backend serializes naive
// datetimes without a zone designator; those are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		v, err := time.Parse(layout, s)
		if err == nil {
			t.Time = v.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}
