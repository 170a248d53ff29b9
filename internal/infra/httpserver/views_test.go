package httpserver

import (
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
)

func TestLinkHelpers(t *testing.T) {
	assert.Equal(t, template.URL("tel:+15551234567"), telURL("+1 (555) 123-4567"))
	assert.Equal(t, template.URL("#"), safeURL("javascript:alert(1)"))
	assert.Equal(t, template.URL("https://x.com/acme"), safeURL(" https://x.com/acme "))
	assert.Equal(t, "example.com", hostname("https://example.com/about"))
	assert.Equal(t, "not a url", hostname("not a url"))
}

func TestResultViewOmitsEmptySections(t *testing.T) {
	notes := "  "
	scan := &domain.Scan{
		ID: 3,
		StructuredData: domain.ScanResult{
			CompanyName:  "Acme  Widgets Inc",
			Website:      "https://acme.test",
			PhoneNumbers: []string{"+1 555 0100"},
			Socials:      []domain.SocialMedia{{Platform: "LinkedIn", URL: "https://linkedin.com/company/acme"}},
			Notes:        &notes,
		},
		CreatedAt: domain.Timestamp{Time: time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)},
	}

	v, err := NewResultView(scan)
	require.NoError(t, err)
	require.Len(t, v.Sections, 2)
	assert.Equal(t, "Phone Numbers (1)", v.Sections[0].Title)
	assert.Equal(t, template.URL("tel:+15550100"), v.Sections[0].Items[0].Href)
	assert.Equal(t, "Social Media (1)", v.Sections[1].Title)
	assert.Equal(t, "LinkedIn", v.Sections[1].Items[0].Label)
	assert.Empty(t, v.Notes)
	assert.Empty(t, v.Sources)
	assert.Equal(t, "Acme_Widgets_Inc_scan.json", v.ExportName)
	assert.Equal(t, "Jan 2, 2025, 3:04:05 PM UTC", v.ScannedOn)
}

func TestHistoryPageRows(t *testing.T) {
	created := domain.Timestamp{Time: time.Now().Add(-2 * time.Hour)}
	view := appscans.HistoryView{
		Page: 1,
		Data: &domain.ScanListResponse{
			Total: 1, Page: 1, PageSize: 10, TotalPages: 1,
			Scans: []domain.ScanListItem{{ID: 9, WebsiteURL: "https://shop.example.org/x", CreatedAt: created}},
		},
		Deleting: 9,
	}
	view.Pager = domain.NewPager(1, view.Data)

	p := NewHistoryPage(view, false)
	require.Len(t, p.Rows, 1)
	row := p.Rows[0]
	assert.Equal(t, "Unknown Company", row.Company)
	assert.Equal(t, "shop.example.org", row.Host)
	assert.Equal(t, "2 hours ago", row.Relative)
	assert.True(t, row.Deleting)
	assert.False(t, p.Pager.Visible)
}
