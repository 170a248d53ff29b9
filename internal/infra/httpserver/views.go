package httpserver

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
)

const timeLayout = "Jan 2, 2006, 3:04 PM"

// Link is one chip or entry inside a result section.
type Link struct {
	Label string
	Href  template.URL
}

// Section is a titled group of the result renderer. Sections are only
// built for non-empty arrays.
type Section struct {
	Title string
	Kind  string
	Items []Link
}

// ResultView is the presentation model of one scan result.
type ResultView struct {
	ID          domain.ScanID
	CompanyName string
	Website     Link
	ScannedOn   string
	Summary     string
	Sections    []Section
	Notes       string
	Sources     []Link
	ExportName  string
	ExportHref  template.URL
}

// NewResultView builds the renderer model, including the in-page export link.
func NewResultView(scan *domain.Scan) (ResultView, error) {
	data := scan.StructuredData
	export, err := domain.ExportJSON(data)
	if err != nil {
		return ResultView{}, fmt.Errorf("encode export: %w", err)
	}

	v := ResultView{
		ID:          scan.ID,
		CompanyName: data.CompanyName,
		Website:     Link{Label: data.Website, Href: safeURL(data.Website)},
		ScannedOn:   formatTime(scan.CreatedAt.Time, "Jan 2, 2006, 3:04:05 PM"),
		Summary:     data.Summary,
		ExportName:  domain.ExportFilename(data),
		ExportHref:  template.URL("data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(export)),
	}

	if len(data.Emails) > 0 {
		s := Section{Title: fmt.Sprintf("Email Addresses (%d)", len(data.Emails)), Kind: "email"}
		for _, e := range data.Emails {
			s.Items = append(s.Items, Link{Label: e, Href: mailtoURL(e)})
		}
		v.Sections = append(v.Sections, s)
	}
	if len(data.PhoneNumbers) > 0 {
		s := Section{Title: fmt.Sprintf("Phone Numbers (%d)", len(data.PhoneNumbers)), Kind: "phone"}
		for _, p := range data.PhoneNumbers {
			s.Items = append(s.Items, Link{Label: p, Href: telURL(p)})
		}
		v.Sections = append(v.Sections, s)
	}
	if len(data.Socials) > 0 {
		s := Section{Title: fmt.Sprintf("Social Media (%d)", len(data.Socials)), Kind: "social"}
		for _, sm := range data.Socials {
			s.Items = append(s.Items, Link{Label: sm.Platform, Href: safeURL(sm.URL)})
		}
		v.Sections = append(v.Sections, s)
	}
	if len(data.Addresses) > 0 {
		s := Section{Title: fmt.Sprintf("Addresses (%d)", len(data.Addresses)), Kind: "address"}
		for _, a := range data.Addresses {
			s.Items = append(s.Items, Link{Label: a})
		}
		v.Sections = append(v.Sections, s)
	}
	if data.HasNotes() {
		v.Notes = *data.Notes
	}
	for _, src := range data.Sources {
		v.Sources = append(v.Sources, Link{Label: src, Href: safeURL(src)})
	}
	return v, nil
}

// HistoryRow is one line of the history table.
type HistoryRow struct {
	ID       domain.ScanID
	Company  string
	Summary  string
	Website  Link
	Host     string
	Scanned  string
	Relative string
	Deleting bool
}

type HistoryPage struct {
	Page         int
	Rows         []HistoryRow
	HasData      bool
	Pager        domain.Pager
	DeleteFailed bool
	LoadFailed   bool
}

func NewHistoryPage(view appscans.HistoryView, deleteFailed bool) HistoryPage {
	p := HistoryPage{
		Page:         view.Page,
		HasData:      view.Data != nil,
		Pager:        view.Pager,
		DeleteFailed: deleteFailed,
		LoadFailed:   view.FetchFailed,
	}
	if view.Data == nil {
		return p
	}
	for _, item := range view.Data.Scans {
		row := HistoryRow{
			ID:       item.ID,
			Company:  item.DisplayName(),
			Website:  Link{Label: item.WebsiteURL, Href: safeURL(item.WebsiteURL)},
			Host:     hostname(item.WebsiteURL),
			Scanned:  formatTime(item.CreatedAt.Time, timeLayout),
			Deleting: view.Deleting == item.ID,
		}
		if item.Summary != nil {
			row.Summary = *item.Summary
		}
		if !item.CreatedAt.IsZero() {
			row.Relative = humanize.Time(item.CreatedAt.Time)
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout) + " UTC"
}

// safeURL lets only http(s) and mailto links through.
func safeURL(raw string) template.URL {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return template.URL(u.String())
	}
	return "#"
}

func mailtoURL(email string) template.URL {
	return template.URL("mailto:" + url.PathEscape(strings.TrimSpace(email)))
}

// telURL keeps only dialable characters.
func telURL(phone string) template.URL {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return template.URL("tel:" + b.String())
}
