package scans

import (
	"encoding/json"
	"regexp"
)

const exportSuffix = "_scan.json"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// path separators and control characters never reach a file or object name
	unsafeFileChars = regexp.MustCompile(`[/\\\x00-\x1f\x7f]`)
)

// ExportFilename builds "<company_name>_scan.json" with whitespace runs replaced by "_".
// company_name is scraped text, so separators are replaced too and the result
// is always a single path segment.
func ExportFilename(r ScanResult) string {
	name := whitespaceRun.ReplaceAllString(r.CompanyName, "_")
	return unsafeFileChars.ReplaceAllString(name, "_") + exportSuffix
}

// ExportJSON renders the structured record as 2-space indented JSON.
func ExportJSON(r ScanResult) ([]byte, error) {
	return json.MarshalIndent(normalize(r), "", "  ")
}

// normalize keeps empty arrays as [] instead of null in the export.
func normalize(r ScanResult) ScanResult {
	if r.Emails == nil {
		r.Emails = []string{}
	}
	if r.PhoneNumbers == nil {
		r.PhoneNumbers = []string{}
	}
	if r.Socials == nil {
		r.Socials = []SocialMedia{}
	}
	if r.Addresses == nil {
		r.Addresses = []string{}
	}
	if r.Sources == nil {
		r.Sources = []string{}
	}
	return r
}
