package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/website-intel/internal/application/progress"
	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
)

func fakeBackend(t *testing.T, companyName string, scanStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "POST /auth/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "token_type": "bearer"})
		case "POST /scans/":
			if scanStatus != http.StatusOK {
				w.WriteHeader(scanStatus)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "nope"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":          3,
				"website_url": "https://evil.test",
				"structured_data": map[string]any{
					"company_name": companyName,
					"website":      "https://evil.test",
					"summary":      "s",
					"emails":       []string{"a@evil.test"},
				},
				"created_at": "2025-03-01T10:00:00",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testScanOptions(apiURL, outDir string) scanOptions {
	return scanOptions{
		APIURL:   apiURL,
		Username: "alice",
		Password: "secret",
		OutDir:   outDir,
		URL:      "https://evil.test",
		scans: appscans.Options{
			CommitDelay: time.Millisecond,
			Progress:    progress.Options{Interval: time.Millisecond},
		},
	}
}

func TestRunScanWritesExportInsideOutDir(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "home", "alice", "out")
	srv := fakeBackend(t, "../../../bob/7/Evil Corp", http.StatusOK)

	var out bytes.Buffer
	err := runScan(context.Background(), testScanOptions(srv.URL, outDir), log.New(io.Discard), &out)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._.._.._bob_7_Evil_Corp_scan.json", entries[0].Name())
	assert.NoDirExists(t, filepath.Join(root, "bob"))
	assert.Contains(t, out.String(), "Scan completed successfully!")

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"emails": [`)
}

func TestRunScanReportsFailure(t *testing.T) {
	srv := fakeBackend(t, "Acme", http.StatusTooManyRequests)

	err := runScan(context.Background(), testScanOptions(srv.URL, t.TempDir()), log.New(io.Discard), io.Discard)
	require.Error(t, err)
	assert.Equal(t, appscans.RateLimitMessage, err.Error())
}

func TestRunScanRequiresUsername(t *testing.T) {
	opts := testScanOptions("http://localhost:1", t.TempDir())
	opts.Username = ""
	err := runScan(context.Background(), opts, log.New(io.Discard), io.Discard)
	assert.EqualError(t, err, "please provide --username")
}

func TestWriteExportWithoutResult(t *testing.T) {
	_, err := writeExport(io.Discard, nil, t.TempDir())
	assert.Error(t, err)
}
