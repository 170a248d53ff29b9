package scans

import (
	"context"

	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

// Backend port (interface ke REST API website-intelligence).
// Every call takes the session explicitly; the token is never ambient state.
type Backend interface {
	CreateScan(ctx context.Context, sess *session.Session, websiteURL string) (*Scan, error)
	ListScans(ctx context.Context, sess *session.Session, page, pageSize int) (*ScanListResponse, error)
	GetScan(ctx context.Context, sess *session.Session, id ScanID) (*Scan, error)
	DeleteScan(ctx context.Context, sess *session.Session, id ScanID) error
}

// ExportArchive port (penyimpanan file export di object storage)
type ExportArchive interface {
	Archive(ctx context.Context, key string, data []byte) (string, error)
}
