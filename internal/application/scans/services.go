package scans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bryanwahyu/website-intel/internal/application"
	"github.com/bryanwahyu/website-intel/internal/application/progress"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

const (
	DefaultPageSize    = 10
	DefaultCommitDelay = 500 * time.Millisecond
	DefaultIdleTTL     = 2 * time.Hour
	sweepInterval      = 5 * time.Minute

	RateLimitMessage   = "Rate limit exceeded. Please wait a few minutes before trying again."
	ScanFailureMessage = "Failed to scan website. Please try again."
	NotFoundMessage    = "Scan not found"
	LoadFailureMessage = "Failed to load scan"
	HistoryLoadMessage = "Failed to load scan history"
	DeleteFailMessage  = "Failed to delete scan"
)

// ErrArchiveDisabled is returned when no export archive is configured.
var ErrArchiveDisabled = errors.New("export archive is not configured")

// Observer gets notified about submissions (metrics hook).
type Observer interface {
	SubmissionStarted()
	SubmissionFinished(err error)
}

// Options for NewService. Zero values fall back to defaults.
type Options struct {
	Archive     domain.ExportArchive
	Clock       application.Clock
	Logger      *log.Logger
	Observer    Observer
	PageSize    int
	CommitDelay time.Duration
	Progress    progress.Options
	// IdleTTL drops state of sessions nobody touched for that long.
	IdleTTL time.Duration
}

// Service implements the dashboard use-cases: scan submission, history,
// detail and export. State is kept per session and guarded per session.
type Service struct {
	backend domain.Backend
	archive domain.ExportArchive
	clock   application.Clock
	logger  *log.Logger
	obs     Observer

	pageSize    int
	commitDelay time.Duration
	progress    progress.Options
	idleTTL     time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	states map[string]*sessionState
}

type sessionState struct {
	mu       sync.Mutex
	sub      *submission
	lastPage *domain.ScanListResponse
	deleting domain.ScanID
	seen     time.Time // guarded by Service.mu
}

func NewService(backend domain.Backend, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = application.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.CommitDelay <= 0 {
		opts.CommitDelay = DefaultCommitDelay
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		backend:     backend,
		archive:     opts.Archive,
		clock:       opts.Clock,
		logger:      opts.Logger,
		obs:         opts.Observer,
		pageSize:    opts.PageSize,
		commitDelay: opts.CommitDelay,
		progress:    opts.Progress,
		idleTTL:     opts.IdleTTL,
		ctx:         ctx,
		cancel:      cancel,
		states:      make(map[string]*sessionState),
	}

	// bersihkan state sesi yang ditinggal
	go s.janitor()

	return s
}

func (s *Service) PageSize() int { return s.pageSize }

func (s *Service) state(id string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		st = &sessionState{}
		s.states[id] = st
	}
	st.seen = s.clock.Now()
	return st
}

func (s *Service) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
		if n := s.Sweep(); n > 0 {
			s.logger.Debug("dropped idle session state", "count", n)
		}
	}
}

// Sweep discards the state of sessions idle longer than the TTL. Running
// submissions are kept.
func (s *Service) Sweep() int {
	cutoff := s.clock.Now().Add(-s.idleTTL)
	s.mu.Lock()
	var idle []string
	for id, st := range s.states {
		if st.seen.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, id := range idle {
		if s.discardIdle(id, cutoff) {
			n++
		}
	}
	return n
}

func (s *Service) discardIdle(id string, cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok || !st.seen.Before(cutoff) {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.sub != nil && st.sub.state == StateSubmitting {
		return false
	}
	delete(s.states, id)
	if st.sub != nil {
		st.sub.halt()
		st.sub = nil
	}
	return true
}

// Discard drops everything held for a session and cancels its progress timer.
func (s *Service) Discard(sessionID string) {
	s.mu.Lock()
	st, ok := s.states[sessionID]
	delete(s.states, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.sub != nil {
		st.sub.halt()
		st.sub = nil
	}
}

// Close cancels in-flight submissions and every running progress timer.
func (s *Service) Close() {
	s.cancel()
	s.mu.Lock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Discard(id)
	}
}

// ==== HISTORY ====

// HistoryView is one rendered page of the scan history.
type HistoryView struct {
	Page        int
	Data        *domain.ScanListResponse
	Pager       domain.Pager
	Deleting    domain.ScanID
	FetchFailed bool
}

// History fetches one page. A failed fetch is logged and the last page the
// session saw stays in place; only ErrUnauthorized is returned to the caller.
func (s *Service) History(ctx context.Context, sess *session.Session, page int) (HistoryView, error) {
	if page < 1 {
		page = 1
	}
	st := s.state(sess.ID)

	resp, err := s.backend.ListScans(ctx, sess, page, s.pageSize)

	st.mu.Lock()
	defer st.mu.Unlock()
	view := HistoryView{Page: page, Deleting: st.deleting}
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return view, err
		}
		s.logger.Error("failed to fetch scans", "page", page, "err", err)
		view.FetchFailed = true
		view.Data = st.lastPage
	} else {
		st.lastPage = resp
		view.Data = resp
	}
	view.Pager = domain.NewPager(page, view.Data)
	return view, nil
}

// Delete removes a scan. It never edits the cached page; callers re-fetch.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id domain.ScanID) error {
	st := s.state(sess.ID)
	st.mu.Lock()
	st.deleting = id
	st.mu.Unlock()

	err := s.backend.DeleteScan(ctx, sess, id)

	st.mu.Lock()
	if st.deleting == id {
		st.deleting = 0
	}
	st.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to delete scan", "id", id, "err", err)
		return fmt.Errorf("delete scan %d: %w", id, err)
	}
	return nil
}

// ==== DETAIL & EXPORT ====

// Get ambil 1 scan by id
func (s *Service) Get(ctx context.Context, sess *session.Session, id domain.ScanID) (*domain.Scan, error) {
	return s.backend.GetScan(ctx, sess, id)
}

// ArchiveEnabled reports whether exports can be copied to object storage.
func (s *Service) ArchiveEnabled() bool { return s.archive != nil }

// ArchiveExport uploads the export file of a scan and returns a download URL.
func (s *Service) ArchiveExport(ctx context.Context, sess *session.Session, id domain.ScanID) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}
	scan, err := s.backend.GetScan(ctx, sess, id)
	if err != nil {
		return "", err
	}
	data, err := domain.ExportJSON(scan.StructuredData)
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	key := archiveKey(sess.Username, id, domain.ExportFilename(scan.StructuredData))
	url, err := s.archive.Archive(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}
	s.logger.Info("export archived", "id", id, "key", key)
	return url, nil
}

// archiveKey builds "<username>/<id>/<filename>"; every part is one segment.
func archiveKey(username string, id domain.ScanID, filename string) string {
	return fmt.Sprintf("%s/%d/%s", keySegment(username), id, keySegment(filename))
}

func keySegment(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// DetailErrorMessage maps a detail-view failure to its user message.
func DetailErrorMessage(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return NotFoundMessage
	}
	return LoadFailureMessage
}
