package scans

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/website-intel/internal/application"
	"github.com/bryanwahyu/website-intel/internal/application/progress"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/domain/session"
)

// State of the scan submission flow.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

var (
	ErrEmptyURL           = errors.New("website url is required")
	ErrSubmissionInFlight = errors.New("a scan is already in progress")
)

// SubmissionView is a point-in-time copy of a session's submission.
type SubmissionView struct {
	ID        string            `json:"id,omitempty"`
	State     State             `json:"state"`
	URL       string            `json:"url,omitempty"`
	Progress  progress.Snapshot `json:"progress"`
	Result    *domain.Scan      `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	StartedAt time.Time         `json:"started_at,omitempty"`
}

// Busy is true while re-submission must stay disabled.
func (v SubmissionView) Busy() bool { return v.State == StateSubmitting }

type submission struct {
	id        string
	state     State
	url       string
	sim       *progress.Simulator
	result    *domain.Scan
	errMsg    string
	startedAt time.Time
	commit    application.Timer
}

// halt cancels both timers owned by the submission.
func (sub *submission) halt() {
	sub.sim.Stop()
	if sub.commit != nil {
		sub.commit.Stop()
	}
}

// Submit starts a scan for the session. The backend call runs in the
// background; callers poll Submission for progress.
func (s *Service) Submit(sess *session.Session, rawURL string) (SubmissionView, error) {
	websiteURL := strings.TrimSpace(rawURL)
	if websiteURL == "" {
		return SubmissionView{State: StateIdle}, ErrEmptyURL
	}

	st := s.state(sess.ID)
	st.mu.Lock()
	if st.sub != nil && st.sub.state == StateSubmitting {
		view := st.sub.view()
		st.mu.Unlock()
		return view, ErrSubmissionInFlight
	}
	if st.sub != nil {
		st.sub.halt()
	}
	sub := &submission{
		id:        uuid.New().String(),
		state:     StateSubmitting,
		url:       websiteURL,
		sim:       progress.New(s.progress),
		startedAt: s.clock.Now(),
	}
	st.sub = sub
	sub.sim.Start(s.ctx)
	view := sub.view()
	st.mu.Unlock()

	if s.obs != nil {
		s.obs.SubmissionStarted()
	}
	s.logger.Info("scan submitted", "session", sess.ID, "submission", sub.id, "url", websiteURL)

	// own copy so the unauthorized hook never races with the request's session
	caller := *sess
	go s.run(&caller, st, sub)
	return view, nil
}

func (s *Service) run(sess *session.Session, st *sessionState, sub *submission) {
	scan, err := s.backend.CreateScan(s.ctx, sess, sub.url)
	if s.obs != nil {
		s.obs.SubmissionFinished(err)
	}
	if err != nil {
		sub.sim.Stop()
		msg := SubmissionErrorMessage(err)
		st.mu.Lock()
		if st.sub == sub {
			sub.state = StateFailed
			sub.errMsg = msg
		}
		st.mu.Unlock()
		s.logger.Warn("scan failed", "submission", sub.id, "url", sub.url, "kind", domain.KindOf(err), "err", err)
		return
	}

	sub.sim.Complete()

	st.mu.Lock()
	current := st.sub == sub
	st.mu.Unlock()
	if !current {
		return
	}
	timer := s.clock.AfterFunc(s.commitDelay, func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.sub == sub && sub.state == StateSubmitting {
			sub.result = scan
			sub.state = StateSuccess
		}
	})
	st.mu.Lock()
	if st.sub == sub {
		sub.commit = timer
	} else {
		timer.Stop()
	}
	st.mu.Unlock()
	s.logger.Info("scan completed", "submission", sub.id, "id", scan.ID,
		"emails", len(scan.StructuredData.Emails), "phones", len(scan.StructuredData.PhoneNumbers))
}

// Submission returns the current state for the session (idle when none).
func (s *Service) Submission(sessionID string) SubmissionView {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.sub == nil {
		return SubmissionView{State: StateIdle}
	}
	return st.sub.view()
}

func (sub *submission) view() SubmissionView {
	return SubmissionView{
		ID:        sub.id,
		State:     sub.state,
		URL:       sub.url,
		Progress:  sub.sim.Snapshot(),
		Result:    sub.result,
		Error:     sub.errMsg,
		StartedAt: sub.startedAt,
	}
}

// SubmissionErrorMessage picks the message shown for a failed submission.
func SubmissionErrorMessage(err error) string {
	if domain.KindOf(err) == domain.KindRateLimited {
		return RateLimitMessage
	}
	if detail := domain.DetailOf(err); detail != "" {
		return detail
	}
	return ScanFailureMessage
}
