package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
	"github.com/bryanwahyu/website-intel/internal/middleware"
)

// dashboardRefresh is the meta refresh interval (seconds) while a scan runs.
const dashboardRefresh = 1

type dashboardContent struct {
	Submission appscans.SubmissionView
	Result     *ResultView
}

// GET /dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	sess := middleware.GetSessionFromContext(req.Context())
	view := r.scansSvc.Submission(sess.ID)

	content := dashboardContent{Submission: view}
	if view.State == appscans.StateSuccess && view.Result != nil {
		rv, err := NewResultView(view.Result)
		if err != nil {
			return err
		}
		content.Result = &rv
	}

	p := page{Title: "Scan", Active: "dashboard", Content: content}
	if view.Busy() {
		p.Refresh = dashboardRefresh
	}
	return r.render(w, req, http.StatusOK, "dashboard", p)
}

// POST /dashboard/scan
// Form: url
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseForm(); err != nil {
		return errors.Join(errInvalidInput, err)
	}
	sess := middleware.GetSessionFromContext(req.Context())
	_, err := r.scansSvc.Submit(sess, req.PostForm.Get("url"))
	// URL kosong / scan masih jalan: tidak ada perubahan state
	if err != nil && !errors.Is(err, appscans.ErrEmptyURL) && !errors.Is(err, appscans.ErrSubmissionInFlight) {
		return err
	}
	http.Redirect(w, req, "/dashboard", http.StatusSeeOther)
	return nil
}

// GET /api/submission
func (r *Router) handleSubmissionGet(w http.ResponseWriter, req *http.Request) error {
	sess := middleware.GetSessionFromContext(req.Context())
	return writeJSON(w, http.StatusOK, r.scansSvc.Submission(sess.ID))
}

// POST /api/submission
// Body: {"website_url": "<url>"}
func (r *Router) handleSubmissionPost(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		WebsiteURL string `json:"website_url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil
	}
	sess := middleware.GetSessionFromContext(req.Context())
	view, err := r.scansSvc.Submit(sess, body.WebsiteURL)
	switch {
	case errors.Is(err, appscans.ErrEmptyURL):
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	case errors.Is(err, appscans.ErrSubmissionInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return nil
	case err != nil:
		return err
	}
	return writeJSON(w, http.StatusAccepted, view)
}
