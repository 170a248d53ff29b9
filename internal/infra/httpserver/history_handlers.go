package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/middleware"
)

// deleteFailedFlag marks the history redirect after a failed delete.
const deleteFailedFlag = "delete"

// GET /history?page=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	sess := middleware.GetSessionFromContext(req.Context())
	q := req.URL.Query()
	view, err := r.scansSvc.History(req.Context(), sess, middleware.ValidatePage(q.Get("page")))
	if err != nil {
		return err
	}
	content := NewHistoryPage(view, q.Get("error") == deleteFailedFlag)
	return r.render(w, req, http.StatusOK, "history", page{Title: "History", Active: "history", Content: content})
}

type confirmContent struct {
	ID   domain.ScanID
	Page int
}

// GET /history/{id}/delete?page=
func (r *Router) handleDeleteConfirm(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	content := confirmContent{ID: id, Page: middleware.ValidatePage(req.URL.Query().Get("page"))}
	return r.render(w, req, http.StatusOK, "confirm_delete", page{Title: "Delete scan", Active: "history", Content: content})
}

// POST /history/{id}/delete
// Form: page
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	if err := req.ParseForm(); err != nil {
		return errors.Join(errInvalidInput, err)
	}
	pageNo := middleware.ValidatePage(req.PostForm.Get("page"))

	sess := middleware.GetSessionFromContext(req.Context())
	target := fmt.Sprintf("/history?page=%d", pageNo)
	if err := r.scansSvc.Delete(req.Context(), sess, id); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		target += "&error=" + deleteFailedFlag
	}
	// selalu re-fetch halaman yang sama
	http.Redirect(w, req, target, http.StatusSeeOther)
	return nil
}

type detailContent struct {
	Result         *ResultView
	Error          string
	ArchiveEnabled bool
	ArchiveURL     string
	ArchiveError   string
}

// GET /history/{id}
func (r *Router) handleDetail(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	return r.renderDetail(w, req, id, detailContent{})
}

// POST /history/{id}/archive
func (r *Router) handleArchive(w http.ResponseWriter, req *http.Request) error {
	id, err := scanIDParam(req)
	if err != nil {
		return err
	}
	if !r.scansSvc.ArchiveEnabled() {
		http.Error(w, appscans.ErrArchiveDisabled.Error(), http.StatusNotFound)
		return nil
	}
	sess := middleware.GetSessionFromContext(req.Context())
	var content detailContent
	link, err := r.scansSvc.ArchiveExport(req.Context(), sess, id)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return err
	case err != nil:
		r.logger.Error("archive failed", "id", id, "err", err)
		content.ArchiveError = "Failed to archive export"
	default:
		content.ArchiveURL = link
	}
	return r.renderDetail(w, req, id, content)
}

func (r *Router) renderDetail(w http.ResponseWriter, req *http.Request, id domain.ScanID, content detailContent) error {
	sess := middleware.GetSessionFromContext(req.Context())
	content.ArchiveEnabled = r.scansSvc.ArchiveEnabled()

	scan, err := r.scansSvc.Get(req.Context(), sess, id)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		} else {
			r.logger.Error("failed to load scan", "id", id, "err", err)
		}
		content.Error = appscans.DetailErrorMessage(err)
		return r.render(w, req, status, "detail", page{Title: "Scan", Active: "history", Content: content})
	}

	rv, err := NewResultView(scan)
	if err != nil {
		return err
	}
	content.Result = &rv
	title := rv.CompanyName
	if title == "" {
		title = "Scan"
	}
	return r.render(w, req, http.StatusOK, "detail", page{Title: title, Active: "history", Content: content})
}
