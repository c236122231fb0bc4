package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"civicdesk/pkg/models"
	"civicdesk/pkg/store"
	"civicdesk/pkg/utils"
)

// RegisterReports registers citizen report routes.
func RegisterReports(r *mux.Router) {
	r.HandleFunc("/reports", createReport).Methods(http.MethodPost)
	r.HandleFunc("/reports", listReports).Methods(http.MethodGet)
	r.HandleFunc("/reports/{id}", getReport).Methods(http.MethodGet)
}

// RegisterAdminReports registers the staff report routes.
func RegisterAdminReports(r *mux.Router) {
	r.HandleFunc("/reports/{id}/status", updateReportStatus).Methods(http.MethodPut)
}

// createReport stores a report and fans a new_report notification out to
// staff. Fan-out failure never fails the submission.
func createReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var rep models.Report
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(rep.Title) == "" {
		utils.JSONError(w, http.StatusBadRequest, "title is required")
		return
	}
	rep.UserID = p.ID
	if rep.Urgency == "" {
		rep.Urgency = models.UrgencyMedium
	}
	rep, err := store.SaveReport(rep)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save report")
		return
	}
	engine.ReportSubmitted(rep, currentUser(p))
	_ = utils.JSONWrite(w, http.StatusCreated, rep)
}

func listReports(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	userID := p.ID
	if p.IsAdmin() {
		userID = 0
	}
	reports, err := store.ListReports(userID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"reports": reports})
}

func getReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	rep, err := store.GetReport(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	if !p.IsAdmin() && rep.UserID != p.ID {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, rep)
}

// updateReportStatus changes a report's status and notifies its owner.
func updateReportStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Status     string `json:"status"`
		AdminNotes string `json:"admin_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		utils.JSONError(w, http.StatusBadRequest, "status is required")
		return
	}
	rep, err := store.GetReport(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	rep.Status = req.Status
	rep.AdminID = p.ID
	if req.AdminNotes != "" {
		rep.AdminNotes = req.AdminNotes
	}
	rep, err = store.SaveReport(rep)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save report")
		return
	}
	engine.ReportStatusChanged(rep, req.Status)
	_ = utils.JSONWrite(w, http.StatusOK, rep)
}
