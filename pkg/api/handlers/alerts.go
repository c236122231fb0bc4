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

// RegisterAlerts registers the citizen-facing alert routes.
func RegisterAlerts(r *mux.Router) {
	r.HandleFunc("/alerts", listActiveAlerts).Methods(http.MethodGet)
}

// RegisterAdminAlerts registers the staff alert routes.
func RegisterAdminAlerts(r *mux.Router) {
	r.HandleFunc("/alerts", createAlert).Methods(http.MethodPost)
	r.HandleFunc("/alerts", listAllAlerts).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id}", getAlert).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id}", updateAlert).Methods(http.MethodPut)
}

func listActiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := store.ListAlerts(true)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// createAlert stores an alert and fans it out to every citizen with
// best-effort emails.
func createAlert(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var a models.Alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(a.Title) == "" {
		utils.JSONError(w, http.StatusBadRequest, "title is required")
		return
	}
	if a.Severity == "" {
		a.Severity = models.SeverityMedium
	}
	a.CreatedBy = p.ID
	a, err := store.SaveAlert(a)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save alert")
		return
	}
	sent := engine.AlertIssued(a, nil)
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{"alert": a, "notifications_sent": sent})
}

func listAllAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := store.ListAlerts(false)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func getAlert(w http.ResponseWriter, r *http.Request) {
	a, err := store.GetAlert(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to load alert")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, a)
}

// updateAlert edits alert fields in place without re-fanning out.
func updateAlert(w http.ResponseWriter, r *http.Request) {
	a, err := store.GetAlert(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to load alert")
		return
	}
	var req models.Alert
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Title != "" {
		a.Title = req.Title
	}
	if req.Message != "" {
		a.Message = req.Message
	}
	if req.Severity != "" {
		a.Severity = req.Severity
	}
	if req.Status != "" {
		a.Status = req.Status
	}
	if req.AffectedArea != "" {
		a.AffectedArea = req.AffectedArea
	}
	if !req.EndDate.IsZero() {
		a.EndDate = req.EndDate
	}
	a, err = store.SaveAlert(a)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save alert")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, a)
}
