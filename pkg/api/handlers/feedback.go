package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"civicdesk/pkg/models"
	"civicdesk/pkg/store"
	"civicdesk/pkg/utils"
	"civicdesk/pkg/validation"
)

// RegisterFeedback registers the public feedback routes.
func RegisterFeedback(r *mux.Router) {
	r.HandleFunc("/feedback", submitFeedback).Methods(http.MethodPost)
	r.HandleFunc("/feedback/approved", approvedFeedback).Methods(http.MethodGet)
}

// RegisterAdminFeedback registers the staff moderation routes.
func RegisterAdminFeedback(r *mux.Router) {
	r.HandleFunc("/feedback", listFeedback).Methods(http.MethodGet)
	r.HandleFunc("/feedback/{id}/approve", approveFeedback).Methods(http.MethodPost)
	r.HandleFunc("/feedback/{id}/reject", rejectFeedback).Methods(http.MethodPost)
}

// submitFeedback accepts a public rating. Entries start unapproved and
// are hidden until staff review them.
func submitFeedback(w http.ResponseWriter, r *http.Request) {
	var f models.Feedback
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateFeedback(f); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Approved = false
	f, err := store.SaveFeedback(f)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save feedback")
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{
		"success":  true,
		"feedback": f,
	})
}

// approvedFeedback serves the public listing: the top approved entries
// by rating.
func approvedFeedback(w http.ResponseWriter, r *http.Request) {
	fs, err := store.ApprovedFeedback()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"feedbacks": fs})
}

func listFeedback(w http.ResponseWriter, r *http.Request) {
	fs, err := store.ListFeedback()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list feedback")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"feedbacks": fs})
}

func approveFeedback(w http.ResponseWriter, r *http.Request) {
	setApproval(w, r, true)
}

func rejectFeedback(w http.ResponseWriter, r *http.Request) {
	setApproval(w, r, false)
}

func setApproval(w http.ResponseWriter, r *http.Request, approved bool) {
	f, err := store.SetFeedbackApproval(mux.Vars(r)["id"], approved)
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "feedback not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to update feedback")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "feedback": f})
}
