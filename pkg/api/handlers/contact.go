package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"civicdesk/pkg/models"
	"civicdesk/pkg/store"
	"civicdesk/pkg/utils"
	"civicdesk/pkg/validation"
)

// RegisterContact registers the public contact route.
func RegisterContact(r *mux.Router) {
	r.HandleFunc("/contact", submitContact).Methods(http.MethodPost)
}

// RegisterAdminContact registers the staff ticket routes.
func RegisterAdminContact(r *mux.Router) {
	r.HandleFunc("/contact", listContactMessages).Methods(http.MethodGet)
	r.HandleFunc("/contact/{id}/respond", respondContact).Methods(http.MethodPost)
	r.HandleFunc("/contact/{id}/reopen", reopenContact).Methods(http.MethodPost)
}

// submitContact accepts a public contact form post, assigns a ticket
// number and notifies staff.
func submitContact(w http.ResponseWriter, r *http.Request) {
	var c models.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateContactMessage(c); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := store.SaveContactMessage(c)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save ticket")
		return
	}
	engine.ContactReceived(c)
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{
		"success":       true,
		"ticket_number": c.TicketNumber,
	})
}

func listContactMessages(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	tickets, err := store.ListContactMessages(status)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"tickets": tickets})
}

// respondContact records a staff response, marks the ticket resolved and
// emails the submitter best effort.
func respondContact(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Response) == "" {
		utils.JSONError(w, http.StatusBadRequest, "response is required")
		return
	}
	c, err := store.GetContactMessage(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "ticket not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to load ticket")
		return
	}
	c.Response = req.Response
	c.ResponseDate = time.Now().UTC()
	c.ResponseAdminID = p.ID
	c.Status = models.TicketResolved
	c, err = store.SaveContactMessage(c)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save ticket")
		return
	}
	if mail != nil {
		mail.SendAsync(c.Email, "Re: "+c.Subject+" ["+c.TicketNumber+"]", req.Response, nil)
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

// reopenContact flips a resolved or closed ticket back to reopened.
func reopenContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	c, err := store.GetContactMessage(mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "ticket not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to load ticket")
		return
	}
	if c.Status != models.TicketResolved && c.Status != models.TicketClosed {
		utils.JSONError(w, http.StatusBadRequest, "ticket is not resolved or closed")
		return
	}
	c.Status = models.TicketReopened
	c.ReopenCount++
	if req.Notes != "" {
		c.ReopenNotes = req.Notes
	}
	c, err = store.SaveContactMessage(c)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to save ticket")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}
