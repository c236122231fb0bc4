package models

import "time"

// Contact ticket statuses.
const (
	TicketNew        = "new"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
	TicketReopened   = "reopened"
)

// Contact ticket priorities. High and urgent fan out as urgent.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ContactMessage is a public support/contact ticket. Submitters do not need
// an account; responses go out by email.
type ContactMessage struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Subject         string    `json:"subject"`
	Message         string    `json:"message"`
	TicketNumber    string    `json:"ticket_number"`
	Status          string    `json:"status"`
	Priority        string    `json:"priority"`
	UserID          int       `json:"user_id,omitempty"`
	AssignedAdminID int       `json:"assigned_admin_id,omitempty"`
	Response        string    `json:"response,omitempty"`
	ResponseDate    time.Time `json:"response_date,omitempty"`
	ResponseAdminID int       `json:"response_admin_id,omitempty"`
	ReopenCount     int       `json:"reopen_count"`
	ReopenNotes     string    `json:"reopen_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UrgentTicket reports whether the ticket priority warrants urgent fan-out.
func UrgentTicket(priority string) bool {
	return priority == PriorityHigh || priority == PriorityUrgent
}
