package models

import "time"

// Report urgency levels. High and above mark admin notifications urgent.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
	UrgencyUrgent   = "urgent"
)

// Report is a citizen-submitted incident report.
type Report struct {
	ID          string    `json:"id"`
	UserID      int       `json:"user_id"`
	AdminID     int       `json:"admin_id,omitempty"`
	ReportType  string    `json:"report_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Urgency     string    `json:"urgency"`
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
	AdminNotes  string    `json:"admin_notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UrgentReport reports whether the report's urgency warrants an urgent
// admin notification.
func UrgentReport(urgency string) bool {
	switch urgency {
	case UrgencyHigh, UrgencyCritical, UrgencyUrgent:
		return true
	}
	return false
}
