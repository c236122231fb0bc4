package models

import "time"

// Alert severities. High and Critical fan out as urgent notifications.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Alert is an admin-issued advisory shown to all citizens.
type Alert struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Severity     string    `json:"severity"`
	AffectedArea string    `json:"affected_area,omitempty"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date,omitempty"`
	CreatedBy    int       `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UrgentAlert reports whether the alert severity warrants urgent fan-out.
func UrgentAlert(severity string) bool {
	return severity == SeverityHigh || severity == SeverityCritical
}
