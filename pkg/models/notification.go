package models

import "time"

// NotificationType classifies what domain event produced a notification.
type NotificationType string

const (
	NotificationReportStatusUpdate NotificationType = "report_status_update"
	NotificationNewReport          NotificationType = "new_report"
	NotificationNewUser            NotificationType = "new_user"
	NotificationAdminAlert         NotificationType = "admin_alert"
	NotificationEmergency          NotificationType = "emergency"
	NotificationMessage            NotificationType = "message"
	NotificationChatMessage        NotificationType = "chat_message"
	NotificationReportAssigned     NotificationType = "report_assigned"
	NotificationNewMessage         NotificationType = "new_message"
)

// notificationTypes is the closed set accepted from external input.
var notificationTypes = map[NotificationType]struct{}{
	NotificationReportStatusUpdate: {},
	NotificationNewReport:          {},
	NotificationNewUser:            {},
	NotificationAdminAlert:         {},
	NotificationEmergency:          {},
	NotificationMessage:            {},
	NotificationChatMessage:        {},
	NotificationReportAssigned:     {},
	NotificationNewMessage:         {},
}

// ValidNotificationType reports whether s names a known notification type.
func ValidNotificationType(s string) bool {
	_, ok := notificationTypes[NotificationType(s)]
	return ok
}

// DefaultNotificationTTL is how long a notification stays queryable when the
// producer does not set an explicit expiry.
const DefaultNotificationTTL = 30 * 24 * time.Hour

// Notification is one per-recipient row produced by the fan-out engine.
// Rows are immutable except for IsRead.
type Notification struct {
	ID            string           `json:"id"`
	UserID        int              `json:"user_id"`
	RelatedUserID int              `json:"related_user_id,omitempty"`
	ReportID      string           `json:"report_id,omitempty"`
	AlertID       string           `json:"alert_id,omitempty"`
	ChatID        string           `json:"chat_id,omitempty"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	IsRead        bool             `json:"is_read"`
	IsUrgent      bool             `json:"is_urgent"`
	ActionURL     string           `json:"action_url,omitempty"`
	ActionText    string           `json:"action_text,omitempty"`
	// Role selects which audience view the row belongs to ("user" or "admin").
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// NotificationStats is the admin aggregate view over all rows.
type NotificationStats struct {
	Total  int            `json:"total"`
	Unread int            `json:"unread"`
	Urgent int            `json:"urgent"`
	ByType map[string]int `json:"by_type"`
	Recent int            `json:"recent"`
}
