package validation

import (
	"errors"
	"fmt"
	"strings"

	"civicdesk/pkg/models"
)

const (
	MaxTitleLen   = 200
	MaxMessageLen = 2000
	MaxContentLen = 4000
)

// ValidateNotification checks the fields a caller controls before a
// notification row is persisted. Server-assigned fields (id, timestamps)
// are not checked here.
func ValidateNotification(n models.Notification) error {
	var errs []string
	if n.UserID <= 0 {
		errs = append(errs, "user_id is required")
	}
	if !models.ValidNotificationType(string(n.Type)) {
		errs = append(errs, fmt.Sprintf("unknown notification type: %q", n.Type))
	}
	if strings.TrimSpace(n.Title) == "" {
		errs = append(errs, "title is required")
	}
	if len(n.Title) > MaxTitleLen {
		errs = append(errs, fmt.Sprintf("title exceeds %d characters", MaxTitleLen))
	}
	if len(n.Message) > MaxMessageLen {
		errs = append(errs, fmt.Sprintf("message exceeds %d characters", MaxMessageLen))
	}
	if n.Role != "" && n.Role != "user" && n.Role != "admin" {
		errs = append(errs, fmt.Sprintf("unknown role: %q", n.Role))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ValidateChatMessage checks message content before it is stored.
func ValidateChatMessage(m models.ChatMessage) error {
	var errs []string
	if m.ChatID == "" {
		errs = append(errs, "chat_id is required")
	}
	if m.SenderID <= 0 {
		errs = append(errs, "sender_id is required")
	}
	if strings.TrimSpace(m.Content) == "" {
		errs = append(errs, "content is required")
	}
	if len(m.Content) > MaxContentLen {
		errs = append(errs, fmt.Sprintf("content exceeds %d characters", MaxContentLen))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ValidateFeedback checks a public feedback submission.
func ValidateFeedback(f models.Feedback) error {
	var errs []string
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(f.Email) == "" || !strings.Contains(f.Email, "@") {
		errs = append(errs, "valid email is required")
	}
	if f.Rating < 1 || f.Rating > 5 {
		errs = append(errs, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(f.Message) == "" {
		errs = append(errs, "message is required")
	}
	if len(f.Message) > MaxMessageLen {
		errs = append(errs, fmt.Sprintf("message exceeds %d characters", MaxMessageLen))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ValidateContactMessage checks a contact ticket submission.
func ValidateContactMessage(c models.ContactMessage) error {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.Email) == "" || !strings.Contains(c.Email, "@") {
		errs = append(errs, "valid email is required")
	}
	if strings.TrimSpace(c.Message) == "" {
		errs = append(errs, "message is required")
	}
	if len(c.Message) > MaxMessageLen {
		errs = append(errs, fmt.Sprintf("message exceeds %d characters", MaxMessageLen))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
