package notify

import (
	"fmt"

	"civicdesk/pkg/logger"
	"civicdesk/pkg/mailer"
	"civicdesk/pkg/models"
	"civicdesk/pkg/store"
	"civicdesk/pkg/telemetry"
)

// maxPreviewLen bounds chat content copied into a notification body.
const maxPreviewLen = 100

// PushGateway receives committed rows for live delivery. Pushes are best
// effort; offline recipients read the durable store instead.
type PushGateway interface {
	NotifyCreated(n models.Notification)
	UnreadChanged(userID int)
}

// Engine is the single entry point for producing notifications. Every
// domain event funnels through one of its methods; each method enumerates
// recipients, persists one row per recipient in a single atomic batch,
// then hands the committed rows to the push gateway.
type Engine struct {
	Push   PushGateway
	Mailer *mailer.Mailer
}

func New(push PushGateway, m *mailer.Mailer) *Engine {
	return &Engine{Push: push, Mailer: m}
}

// commit persists rows atomically and pushes them. Failures are logged
// and counted but never propagated to the triggering domain action.
func (e *Engine) commit(event string, rows []models.Notification) []models.Notification {
	if len(rows) == 0 {
		return nil
	}
	created, err := store.CreateNotificationBatch(rows)
	if err != nil {
		telemetry.CountFanoutError(event)
		logger.Error("fanout_persist_failed", "event", event, "rows", len(rows), "error", err)
		return nil
	}
	telemetry.CountFanout(event, len(created))
	if e.Push != nil {
		for _, n := range created {
			e.Push.NotifyCreated(n)
		}
	}
	return created
}

// UnreadChanged pushes a freshly recomputed unread count to the user's
// live connections. REST handlers call it after read-state mutations so
// connected clients do not sit on a stale count until the next poll.
func (e *Engine) UnreadChanged(userID int) {
	if e.Push != nil {
		e.Push.UnreadChanged(userID)
	}
}

// ReportSubmitted notifies every admin about a new citizen report.
func (e *Engine) ReportSubmitted(r models.Report, submitter models.User) {
	admins, err := store.ListAdmins()
	if err != nil {
		telemetry.CountFanoutError("report_submitted")
		logger.Error("fanout_recipients_failed", "event", "report_submitted", "error", err)
		return
	}
	urgent := models.UrgentReport(r.Urgency)
	rows := make([]models.Notification, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, models.Notification{
			UserID:        a.ID,
			RelatedUserID: submitter.ID,
			ReportID:      r.ID,
			Type:          models.NotificationNewReport,
			Title:         "New Report Submitted",
			Message:       fmt.Sprintf("%s submitted a new %s report: %s", submitter.FullName(), r.ReportType, r.Title),
			IsUrgent:      urgent,
			ActionURL:     "/admin/reports/" + r.ID,
			ActionText:    "Review Report",
			Role:          "admin",
		})
	}
	e.commit("report_submitted", rows)
}

// ReportStatusChanged notifies the report owner about a status change.
func (e *Engine) ReportStatusChanged(r models.Report, newStatus string) {
	rows := []models.Notification{{
		UserID:     r.UserID,
		ReportID:   r.ID,
		Type:       models.NotificationReportStatusUpdate,
		Title:      "Report Status Updated",
		Message:    fmt.Sprintf("Your report %q is now %s", r.Title, newStatus),
		ActionURL:  "/reports/" + r.ID,
		ActionText: "View Report",
		Role:       "user",
	}}
	e.commit("report_status_changed", rows)
}

// UserRegistered notifies every admin about a new account.
func (e *Engine) UserRegistered(u models.User) {
	admins, err := store.ListAdmins()
	if err != nil {
		telemetry.CountFanoutError("user_registered")
		logger.Error("fanout_recipients_failed", "event", "user_registered", "error", err)
		return
	}
	rows := make([]models.Notification, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, models.Notification{
			UserID:        a.ID,
			RelatedUserID: u.ID,
			Type:          models.NotificationNewUser,
			Title:         "New User Registered",
			Message:       fmt.Sprintf("%s (%s) created an account", u.FullName(), u.Email),
			ActionURL:     "/admin/users",
			ActionText:    "View Users",
			Role:          "admin",
		})
	}
	e.commit("user_registered", rows)
}

// AlertIssued fans an alert out to every citizen, or to the explicit
// recipient subset when given, and sends a best-effort email per
// recipient. Returns how many notification rows were created.
func (e *Engine) AlertIssued(a models.Alert, recipients []models.User) int {
	if recipients == nil {
		var err error
		recipients, err = store.ListNonAdmins()
		if err != nil {
			telemetry.CountFanoutError("alert_issued")
			logger.Error("fanout_recipients_failed", "event", "alert_issued", "error", err)
			return 0
		}
	}
	urgent := models.UrgentAlert(a.Severity)
	typ := models.NotificationAdminAlert
	if urgent {
		typ = models.NotificationEmergency
	}
	rows := make([]models.Notification, 0, len(recipients))
	for _, u := range recipients {
		rows = append(rows, models.Notification{
			UserID:     u.ID,
			AlertID:    a.ID,
			Type:       typ,
			Title:      a.Title,
			Message:    a.Message,
			IsUrgent:   urgent,
			ActionURL:  "/alerts",
			ActionText: "View Alerts",
			Role:       "user",
		})
	}
	created := e.commit("alert_issued", rows)
	e.emailAlert(a, recipients)
	return len(created)
}

// emailAlert sends the alert body to each recipient off the request path.
// A total email failure surfaces as an urgent admin notification so staff
// can follow up manually.
func (e *Engine) emailAlert(a models.Alert, recipients []models.User) {
	if e.Mailer == nil || !e.Mailer.Enabled() {
		return
	}
	go func() {
		failed := 0
		for _, u := range recipients {
			if u.Email == "" {
				continue
			}
			subject := "[" + a.Severity + "] " + a.Title
			if err := e.Mailer.Send(u.Email, subject, a.Message); err != nil {
				failed++
				logger.Error("alert_email_failed", "alert_id", a.ID, "to", u.Email, "error", err)
			}
		}
		if failed == 0 {
			return
		}
		admins, err := store.ListAdmins()
		if err != nil {
			logger.Error("fanout_recipients_failed", "event", "alert_email_failed", "error", err)
			return
		}
		rows := make([]models.Notification, 0, len(admins))
		for _, ad := range admins {
			rows = append(rows, models.Notification{
				UserID:   ad.ID,
				AlertID:  a.ID,
				Type:     models.NotificationAdminAlert,
				Title:    "Alert Email Delivery Failed",
				Message:  fmt.Sprintf("%d alert emails for %q failed to send", failed, a.Title),
				IsUrgent: true,
				Role:     "admin",
			})
		}
		e.commit("alert_email_failed", rows)
	}()
}

// ChatMessageSent notifies the other chat participant about a new message.
// The notification body carries a truncated preview, never the full text.
func (e *Engine) ChatMessageSent(c models.Chat, m models.ChatMessage, sender models.User, recipientID int) {
	if recipientID <= 0 {
		return
	}
	preview := m.Content
	if len(preview) > maxPreviewLen {
		preview = preview[:maxPreviewLen] + "..."
	}
	role := "user"
	actionURL := "/chats/" + c.ID
	if !m.IsAdmin {
		// a citizen wrote; the recipient is staff
		role = "admin"
		actionURL = "/admin/chats/" + c.ID
	}
	rows := []models.Notification{{
		UserID:        recipientID,
		RelatedUserID: sender.ID,
		ChatID:        c.ID,
		Type:          models.NotificationChatMessage,
		Title:         "New Message from " + sender.FullName(),
		Message:       preview,
		ActionURL:     actionURL,
		ActionText:    "Open Chat",
		Role:          role,
	}}
	e.commit("chat_message_sent", rows)
}

// Broadcast sends a manual admin notice to every citizen and returns the
// recipient count.
func (e *Engine) Broadcast(title, message string, urgent bool, senderID int) int {
	recipients, err := store.ListNonAdmins()
	if err != nil {
		telemetry.CountFanoutError("broadcast")
		logger.Error("fanout_recipients_failed", "event", "broadcast", "error", err)
		return 0
	}
	typ := models.NotificationAdminAlert
	if urgent {
		typ = models.NotificationEmergency
	}
	rows := make([]models.Notification, 0, len(recipients))
	for _, u := range recipients {
		rows = append(rows, models.Notification{
			UserID:        u.ID,
			RelatedUserID: senderID,
			Type:          typ,
			Title:         title,
			Message:       message,
			IsUrgent:      urgent,
			Role:          "user",
		})
	}
	created := e.commit("broadcast", rows)
	return len(created)
}

// SendDirect creates a single admin-composed notification for one user.
func (e *Engine) SendDirect(n models.Notification) (models.Notification, error) {
	created := e.commit("direct", []models.Notification{n})
	if len(created) == 0 {
		return models.Notification{}, fmt.Errorf("notification not created")
	}
	return created[0], nil
}

// ContactReceived notifies every admin about a new contact ticket.
func (e *Engine) ContactReceived(c models.ContactMessage) {
	admins, err := store.ListAdmins()
	if err != nil {
		telemetry.CountFanoutError("contact_received")
		logger.Error("fanout_recipients_failed", "event", "contact_received", "error", err)
		return
	}
	urgent := models.UrgentTicket(c.Priority)
	rows := make([]models.Notification, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, models.Notification{
			UserID:     a.ID,
			Type:       models.NotificationMessage,
			Title:      "New Contact Ticket " + c.TicketNumber,
			Message:    fmt.Sprintf("%s: %s", c.Name, c.Subject),
			IsUrgent:   urgent,
			ActionURL:  "/admin/contact",
			ActionText: "View Tickets",
			Role:       "admin",
		})
	}
	e.commit("contact_received", rows)
}
