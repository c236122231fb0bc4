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

// RegisterNotifications registers the per-user notification routes.
func RegisterNotifications(r *mux.Router) {
	r.HandleFunc("/notifications", listNotifications).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", unreadCount).Methods(http.MethodGet)
	r.HandleFunc("/notifications/recent", recentNotifications).Methods(http.MethodGet)
	r.HandleFunc("/notifications/read-all", markAllNotificationsRead).Methods(http.MethodPost)
	r.HandleFunc("/notifications/read", deleteReadNotifications).Methods(http.MethodDelete)
	r.HandleFunc("/notifications/{id}/read", markNotificationRead).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id}", deleteNotification).Methods(http.MethodDelete)
}

// RegisterAdminNotifications registers the staff-only notification routes.
func RegisterAdminNotifications(r *mux.Router) {
	r.HandleFunc("/notifications", listAllNotifications).Methods(http.MethodGet)
	r.HandleFunc("/notifications/stats", notificationStats).Methods(http.MethodGet)
	r.HandleFunc("/notifications/send-alert", sendAlert).Methods(http.MethodPost)
}

// listNotifications handles GET /notifications with paging and an
// unread_only filter.
func listNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	page := intQuery(r, "page", 1, 1)
	perPage := intQuery(r, "per_page", 20, 1)
	if perPage > 100 {
		perPage = 100
	}
	unreadOnly := r.URL.Query().Get("unread_only") == "true"

	ns, total, err := store.ListNotifications(p.ID, unreadOnly, perPage, (page-1)*perPage)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	unread, err := store.UnreadCount(p.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to count unread")
		return
	}
	pages := (total + perPage - 1) / perPage
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{
		"notifications": ns,
		"total":         total,
		"pages":         pages,
		"current_page":  page,
		"unread_count":  unread,
	})
}

func unreadCount(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	count, err := store.UnreadCount(p.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to count unread")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"unread_count": count})
}

func recentNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	limit := intQuery(r, "limit", 5, 1)
	ns, err := store.RecentNotifications(p.ID, limit)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"notifications": ns})
}

func markNotificationRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	_, err := store.MarkNotificationRead(id, p.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "notification not found")
		return
	case errors.Is(err, store.ErrNotOwner):
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, "failed to mark read")
		return
	}
	engine.UnreadChanged(p.ID)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true})
}

func markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	count, err := store.MarkAllNotificationsRead(p.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to mark all read")
		return
	}
	engine.UnreadChanged(p.ID)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "count": count})
}

func deleteNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	err := store.DeleteNotification(id, p.ID, p.IsAdmin())
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "notification not found")
		return
	case errors.Is(err, store.ErrNotOwner):
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}
	// a deleted unread row changes the count
	engine.UnreadChanged(p.ID)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true})
}

func deleteReadNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	deleted, err := store.DeleteReadNotifications(p.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to delete notifications")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}

// listAllNotifications handles GET /admin/notifications with an optional
// type filter. Unknown types are a client error.
func listAllNotifications(w http.ResponseWriter, r *http.Request) {
	typeFilter := strings.TrimSpace(r.URL.Query().Get("type"))
	if typeFilter != "" && !models.ValidNotificationType(typeFilter) {
		utils.JSONError(w, http.StatusBadRequest, "unknown notification type: "+typeFilter)
		return
	}
	page := intQuery(r, "page", 1, 1)
	perPage := intQuery(r, "per_page", 50, 1)
	ns, err := store.ListAllNotifications(typeFilter, perPage, (page-1)*perPage)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"notifications": ns, "current_page": page})
}

func notificationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.NotificationStats()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to build stats")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, stats)
}

// sendAlert handles POST /admin/notifications/send-alert: a manual
// broadcast to all citizens or an explicit recipient subset.
func sendAlert(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Title    string `json:"title"`
		Message  string `json:"message"`
		IsUrgent *bool  `json:"is_urgent"`
		UserIDs  []int  `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		utils.JSONError(w, http.StatusBadRequest, "title is required")
		return
	}
	urgent := true
	if req.IsUrgent != nil {
		urgent = *req.IsUrgent
	}

	var sent int
	if len(req.UserIDs) > 0 {
		recipients := make([]models.User, 0, len(req.UserIDs))
		for _, id := range req.UserIDs {
			u, err := store.GetUser(id)
			if err != nil {
				continue
			}
			recipients = append(recipients, u)
		}
		sent = engine.AlertIssued(models.Alert{
			Title:     req.Title,
			Message:   req.Message,
			Severity:  severityFor(urgent),
			CreatedBy: p.ID,
		}, recipients)
	} else {
		sent = engine.Broadcast(req.Title, req.Message, urgent, p.ID)
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "notifications_sent": sent})
}

func severityFor(urgent bool) string {
	if urgent {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}
