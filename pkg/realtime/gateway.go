package realtime

import (
	"civicdesk/pkg/logger"
	"civicdesk/pkg/models"
	"civicdesk/pkg/store"
)

// NotifyCreated pushes a committed notification to the recipient's
// notification room, then an unread count recomputed from the store.
// Reading the store after commit keeps concurrent creations from
// pushing a stale count; there is no cached counter anywhere.
func (h *Hub) NotifyCreated(n models.Notification) {
	room := NotificationsRoom(n.UserID)
	h.EmitRoom(room, EvNewNotification, n)
	h.pushUnreadCount(n.UserID)
}

// UnreadChanged re-emits the recipient's unread count after an
// out-of-band read-state mutation (REST mark-read, delete).
func (h *Hub) UnreadChanged(userID int) {
	h.pushUnreadCount(userID)
}

// pushUnreadCount recomputes and pushes the recipient's unread total.
func (h *Hub) pushUnreadCount(userID int) {
	count, err := store.UnreadCount(userID)
	if err != nil {
		logger.Error("unread_count_failed", "user_id", userID, "error", err)
		return
	}
	h.EmitRoom(NotificationsRoom(userID), EvUnreadCountUpdate, map[string]any{
		"count":   count,
		"user_id": userID,
	})
}
