package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"civicdesk/pkg/logger"
	"civicdesk/pkg/models"
	"civicdesk/pkg/utils"
)

// ErrNotOwner is returned when a caller touches a notification that
// belongs to a different user.
var ErrNotOwner = errors.New("store: notification belongs to another user")

// Notifications are stored twice: the primary record under
// notif:id:<id> and a per-user index key notif:user:<uid>:<padded ts>
// whose value is the notification ID. Both keys are written in one
// batch so a crash never leaves a dangling index entry.

func notifKey(id string) string {
	return "notif:id:" + id
}

func notifUserPrefix(userID int) string {
	return fmt.Sprintf("notif:user:%d:", userID)
}

// CreateNotificationBatch persists a set of notifications atomically.
// IDs and timestamps are assigned for rows that lack them; either all
// rows land or none do.
func CreateNotificationBatch(notifs []models.Notification) ([]models.Notification, error) {
	if len(notifs) == 0 {
		return nil, nil
	}
	b, err := newBatch()
	if err != nil {
		return nil, err
	}
	defer b.Close()

	now := time.Now().UTC()
	out := make([]models.Notification, 0, len(notifs))
	for _, n := range notifs {
		if n.ID == "" {
			n.ID = utils.NewID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.ExpiresAt.IsZero() {
			n.ExpiresAt = n.CreatedAt.Add(models.DefaultNotificationTTL)
		}
		if n.Role == "" {
			n.Role = "user"
		}
		data, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification: %w", err)
		}
		if err := b.Set([]byte(notifKey(n.ID)), data, nil); err != nil {
			return nil, err
		}
		idxKey := notifUserPrefix(n.UserID) + timeKey(n.CreatedAt)
		if err := b.Set([]byte(idxKey), []byte(n.ID), nil); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := commitBatch(b); err != nil {
		logger.Error("notification_batch_commit_failed", "count", len(notifs), "error", err)
		return nil, err
	}
	logger.Info("notifications_created", "count", len(out))
	return out, nil
}

// CreateNotification persists a single notification.
func CreateNotification(n models.Notification) (models.Notification, error) {
	out, err := CreateNotificationBatch([]models.Notification{n})
	if err != nil {
		return models.Notification{}, err
	}
	return out[0], nil
}

// GetNotification loads a notification by ID.
func GetNotification(id string) (models.Notification, error) {
	var n models.Notification
	raw, err := getRaw(notifKey(id))
	if err != nil {
		return n, err
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		return n, fmt.Errorf("invalid notification record: %w", err)
	}
	return n, nil
}

func saveNotification(n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return setRaw(notifKey(n.ID), data)
}

// loadUserNotifications scans the per-user index and loads every live row.
// Dangling index entries (row purged by retention) are skipped.
func loadUserNotifications(userID int) ([]models.Notification, error) {
	var ids []string
	err := scanPrefix(notifUserPrefix(userID), func(_ string, v []byte) bool {
		ids = append(ids, string(v))
		return true
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(ids))
	for _, id := range ids {
		n, err := GetNotification(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// sortNotifications orders urgent rows first, then newest first, with ID
// as a stable tie-break.
func sortNotifications(ns []models.Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].IsUrgent != ns[j].IsUrgent {
			return ns[i].IsUrgent
		}
		if !ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].CreatedAt.After(ns[j].CreatedAt)
		}
		return ns[i].ID < ns[j].ID
	})
}

// ListNotifications returns a page of a user's notifications, urgent
// first then newest first, plus the total row count after filtering.
// limit <= 0 means no limit.
func ListNotifications(userID int, unreadOnly bool, limit, offset int) ([]models.Notification, int, error) {
	ns, err := loadUserNotifications(userID)
	if err != nil {
		return nil, 0, err
	}
	if unreadOnly {
		filtered := ns[:0]
		for _, n := range ns {
			if !n.IsRead {
				filtered = append(filtered, n)
			}
		}
		ns = filtered
	}
	sortNotifications(ns)
	total := len(ns)
	if offset > 0 {
		if offset >= len(ns) {
			return []models.Notification{}, total, nil
		}
		ns = ns[offset:]
	}
	if limit > 0 && len(ns) > limit {
		ns = ns[:limit]
	}
	return ns, total, nil
}

// RecentNotifications returns the user's newest rows by creation time,
// ignoring urgency ordering.
func RecentNotifications(userID, limit int) ([]models.Notification, error) {
	ns, err := loadUserNotifications(userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ns, func(i, j int) bool {
		if !ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].CreatedAt.After(ns[j].CreatedAt)
		}
		return ns[i].ID < ns[j].ID
	})
	if limit > 0 && len(ns) > limit {
		ns = ns[:limit]
	}
	return ns, nil
}

// UnreadCount returns the number of unread notifications for a user.
func UnreadCount(userID int) (int, error) {
	ns, err := loadUserNotifications(userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range ns {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

// MarkNotificationRead flips one notification to read. Only the owner may
// do so; marking an already read row is a no-op and reports changed=false.
func MarkNotificationRead(id string, userID int) (bool, error) {
	n, err := GetNotification(id)
	if err != nil {
		return false, err
	}
	if n.UserID != userID {
		return false, ErrNotOwner
	}
	if n.IsRead {
		return false, nil
	}
	n.IsRead = true
	if err := saveNotification(n); err != nil {
		return false, err
	}
	logger.Info("notification_read", "id", id, "user_id", userID)
	return true, nil
}

// MarkAllNotificationsRead flips every unread notification for the user
// and returns how many changed.
func MarkAllNotificationsRead(userID int) (int, error) {
	ns, err := loadUserNotifications(userID)
	if err != nil {
		return 0, err
	}
	b, err := newBatch()
	if err != nil {
		return 0, err
	}
	defer b.Close()
	changed := 0
	for _, n := range ns {
		if n.IsRead {
			continue
		}
		n.IsRead = true
		data, err := json.Marshal(n)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal notification: %w", err)
		}
		if err := b.Set([]byte(notifKey(n.ID)), data, nil); err != nil {
			return 0, err
		}
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if err := commitBatch(b); err != nil {
		return 0, err
	}
	logger.Info("notifications_all_read", "user_id", userID, "count", changed)
	return changed, nil
}

// DeleteNotification removes a notification and its index entry. Non-admin
// callers may only delete their own rows.
func DeleteNotification(id string, userID int, admin bool) error {
	n, err := GetNotification(id)
	if err != nil {
		return err
	}
	if !admin && n.UserID != userID {
		return ErrNotOwner
	}
	return deleteNotificationRow(n)
}

func deleteNotificationRow(n models.Notification) error {
	b, err := newBatch()
	if err != nil {
		return err
	}
	defer b.Close()
	if err := b.Delete([]byte(notifKey(n.ID)), nil); err != nil {
		return err
	}
	// index keys embed a write-time suffix, so find them by scan
	var idxKeys []string
	err = scanPrefix(notifUserPrefix(n.UserID), func(k string, v []byte) bool {
		if string(v) == n.ID {
			idxKeys = append(idxKeys, k)
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, k := range idxKeys {
		if err := b.Delete([]byte(k), nil); err != nil {
			return err
		}
	}
	return commitBatch(b)
}

// DeleteReadNotifications removes every read notification for the user
// and returns how many were deleted.
func DeleteReadNotifications(userID int) (int, error) {
	ns, err := loadUserNotifications(userID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, n := range ns {
		if !n.IsRead {
			continue
		}
		if err := deleteNotificationRow(n); err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		logger.Info("notifications_read_deleted", "user_id", userID, "count", deleted)
	}
	return deleted, nil
}

// ListAllNotifications returns a page over every user's notifications,
// optionally filtered by type. Admin surface only.
func ListAllNotifications(typeFilter string, limit, offset int) ([]models.Notification, error) {
	var ns []models.Notification
	err := scanPrefix("notif:id:", func(_ string, v []byte) bool {
		var n models.Notification
		if json.Unmarshal(v, &n) != nil {
			return true
		}
		if typeFilter != "" && string(n.Type) != typeFilter {
			return true
		}
		ns = append(ns, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	sortNotifications(ns)
	if offset > 0 {
		if offset >= len(ns) {
			return []models.Notification{}, nil
		}
		ns = ns[offset:]
	}
	if limit > 0 && len(ns) > limit {
		ns = ns[:limit]
	}
	return ns, nil
}

// NotificationStats aggregates counts for the admin dashboard. Recent
// counts rows created within the last 7 days.
func NotificationStats() (models.NotificationStats, error) {
	stats := models.NotificationStats{ByType: map[string]int{}}
	cutoff := time.Now().UTC().AddDate(0, 0, -7)
	err := scanPrefix("notif:id:", func(_ string, v []byte) bool {
		var n models.Notification
		if json.Unmarshal(v, &n) != nil {
			return true
		}
		stats.Total++
		if !n.IsRead {
			stats.Unread++
		}
		if n.IsUrgent {
			stats.Urgent++
		}
		stats.ByType[string(n.Type)]++
		if n.CreatedAt.After(cutoff) {
			stats.Recent++
		}
		return true
	})
	return stats, err
}

// PurgeExpiredNotifications deletes rows whose expires_at has passed.
// At most batchSize rows are removed per call; dryRun only counts.
func PurgeExpiredNotifications(now time.Time, batchSize int, dryRun bool) (int, error) {
	var expired []models.Notification
	err := scanPrefix("notif:id:", func(_ string, v []byte) bool {
		var n models.Notification
		if json.Unmarshal(v, &n) != nil {
			return true
		}
		if !n.ExpiresAt.IsZero() && n.ExpiresAt.Before(now) {
			expired = append(expired, n)
		}
		return batchSize <= 0 || len(expired) < batchSize
	})
	if err != nil {
		return 0, err
	}
	if dryRun {
		return len(expired), nil
	}
	for i, n := range expired {
		if err := deleteNotificationRow(n); err != nil {
			return i, err
		}
	}
	return len(expired), nil
}
