package realtime

// Client -> server event names. Fixed wire contract.
const (
	EvJoinNotifications = "join_notifications"
	EvGetUnreadCount    = "get_unread_count"
	EvMarkRead          = "mark_notification_read"
	EvMarkAllRead       = "mark_all_notifications_read"
	EvAdminSendNotif    = "admin_send_notification"
	EvAdminBroadcast    = "admin_broadcast_alert"
	EvSubscribeReport   = "subscribe_to_report"
	EvSendMessage       = "send_message"
	EvJoinChat          = "join_chat"
	EvAdminGetChats     = "admin_get_chats"
	EvAdminSendMessage  = "admin_send_message"
)

// Server -> client event names.
const (
	EvConnectionStatus     = "connection_status"
	EvNewNotification      = "new_notification"
	EvUnreadCountUpdate    = "unread_count_update"
	EvNotificationRead     = "notification_read"
	EvAllNotificationsRead = "all_notifications_read"
	EvAdminNotifSent       = "admin_notification_sent"
	EvAdminNotifError      = "admin_notification_error"
	EvBroadcastSuccess     = "admin_broadcast_success"
	EvBroadcastError       = "admin_broadcast_error"
	EvNewMessage           = "new_message"
	EvAdminChatList        = "admin_chat_list"
	EvError                = "error"
)

// envelope is the wire frame for both directions.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}
