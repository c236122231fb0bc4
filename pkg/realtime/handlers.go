package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"civicdesk/pkg/auth"
	"civicdesk/pkg/chat"
	"civicdesk/pkg/logger"
	"civicdesk/pkg/models"
	"civicdesk/pkg/notify"
	"civicdesk/pkg/store"
	"civicdesk/pkg/utils"
	"civicdesk/pkg/validation"
)

// SocketHandler upgrades authenticated requests to websocket sessions
// and dispatches the client event protocol.
type SocketHandler struct {
	Hub    *Hub
	Chat   *chat.Manager
	Engine *notify.Engine
}

func NewSocketHandler(h *Hub, cm *chat.Manager, e *notify.Engine) *SocketHandler {
	return &SocketHandler{Hub: h, Chat: cm, Engine: e}
}

func (s *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sock, err := s.Hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws_upgrade_failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	if s.Hub.maxPayload > 0 {
		sock.SetReadLimit(s.Hub.maxPayload)
	}

	c := &Conn{
		ID:        utils.NewConnID(),
		Principal: p,
		sock:      sock,
		send:      make(chan *Frame, sendBuffer),
		done:      make(chan struct{}),
		hub:       s.Hub,
	}
	s.Hub.addConn(c)

	// connect-time rooms: everyone gets a personal room, staff also the
	// shared and personal admin rooms
	s.Hub.Registry.Join(c.ID, UserRoom(p.ID))
	if p.IsAdmin() {
		s.Hub.Registry.Join(c.ID, AdminRoom)
		s.Hub.Registry.Join(c.ID, AdminPersonalRoom(p.ID))
	}
	logger.Info("ws_connected", "conn_id", c.ID, "user_id", p.ID, "role", p.Role)

	go c.writePump()
	s.Hub.EmitConn(c.ID, EvConnectionStatus, map[string]any{
		"status":  "connected",
		"user_id": p.ID,
	})
	s.readPump(c)
}

// readPump is the single reader for a connection; it exits on any read
// error and unwinds the session.
func (s *SocketHandler) readPump(c *Conn) {
	defer func() {
		s.Hub.removeConn(c)
		c.close()
		logger.Info("ws_disconnected", "conn_id", c.ID, "user_id", c.Principal.ID)
	}()
	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			s.replyError(c, "invalid frame")
			continue
		}
		s.handleEvent(c, env.Event, env.Data)
	}
}

func (s *SocketHandler) replyError(c *Conn, msg string) {
	s.Hub.EmitConn(c.ID, EvError, map[string]any{"message": msg})
}

func (s *SocketHandler) handleEvent(c *Conn, event string, data json.RawMessage) {
	switch event {
	case EvJoinNotifications:
		s.joinNotifications(c)
	case EvGetUnreadCount:
		s.sendUnreadCount(c)
	case EvMarkRead:
		s.markRead(c, data)
	case EvMarkAllRead:
		s.markAllRead(c)
	case EvAdminSendNotif:
		s.adminSendNotification(c, data)
	case EvAdminBroadcast:
		s.adminBroadcast(c, data)
	case EvSubscribeReport:
		s.subscribeReport(c, data)
	case EvSendMessage:
		s.sendMessage(c, data)
	case EvJoinChat:
		s.joinChat(c, data)
	case EvAdminGetChats:
		s.adminGetChats(c)
	case EvAdminSendMessage:
		s.adminSendMessage(c, data)
	default:
		s.replyError(c, "unknown event: "+event)
	}
}

// sender resolves the caller to a user record; a bare principal stands
// in when the account row is missing.
func (s *SocketHandler) sender(c *Conn) models.User {
	u, err := store.GetUser(c.Principal.ID)
	if err != nil {
		return models.User{ID: c.Principal.ID, Role: c.Principal.Role, IsAdmin: c.Principal.IsAdmin()}
	}
	return u
}

func (s *SocketHandler) joinNotifications(c *Conn) {
	room := NotificationsRoom(c.Principal.ID)
	if err := Authorize(c.Principal, room); err != nil {
		s.replyError(c, "join denied")
		return
	}
	s.Hub.Registry.Join(c.ID, room)
	s.sendUnreadCount(c)
}

func (s *SocketHandler) sendUnreadCount(c *Conn) {
	count, err := store.UnreadCount(c.Principal.ID)
	if err != nil {
		s.replyError(c, "failed to get unread count")
		return
	}
	s.Hub.EmitConn(c.ID, EvUnreadCountUpdate, map[string]any{
		"count":   count,
		"user_id": c.Principal.ID,
	})
}

func (s *SocketHandler) markRead(c *Conn, data json.RawMessage) {
	var req struct {
		NotificationID string `json:"notification_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.NotificationID == "" {
		s.replyError(c, "notification_id required")
		return
	}
	_, err := store.MarkNotificationRead(req.NotificationID, c.Principal.ID)
	success := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrNotOwner) {
		s.replyError(c, "failed to mark notification read")
		return
	}
	s.Hub.EmitConn(c.ID, EvNotificationRead, map[string]any{
		"notification_id": req.NotificationID,
		"success":         success,
	})
	if success {
		s.sendUnreadCount(c)
	}
}

func (s *SocketHandler) markAllRead(c *Conn) {
	_, err := store.MarkAllNotificationsRead(c.Principal.ID)
	if err != nil {
		s.replyError(c, "failed to mark all read")
		return
	}
	s.Hub.EmitConn(c.ID, EvAllNotificationsRead, map[string]any{
		"success": true,
		"user_id": c.Principal.ID,
	})
	s.Hub.EmitConn(c.ID, EvUnreadCountUpdate, map[string]any{
		"count":   0,
		"user_id": c.Principal.ID,
	})
}

func (s *SocketHandler) adminSendNotification(c *Conn, data json.RawMessage) {
	if !c.Principal.IsAdmin() {
		s.Hub.EmitConn(c.ID, EvAdminNotifError, map[string]any{"message": "admin required"})
		return
	}
	var req struct {
		UserID     int    `json:"user_id"`
		Type       string `json:"type"`
		Title      string `json:"title"`
		Message    string `json:"message"`
		IsUrgent   bool   `json:"is_urgent"`
		ActionURL  string `json:"action_url"`
		ActionText string `json:"action_text"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		s.Hub.EmitConn(c.ID, EvAdminNotifError, map[string]any{"message": "invalid payload"})
		return
	}
	typ := req.Type
	if typ == "" {
		typ = string(models.NotificationAdminAlert)
	}
	n := models.Notification{
		UserID:        req.UserID,
		RelatedUserID: c.Principal.ID,
		Type:          models.NotificationType(typ),
		Title:         req.Title,
		Message:       req.Message,
		IsUrgent:      req.IsUrgent,
		ActionURL:     req.ActionURL,
		ActionText:    req.ActionText,
		Role:          "user",
	}
	if err := validation.ValidateNotification(n); err != nil {
		s.Hub.EmitConn(c.ID, EvAdminNotifError, map[string]any{"message": err.Error()})
		return
	}
	created, err := s.Engine.SendDirect(n)
	if err != nil {
		s.Hub.EmitConn(c.ID, EvAdminNotifError, map[string]any{"message": "failed to send notification"})
		return
	}
	s.Hub.EmitConn(c.ID, EvAdminNotifSent, map[string]any{
		"notification_id": created.ID,
		"user_id":         created.UserID,
	})
}

func (s *SocketHandler) adminBroadcast(c *Conn, data json.RawMessage) {
	if !c.Principal.IsAdmin() {
		s.Hub.EmitConn(c.ID, EvBroadcastError, map[string]any{"message": "admin required"})
		return
	}
	req := struct {
		Title    string `json:"title"`
		Message  string `json:"message"`
		IsUrgent *bool  `json:"is_urgent"`
	}{}
	if err := json.Unmarshal(data, &req); err != nil || strings.TrimSpace(req.Title) == "" {
		s.Hub.EmitConn(c.ID, EvBroadcastError, map[string]any{"message": "title required"})
		return
	}
	urgent := true
	if req.IsUrgent != nil {
		urgent = *req.IsUrgent
	}
	n := s.Engine.Broadcast(req.Title, req.Message, urgent, c.Principal.ID)
	s.Hub.EmitConn(c.ID, EvBroadcastSuccess, map[string]any{"recipients": n})
}

func (s *SocketHandler) subscribeReport(c *Conn, data json.RawMessage) {
	var req struct {
		ReportID string `json:"report_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ReportID == "" {
		s.replyError(c, "report_id required")
		return
	}
	room := ReportRoom(req.ReportID)
	if err := Authorize(c.Principal, room); err != nil {
		s.replyError(c, "join denied")
		return
	}
	s.Hub.Registry.Join(c.ID, room)
}

func (s *SocketHandler) sendMessage(c *Conn, data json.RawMessage) {
	var req struct {
		ChatID  string `json:"chat_id"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == "" {
		s.replyError(c, "chat_id required")
		return
	}
	_, err := s.Chat.Send(req.ChatID, s.sender(c), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrForbidden):
			s.replyError(c, "not a chat participant")
		case errors.Is(err, chat.ErrClosed):
			s.replyError(c, "chat is closed")
		case errors.Is(err, store.ErrNotFound):
			s.replyError(c, "chat not found")
		default:
			s.replyError(c, "failed to send message")
		}
	}
}

func (s *SocketHandler) joinChat(c *Conn, data json.RawMessage) {
	var req struct {
		ChatID string `json:"chat_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.ChatID == "" {
		s.replyError(c, "chat_id required")
		return
	}
	room := ChatRoom(req.ChatID)
	if err := Authorize(c.Principal, room); err != nil {
		s.replyError(c, "join denied")
		return
	}
	s.Hub.Registry.Join(c.ID, room)
}

func (s *SocketHandler) adminGetChats(c *Conn) {
	if !c.Principal.IsAdmin() {
		s.replyError(c, "admin required")
		return
	}
	chats, err := store.ListChats(0, true)
	if err != nil {
		s.replyError(c, "failed to list chats")
		return
	}
	type chatView struct {
		models.Chat
		UnreadCount int `json:"unread_count"`
	}
	out := make([]chatView, 0, len(chats))
	for _, ch := range chats {
		unread, err := store.ChatUnreadCount(ch.ID, true)
		if err != nil {
			unread = 0
		}
		out = append(out, chatView{Chat: ch, UnreadCount: unread})
	}
	s.Hub.EmitConn(c.ID, EvAdminChatList, map[string]any{"chats": out})
}

func (s *SocketHandler) adminSendMessage(c *Conn, data json.RawMessage) {
	if !c.Principal.IsAdmin() {
		s.replyError(c, "admin required")
		return
	}
	var req struct {
		UserID  int    `json:"user_id"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.UserID <= 0 {
		s.replyError(c, "user_id required")
		return
	}
	ch, err := s.Chat.FindOrCreate(req.UserID, c.Principal.ID)
	if err != nil {
		s.replyError(c, "failed to open chat")
		return
	}
	if _, err := s.Chat.Send(ch.ID, s.sender(c), req.Content); err != nil {
		s.replyError(c, "failed to send message")
	}
}
