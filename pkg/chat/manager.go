package chat

import (
	"errors"
	"strings"

	"civicdesk/pkg/logger"
	"civicdesk/pkg/models"
	"civicdesk/pkg/notify"
	"civicdesk/pkg/store"
	"civicdesk/pkg/validation"
)

var (
	// ErrForbidden is returned when the caller is not a chat participant.
	ErrForbidden = errors.New("chat: not a participant")
	// ErrClosed is returned for sends on a closed chat.
	ErrClosed = errors.New("chat: chat is closed")
	// ErrAlreadyOpen is returned when reopening a chat that is not closed.
	ErrAlreadyOpen = errors.New("chat: chat is already open")
)

// EventSink delivers room-scoped realtime events. The websocket hub
// implements it; a nil sink disables live delivery.
type EventSink interface {
	EmitRoom(room, event string, data any)
}

// Manager owns the chat session lifecycle and the message path. Every
// send runs participant and state checks before anything is stored.
type Manager struct {
	Engine *notify.Engine
	Events EventSink
}

func NewManager(engine *notify.Engine, events EventSink) *Manager {
	return &Manager{Engine: engine, Events: events}
}

// participant reports whether the user may act on the chat.
func participant(c models.Chat, userID int, admin bool) bool {
	return admin || c.UserID == userID
}

// Create opens a new support chat for the given user.
func (m *Manager) Create(userID int, title string) (models.Chat, error) {
	if strings.TrimSpace(title) == "" {
		title = "Support Chat"
	}
	return store.SaveChat(models.Chat{
		UserID:   userID,
		Title:    title,
		Status:   models.ChatOpen,
		IsActive: true,
	})
}

// FindOrCreate returns the user's open chat, creating one when absent.
// Used by the admin direct-message path.
func (m *Manager) FindOrCreate(userID int, adminID int) (models.Chat, error) {
	c, err := store.FindOpenChat(userID)
	if err == nil {
		if c.AdminID == 0 && adminID != 0 {
			c.AdminID = adminID
			return store.SaveChat(c)
		}
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.Chat{}, err
	}
	return store.SaveChat(models.Chat{
		UserID:   userID,
		AdminID:  adminID,
		Title:    "Support Chat",
		Status:   models.ChatOpen,
		IsActive: true,
	})
}

// Send persists a message on an open chat and notifies the other side.
// Non-participants get ErrForbidden; closed chats reject with ErrClosed.
func (m *Manager) Send(chatID string, sender models.User, content string) (models.ChatMessage, error) {
	c, err := store.GetChat(chatID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if !participant(c, sender.ID, sender.IsAdmin) {
		return models.ChatMessage{}, ErrForbidden
	}
	if c.Status != models.ChatOpen {
		return models.ChatMessage{}, ErrClosed
	}
	msg := models.ChatMessage{
		ChatID:   c.ID,
		SenderID: sender.ID,
		Content:  content,
		IsAdmin:  sender.IsAdmin,
	}
	if err := validation.ValidateChatMessage(msg); err != nil {
		return models.ChatMessage{}, err
	}
	msg, err = store.AppendChatMessage(msg)
	if err != nil {
		return models.ChatMessage{}, err
	}
	logger.Info("chat_message_sent", "chat_id", c.ID, "sender_id", sender.ID, "is_admin", sender.IsAdmin)

	if m.Events != nil {
		m.Events.EmitRoom("chat_"+c.ID, "new_message", msg)
	}
	if m.Engine != nil {
		recipient := m.otherParticipant(c, sender)
		m.Engine.ChatMessageSent(c, msg, sender, recipient)
	}
	return msg, nil
}

// otherParticipant resolves who should be notified about a send. Admin
// sends go to the owning user; user sends go to the assigned admin, or
// to nobody in particular when unassigned (the admin room push covers it).
func (m *Manager) otherParticipant(c models.Chat, sender models.User) int {
	if sender.IsAdmin {
		return c.UserID
	}
	return c.AdminID
}

// MarkRead flips unread messages from the other side and returns the count.
func (m *Manager) MarkRead(chatID string, reader models.User) (int, error) {
	c, err := store.GetChat(chatID)
	if err != nil {
		return 0, err
	}
	if !participant(c, reader.ID, reader.IsAdmin) {
		return 0, ErrForbidden
	}
	return store.MarkChatMessagesRead(chatID, reader.IsAdmin)
}

// UnreadCount returns unread messages authored by the other side.
func (m *Manager) UnreadCount(chatID string, forAdmin bool) (int, error) {
	return store.ChatUnreadCount(chatID, forAdmin)
}

// Close ends a chat. Both sides may close; closing an already closed
// chat is a no-op.
func (m *Manager) Close(chatID string, actor models.User) (models.Chat, error) {
	c, err := store.GetChat(chatID)
	if err != nil {
		return c, err
	}
	if !participant(c, actor.ID, actor.IsAdmin) {
		return c, ErrForbidden
	}
	if c.Status == models.ChatClosed {
		return c, nil
	}
	c.Status = models.ChatClosed
	c, err = store.SaveChat(c)
	if err != nil {
		return c, err
	}
	logger.Info("chat_closed", "chat_id", c.ID, "actor_id", actor.ID)
	if m.Events != nil {
		m.Events.EmitRoom("chat_"+c.ID, "chat_closed", map[string]any{"chat_id": c.ID})
	}
	return c, nil
}

// Reopen puts a closed chat back in service. Admin only; reopening an
// open chat is a conflict.
func (m *Manager) Reopen(chatID string, actor models.User) (models.Chat, error) {
	if !actor.IsAdmin {
		return models.Chat{}, ErrForbidden
	}
	c, err := store.GetChat(chatID)
	if err != nil {
		return c, err
	}
	if c.Status == models.ChatOpen {
		return c, ErrAlreadyOpen
	}
	c.Status = models.ChatOpen
	if c.AdminID == 0 {
		c.AdminID = actor.ID
	}
	c, err = store.SaveChat(c)
	if err != nil {
		return c, err
	}
	logger.Info("chat_reopened", "chat_id", c.ID, "actor_id", actor.ID)
	if m.Events != nil {
		m.Events.EmitRoom("chat_"+c.ID, "chat_reopened", map[string]any{"chat_id": c.ID})
	}
	return c, nil
}
