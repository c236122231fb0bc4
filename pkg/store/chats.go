package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"civicdesk/pkg/logger"
	"civicdesk/pkg/models"
	"civicdesk/pkg/utils"
)

func chatKey(id string) string {
	return "chat:id:" + id
}

func chatMsgPrefix(chatID string) string {
	return "chat:msg:" + chatID + ":"
}

// SaveChat writes a chat record, assigning ID and timestamps if unset.
func SaveChat(c models.Chat) (models.Chat, error) {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.ChatOpen
	}
	data, err := json.Marshal(c)
	if err != nil {
		return c, fmt.Errorf("failed to marshal chat: %w", err)
	}
	return c, setRaw(chatKey(c.ID), data)
}

// GetChat loads a chat by ID.
func GetChat(id string) (models.Chat, error) {
	var c models.Chat
	raw, err := getRaw(chatKey(id))
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("invalid chat record: %w", err)
	}
	return c, nil
}

// ListChats returns chats, newest activity first. userID 0 means all;
// activeOnly hides archived chats.
func ListChats(userID int, activeOnly bool) ([]models.Chat, error) {
	var out []models.Chat
	err := scanPrefix("chat:id:", func(_ string, v []byte) bool {
		var c models.Chat
		if json.Unmarshal(v, &c) == nil {
			if userID != 0 && c.UserID != userID {
				return true
			}
			if activeOnly && !c.IsActive {
				return true
			}
			out = append(out, c)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// FindOpenChat returns the user's open active chat, or ErrNotFound.
func FindOpenChat(userID int) (models.Chat, error) {
	chats, err := ListChats(userID, true)
	if err != nil {
		return models.Chat{}, err
	}
	for _, c := range chats {
		if c.Status == models.ChatOpen {
			return c, nil
		}
	}
	return models.Chat{}, ErrNotFound
}

// AppendChatMessage stores a message under the chat's message prefix and
// bumps the chat's UpdatedAt so recent activity sorts first.
func AppendChatMessage(m models.ChatMessage) (models.ChatMessage, error) {
	c, err := GetChat(m.ChatID)
	if err != nil {
		return m, err
	}
	if m.ID == "" {
		m.ID = utils.NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.MessageType == "" {
		m.MessageType = "text"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return m, fmt.Errorf("failed to marshal chat message: %w", err)
	}
	b, err := newBatch()
	if err != nil {
		return m, err
	}
	defer b.Close()
	key := chatMsgPrefix(m.ChatID) + timeKey(m.CreatedAt)
	if err := b.Set([]byte(key), data, nil); err != nil {
		return m, err
	}
	c.UpdatedAt = m.CreatedAt
	cdata, err := json.Marshal(c)
	if err != nil {
		return m, fmt.Errorf("failed to marshal chat: %w", err)
	}
	if err := b.Set([]byte(chatKey(c.ID)), cdata, nil); err != nil {
		return m, err
	}
	if err := commitBatch(b); err != nil {
		logger.Error("chat_message_commit_failed", "chat_id", m.ChatID, "error", err)
		return m, err
	}
	return m, nil
}

// ListChatMessages returns a chat's messages in send order.
func ListChatMessages(chatID string) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	err := scanPrefix(chatMsgPrefix(chatID), func(_ string, v []byte) bool {
		var m models.ChatMessage
		if json.Unmarshal(v, &m) == nil {
			out = append(out, m)
		}
		return true
	})
	return out, err
}

// MarkChatMessagesRead flips unread messages from the other side to read.
// A reader never marks their own messages; readerIsAdmin selects which
// side counts as "other".
func MarkChatMessagesRead(chatID string, readerIsAdmin bool) (int, error) {
	type row struct {
		key string
		msg models.ChatMessage
	}
	var rows []row
	err := scanPrefix(chatMsgPrefix(chatID), func(k string, v []byte) bool {
		var m models.ChatMessage
		if json.Unmarshal(v, &m) == nil {
			if !m.IsRead && m.IsAdmin != readerIsAdmin {
				rows = append(rows, row{key: k, msg: m})
			}
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	b, err := newBatch()
	if err != nil {
		return 0, err
	}
	defer b.Close()
	for _, r := range rows {
		r.msg.IsRead = true
		data, err := json.Marshal(r.msg)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal chat message: %w", err)
		}
		if err := b.Set([]byte(r.key), data, nil); err != nil {
			return 0, err
		}
	}
	if err := commitBatch(b); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ChatUnreadCount counts unread messages sent by the other side.
func ChatUnreadCount(chatID string, forAdmin bool) (int, error) {
	count := 0
	err := scanPrefix(chatMsgPrefix(chatID), func(_ string, v []byte) bool {
		var m models.ChatMessage
		if json.Unmarshal(v, &m) == nil {
			if !m.IsRead && m.IsAdmin != forAdmin {
				count++
			}
		}
		return true
	})
	return count, err
}
