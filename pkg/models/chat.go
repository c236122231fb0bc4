package models

import "time"

// Chat status values. Messages are only accepted while a chat is open.
const (
	ChatOpen   = "open"
	ChatClosed = "closed"
)

// Chat is a support conversation between one citizen and the admin team.
type Chat struct {
	ID      string `json:"id"`
	UserID  int    `json:"user_id"`
	AdminID int    `json:"admin_id,omitempty"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	// IsActive hides archived chats from the admin chat list.
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is a single message inside a chat. IsAdmin is denormalized so
// unread counts can be computed per side without joining on users.
type ChatMessage struct {
	ID            string    `json:"id"`
	ChatID        string    `json:"chat_id"`
	SenderID      int       `json:"sender_id"`
	Content       string    `json:"content"`
	IsRead        bool      `json:"is_read"`
	IsAdmin       bool      `json:"is_admin"`
	MessageType   string    `json:"message_type"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
