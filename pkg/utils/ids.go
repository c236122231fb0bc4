package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns an opaque unique identifier for durable rows
// (notifications, reports, alerts, chats, messages, tickets).
func NewID() string {
	return uuid.NewString()
}

// NewConnID returns an identifier for a live connection. Connection ids are
// ephemeral and only need to be unique within one process lifetime.
func NewConnID() string {
	return "conn-" + uuid.NewString()
}

// NewTicketNumber returns a short human-quotable ticket reference like
// CIV-20260829-3F9A2C1B. The suffix is derived from a fresh uuid.
func NewTicketNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "CIV-" + time.Now().UTC().Format("20060102") + "-" + suffix
}
