package realtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"civicdesk/pkg/auth"
	"civicdesk/pkg/store"
)

// ErrJoinDenied is returned when a principal may not enter a room.
var ErrJoinDenied = errors.New("realtime: join denied")

// Registry tracks which connections are in which rooms. Reads during
// push fan-out copy a snapshot so emit never holds the lock across
// channel sends.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
	conns map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]struct{}),
		conns: make(map[string]map[string]struct{}),
	}
}

// Join records membership. Callers must authorize first; Join itself
// never rejects.
func (r *Registry) Join(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]struct{})
	}
	r.rooms[room][connID] = struct{}{}
	if r.conns[connID] == nil {
		r.conns[connID] = make(map[string]struct{})
	}
	r.conns[connID][room] = struct{}{}
}

// Leave removes one membership.
func (r *Registry) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.rooms[room]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.rooms, room)
		}
	}
	if m := r.conns[connID]; m != nil {
		delete(m, room)
		if len(m) == 0 {
			delete(r.conns, connID)
		}
	}
}

// MembersOf returns a snapshot copy of a room's connection IDs.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[room]
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// DropConnection removes the connection from every room it joined.
func (r *Registry) DropConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.conns[connID] {
		if m := r.rooms[room]; m != nil {
			delete(m, connID)
			if len(m) == 0 {
				delete(r.rooms, room)
			}
		}
	}
	delete(r.conns, connID)
}

// Rooms returns a snapshot of the connection's memberships.
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.conns[connID]))
	for room := range r.conns[connID] {
		out = append(out, room)
	}
	return out
}

// UserRoom and friends build the fixed room naming scheme.
func UserRoom(userID int) string          { return "user_" + strconv.Itoa(userID) }
func AdminPersonalRoom(userID int) string { return "admin_" + strconv.Itoa(userID) }
func NotificationsRoom(userID int) string { return "notifications_" + strconv.Itoa(userID) }
func ChatRoom(chatID string) string       { return "chat_" + chatID }
func ReportRoom(reportID string) string   { return "report_" + reportID }

// AdminRoom is the shared staff room.
const AdminRoom = "admin_room"

// Authorize decides whether a principal may join a room. Chat rooms need
// admin role or chat ownership; report rooms need admin role or report
// ownership; personal rooms need a matching principal ID.
func Authorize(p auth.Principal, room string) error {
	switch {
	case room == AdminRoom:
		if p.IsAdmin() {
			return nil
		}
	case strings.HasPrefix(room, "admin_"):
		if p.IsAdmin() && room == AdminPersonalRoom(p.ID) {
			return nil
		}
	case strings.HasPrefix(room, "user_"):
		if room == UserRoom(p.ID) {
			return nil
		}
	case strings.HasPrefix(room, "notifications_"):
		if room == NotificationsRoom(p.ID) {
			return nil
		}
	case strings.HasPrefix(room, "chat_"):
		if p.IsAdmin() {
			return nil
		}
		c, err := store.GetChat(strings.TrimPrefix(room, "chat_"))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrJoinDenied, room)
		}
		if c.UserID == p.ID {
			return nil
		}
	case strings.HasPrefix(room, "report_"):
		if p.IsAdmin() {
			return nil
		}
		rep, err := store.GetReport(strings.TrimPrefix(room, "report_"))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrJoinDenied, room)
		}
		if rep.UserID == p.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrJoinDenied, room)
}
