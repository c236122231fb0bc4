package realtime

import (
	"errors"
	"sort"
	"testing"

	"civicdesk/pkg/auth"
	"civicdesk/pkg/models"
	"civicdesk/pkg/store"
)

func openStore(t *testing.T) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
}

func TestRegistryMembership(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "room_a")
	r.Join("c2", "room_a")
	r.Join("c1", "room_b")

	got := r.MembersOf("room_a")
	sort.Strings(got)
	if len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Fatalf("unexpected members: %v", got)
	}

	r.Leave("c2", "room_a")
	if m := r.MembersOf("room_a"); len(m) != 1 || m[0] != "c1" {
		t.Fatalf("expected only c1, got %v", m)
	}

	rooms := r.Rooms("c1")
	sort.Strings(rooms)
	if len(rooms) != 2 || rooms[0] != "room_a" || rooms[1] != "room_b" {
		t.Fatalf("unexpected rooms for c1: %v", rooms)
	}
}

func TestDropConnectionClearsEveryRoom(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "room_a")
	r.Join("c1", "room_b")
	r.Join("c2", "room_a")

	r.DropConnection("c1")
	if m := r.MembersOf("room_a"); len(m) != 1 || m[0] != "c2" {
		t.Fatalf("expected only c2 left, got %v", m)
	}
	if m := r.MembersOf("room_b"); len(m) != 0 {
		t.Fatalf("expected room_b empty, got %v", m)
	}
	if rooms := r.Rooms("c1"); len(rooms) != 0 {
		t.Fatalf("expected no rooms for dropped conn, got %v", rooms)
	}
}

func TestMembersOfReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "room_a")
	snap := r.MembersOf("room_a")
	r.Leave("c1", "room_a")
	if len(snap) != 1 {
		t.Fatalf("snapshot must survive later mutation, got %v", snap)
	}
}

func TestAuthorizePersonalRooms(t *testing.T) {
	user := auth.Principal{ID: 5, Role: auth.RoleUser}
	admin := auth.Principal{ID: 40, Role: auth.RoleAdmin}

	cases := []struct {
		p    auth.Principal
		room string
		ok   bool
	}{
		{user, UserRoom(5), true},
		{user, UserRoom(6), false},
		{user, NotificationsRoom(5), true},
		{user, NotificationsRoom(6), false},
		{user, AdminRoom, false},
		{user, AdminPersonalRoom(5), false},
		{admin, AdminRoom, true},
		{admin, AdminPersonalRoom(40), true},
		{admin, AdminPersonalRoom(41), false},
		{admin, NotificationsRoom(40), true},
	}
	for _, c := range cases {
		err := Authorize(c.p, c.room)
		if c.ok && err != nil {
			t.Fatalf("principal %d should join %s: %v", c.p.ID, c.room, err)
		}
		if !c.ok && !errors.Is(err, ErrJoinDenied) {
			t.Fatalf("principal %d joining %s: expected ErrJoinDenied, got %v", c.p.ID, c.room, err)
		}
	}
}

func TestAuthorizeChatAndReportRooms(t *testing.T) {
	openStore(t)
	c, err := store.SaveChat(models.Chat{UserID: 5, IsActive: true})
	if err != nil {
		t.Fatalf("SaveChat: %v", err)
	}
	rep, err := store.SaveReport(models.Report{UserID: 5, Title: "Pothole"})
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	owner := auth.Principal{ID: 5, Role: auth.RoleUser}
	stranger := auth.Principal{ID: 6, Role: auth.RoleUser}
	admin := auth.Principal{ID: 40, Role: auth.RoleAdmin}

	if err := Authorize(owner, ChatRoom(c.ID)); err != nil {
		t.Fatalf("owner chat join: %v", err)
	}
	if err := Authorize(admin, ChatRoom(c.ID)); err != nil {
		t.Fatalf("admin chat join: %v", err)
	}
	if err := Authorize(stranger, ChatRoom(c.ID)); !errors.Is(err, ErrJoinDenied) {
		t.Fatalf("stranger chat join: expected ErrJoinDenied, got %v", err)
	}
	if err := Authorize(stranger, ChatRoom("missing")); !errors.Is(err, ErrJoinDenied) {
		t.Fatalf("unknown chat join: expected ErrJoinDenied, got %v", err)
	}

	if err := Authorize(owner, ReportRoom(rep.ID)); err != nil {
		t.Fatalf("owner report join: %v", err)
	}
	if err := Authorize(stranger, ReportRoom(rep.ID)); !errors.Is(err, ErrJoinDenied) {
		t.Fatalf("stranger report join: expected ErrJoinDenied, got %v", err)
	}
}
