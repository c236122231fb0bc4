package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"civicdesk/pkg/api"
	"civicdesk/pkg/api/handlers"
	"civicdesk/pkg/auth"
	"civicdesk/pkg/chat"
	"civicdesk/pkg/models"
	"civicdesk/pkg/notify"
	"civicdesk/pkg/store"
)

const testSecret = "api-test-secret"

// recordingPush captures unread re-emits triggered by REST mutations.
type recordingPush struct {
	mu      sync.Mutex
	unreads []int
}

func (p *recordingPush) NotifyCreated(models.Notification) {}

func (p *recordingPush) UnreadChanged(userID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unreads = append(p.unreads, userID)
}

func (p *recordingPush) unreadPushes() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.unreads...)
}

// setupAPI starts the REST surface behind the real auth middleware.
func setupAPI(t *testing.T) *httptest.Server {
	t.Helper()
	return setupAPIWithPush(t, nil)
}

func setupAPIWithPush(t *testing.T, push notify.PushGateway) *httptest.Server {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine := notify.New(push, nil)
	cm := chat.NewManager(engine, nil)
	handlers.Init(engine, cm, nil, testSecret)

	mw := auth.AuthenticateRequestMiddleware(auth.SecConfig{
		JWTSecret: testSecret,
		RPS:       1000,
		Burst:     1000,
	})
	srv := httptest.NewServer(mw(api.Handler()))
	t.Cleanup(srv.Close)
	return srv
}

func tokenFor(t *testing.T, id int, role string) string {
	t.Helper()
	tok, err := auth.IssueToken(testSecret, auth.Principal{ID: id, Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return tok
}

// call performs a JSON request and decodes the response body into a map.
func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: bad json %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func seedUser(t *testing.T, id int, role string) models.User {
	t.Helper()
	u := models.User{
		ID: id, FirstName: "Test", LastName: fmt.Sprintf("User%d", id),
		Email: fmt.Sprintf("u%d@example.org", id), Role: role,
		IsAdmin: role == auth.RoleAdmin,
	}
	saved, err := store.SaveUser(u)
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	return saved
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv := setupAPI(t)
	status, _ := call(t, srv, http.MethodGet, "/v1/notifications", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	status, _ = call(t, srv, http.MethodGet, "/v1/notifications", "garbage-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}
}

func TestRegisterUserFlow(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 1, auth.RoleAdmin)

	// registration is public and returns a usable token
	status, body := call(t, srv, http.MethodPost, "/v1/users/register", "", map[string]any{
		"id": 5, "first_name": "Sam", "last_name": "Lee", "email": "sam@example.org",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", status, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("expected a token, got %v", body)
	}
	status, body = call(t, srv, http.MethodGet, "/v1/notifications/unread-count", token, nil)
	if status != http.StatusOK {
		t.Fatalf("token should authenticate, got %d: %v", status, body)
	}

	// duplicate id conflicts
	status, _ = call(t, srv, http.MethodPost, "/v1/users/register", "", map[string]any{
		"id": 5, "email": "sam@example.org",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	// invalid email rejected
	status, _ = call(t, srv, http.MethodPost, "/v1/users/register", "", map[string]any{
		"id": 6, "email": "nope",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	// the seeded admin got a new-user notification
	adminTok := tokenFor(t, 1, auth.RoleAdmin)
	status, body = call(t, srv, http.MethodGet, "/v1/notifications/unread-count", adminTok, nil)
	if status != http.StatusOK || body["unread_count"].(float64) != 1 {
		t.Fatalf("expected admin unread 1, got %d: %v", status, body)
	}
}

func TestNotificationListShapeAndPaging(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 5, auth.RoleUser)
	tok := tokenFor(t, 5, auth.RoleUser)
	for i := 0; i < 25; i++ {
		if _, err := store.CreateNotification(models.Notification{
			UserID: 5, Type: models.NotificationMessage, Title: fmt.Sprintf("n%d", i),
		}); err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}

	status, body := call(t, srv, http.MethodGet, "/v1/notifications?per_page=10&page=2", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	if body["total"].(float64) != 25 || body["pages"].(float64) != 3 || body["current_page"].(float64) != 2 {
		t.Fatalf("unexpected paging fields: %v", body)
	}
	if n := len(body["notifications"].([]any)); n != 10 {
		t.Fatalf("expected 10 rows, got %d", n)
	}
	if body["unread_count"].(float64) != 25 {
		t.Fatalf("unexpected unread_count: %v", body["unread_count"])
	}

	// read-all then delete read
	status, body = call(t, srv, http.MethodPost, "/v1/notifications/read-all", tok, nil)
	if status != http.StatusOK || body["count"].(float64) != 25 {
		t.Fatalf("read-all: %d %v", status, body)
	}
	status, body = call(t, srv, http.MethodDelete, "/v1/notifications/read", tok, nil)
	if status != http.StatusOK || body["deleted"].(float64) != 25 {
		t.Fatalf("delete read: %d %v", status, body)
	}
}

func TestNotificationOwnershipOverREST(t *testing.T) {
	srv := setupAPI(t)
	n, err := store.CreateNotification(models.Notification{
		UserID: 5, Type: models.NotificationMessage, Title: "mine",
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	other := tokenFor(t, 6, auth.RoleUser)
	status, _ := call(t, srv, http.MethodPost, "/v1/notifications/"+n.ID+"/read", other, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	owner := tokenFor(t, 5, auth.RoleUser)
	status, _ = call(t, srv, http.MethodPost, "/v1/notifications/"+n.ID+"/read", owner, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	status, _ = call(t, srv, http.MethodPost, "/v1/notifications/missing/read", owner, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	srv := setupAPI(t)
	user := tokenFor(t, 5, auth.RoleUser)
	status, _ := call(t, srv, http.MethodGet, "/v1/admin/notifications", user, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	admin := tokenFor(t, 1, auth.RoleAdmin)
	status, _ = call(t, srv, http.MethodGet, "/v1/admin/notifications", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	// unknown type filter is a client error
	status, body := call(t, srv, http.MethodGet, "/v1/admin/notifications?type=bogus", admin, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", status, body)
	}
}

func TestSendAlertEndpoint(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 1, auth.RoleAdmin)
	seedUser(t, 5, auth.RoleUser)
	seedUser(t, 6, auth.RoleUser)
	admin := tokenFor(t, 1, auth.RoleAdmin)

	// broadcast to everyone
	status, body := call(t, srv, http.MethodPost, "/v1/admin/notifications/send-alert", admin, map[string]any{
		"title": "Boil water advisory", "message": "until friday",
	})
	if status != http.StatusOK || body["notifications_sent"].(float64) != 2 {
		t.Fatalf("broadcast: %d %v", status, body)
	}

	// explicit subset
	status, body = call(t, srv, http.MethodPost, "/v1/admin/notifications/send-alert", admin, map[string]any{
		"title": "Targeted notice", "user_ids": []int{5},
	})
	if status != http.StatusOK || body["notifications_sent"].(float64) != 1 {
		t.Fatalf("subset: %d %v", status, body)
	}

	// title is mandatory
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/notifications/send-alert", admin, map[string]any{
		"message": "no title",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	status, body = call(t, srv, http.MethodGet, "/v1/notifications", tokenFor(t, 5, auth.RoleUser), nil)
	if status != http.StatusOK || body["total"].(float64) != 2 {
		t.Fatalf("user 5 should have 2 rows: %d %v", status, body)
	}
}

func TestChatRESTFlow(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 5, auth.RoleUser)
	seedUser(t, 1, auth.RoleAdmin)
	user := tokenFor(t, 5, auth.RoleUser)
	admin := tokenFor(t, 1, auth.RoleAdmin)
	stranger := tokenFor(t, 9, auth.RoleUser)

	status, body := call(t, srv, http.MethodPost, "/v1/chats", user, map[string]any{"title": "Streetlight"})
	if status != http.StatusCreated {
		t.Fatalf("create chat: %d %v", status, body)
	}
	chatID := body["id"].(string)

	status, body = call(t, srv, http.MethodPost, "/v1/chats/"+chatID+"/messages", user, map[string]any{"content": "still broken"})
	if status != http.StatusCreated {
		t.Fatalf("send message: %d %v", status, body)
	}

	// non-participants cannot read the chat
	status, _ = call(t, srv, http.MethodGet, "/v1/chats/"+chatID, stranger, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	status, body = call(t, srv, http.MethodGet, "/v1/chats/"+chatID, user, nil)
	if status != http.StatusOK {
		t.Fatalf("get chat: %d %v", status, body)
	}
	if n := len(body["messages"].([]any)); n != 1 {
		t.Fatalf("expected 1 message, got %d", n)
	}

	// admin reads, closes, and a send now conflicts
	status, body = call(t, srv, http.MethodPut, "/v1/chats/"+chatID+"/read", admin, nil)
	if status != http.StatusOK || body["marked_read"].(float64) != 1 {
		t.Fatalf("mark read: %d %v", status, body)
	}
	status, _ = call(t, srv, http.MethodPut, "/v1/chats/"+chatID+"/close", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("close: %d", status)
	}
	status, _ = call(t, srv, http.MethodPost, "/v1/chats/"+chatID+"/messages", user, map[string]any{"content": "hello?"})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on closed chat, got %d", status)
	}

	// reopen is staff only; reopening twice conflicts
	status, _ = call(t, srv, http.MethodPut, "/v1/chats/"+chatID+"/reopen", user, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	status, _ = call(t, srv, http.MethodPut, "/v1/chats/"+chatID+"/reopen", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("reopen: %d", status)
	}
	status, _ = call(t, srv, http.MethodPut, "/v1/chats/"+chatID+"/reopen", admin, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 on double reopen, got %d", status)
	}
}

func TestReportFlowOverREST(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 1, auth.RoleAdmin)
	seedUser(t, 5, auth.RoleUser)
	user := tokenFor(t, 5, auth.RoleUser)
	admin := tokenFor(t, 1, auth.RoleAdmin)

	status, body := call(t, srv, http.MethodPost, "/v1/reports", user, map[string]any{
		"title": "Fallen tree", "report_type": "hazard", "urgency": "high",
	})
	if status != http.StatusCreated {
		t.Fatalf("create report: %d %v", status, body)
	}
	reportID := body["id"].(string)

	// the admin got an urgent notification
	status, body = call(t, srv, http.MethodGet, "/v1/notifications?unread_only=true", admin, nil)
	if status != http.StatusOK || body["total"].(float64) != 1 {
		t.Fatalf("admin notifications: %d %v", status, body)
	}

	// non-owners may not read the report
	status, _ = call(t, srv, http.MethodGet, "/v1/reports/"+reportID, tokenFor(t, 9, auth.RoleUser), nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}

	// a status change notifies the owner
	status, _ = call(t, srv, http.MethodPut, "/v1/admin/reports/"+reportID+"/status", admin, map[string]any{
		"status": "in_progress", "admin_notes": "crew dispatched",
	})
	if status != http.StatusOK {
		t.Fatalf("status update: %d", status)
	}
	status, body = call(t, srv, http.MethodGet, "/v1/notifications/unread-count", user, nil)
	if status != http.StatusOK || body["unread_count"].(float64) != 1 {
		t.Fatalf("owner unread: %d %v", status, body)
	}
}

func TestContactTicketLifecycle(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 1, auth.RoleAdmin)
	admin := tokenFor(t, 1, auth.RoleAdmin)

	// the contact form requires no auth
	status, body := call(t, srv, http.MethodPost, "/v1/contact", "", map[string]any{
		"name": "Dana", "email": "dana@example.org", "subject": "Streetlight", "message": "out since monday",
	})
	if status != http.StatusCreated {
		t.Fatalf("submit: %d %v", status, body)
	}
	if body["ticket_number"].(string) == "" {
		t.Fatalf("expected ticket number: %v", body)
	}

	status, body = call(t, srv, http.MethodGet, "/v1/admin/contact", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("list tickets: %d", status)
	}
	tickets := body["tickets"].([]any)
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}
	ticketID := tickets[0].(map[string]any)["id"].(string)

	// respond resolves; reopen flips it back
	status, body = call(t, srv, http.MethodPost, "/v1/admin/contact/"+ticketID+"/respond", admin, map[string]any{
		"response": "crew scheduled for tuesday",
	})
	if status != http.StatusOK || body["status"].(string) != models.TicketResolved {
		t.Fatalf("respond: %d %v", status, body)
	}
	status, body = call(t, srv, http.MethodPost, "/v1/admin/contact/"+ticketID+"/reopen", admin, map[string]any{
		"notes": "still dark",
	})
	if status != http.StatusOK || body["status"].(string) != models.TicketReopened {
		t.Fatalf("reopen: %d %v", status, body)
	}
	if body["reopen_count"].(float64) != 1 {
		t.Fatalf("reopen count: %v", body["reopen_count"])
	}
	// a second reopen without resolution is rejected
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/contact/"+ticketID+"/reopen", admin, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	// validation failures are client errors
	status, _ = call(t, srv, http.MethodPost, "/v1/contact", "", map[string]any{
		"name": "Dana", "email": "bad", "message": "x",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestAlertEndpoints(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 1, auth.RoleAdmin)
	seedUser(t, 5, auth.RoleUser)
	admin := tokenFor(t, 1, auth.RoleAdmin)
	user := tokenFor(t, 5, auth.RoleUser)

	status, body := call(t, srv, http.MethodPost, "/v1/admin/alerts", admin, map[string]any{
		"title": "Flood warning", "message": "river rising", "severity": "Critical", "type": "weather",
	})
	if status != http.StatusCreated {
		t.Fatalf("create alert: %d %v", status, body)
	}
	if body["notifications_sent"].(float64) != 1 {
		t.Fatalf("expected 1 notification, got %v", body)
	}

	status, body = call(t, srv, http.MethodGet, "/v1/alerts", user, nil)
	if status != http.StatusOK {
		t.Fatalf("list alerts: %d", status)
	}
	if n := len(body["alerts"].([]any)); n != 1 {
		t.Fatalf("expected 1 active alert, got %d", n)
	}

	// the citizen received an urgent emergency row
	status, body = call(t, srv, http.MethodGet, "/v1/notifications", user, nil)
	if status != http.StatusOK || body["total"].(float64) != 1 {
		t.Fatalf("citizen rows: %d %v", status, body)
	}
	row := body["notifications"].([]any)[0].(map[string]any)
	if row["type"].(string) != "emergency" || row["is_urgent"].(bool) != true {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestRestReadMutationsPushUnreadCount(t *testing.T) {
	push := &recordingPush{}
	srv := setupAPIWithPush(t, push)
	seedUser(t, 5, auth.RoleUser)
	tok := tokenFor(t, 5, auth.RoleUser)

	first, err := store.CreateNotification(models.Notification{
		UserID: 5, Type: models.NotificationMessage, Title: "a",
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	second, err := store.CreateNotification(models.Notification{
		UserID: 5, Type: models.NotificationMessage, Title: "b",
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	status, body := call(t, srv, http.MethodPost, "/v1/notifications/"+first.ID+"/read", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("mark read: %d %v", status, body)
	}
	if got := push.unreadPushes(); len(got) != 1 || got[0] != 5 {
		t.Fatalf("mark read should push the unread count, got %v", got)
	}

	status, _ = call(t, srv, http.MethodPost, "/v1/notifications/read-all", tok, nil)
	if status != http.StatusOK {
		t.Fatalf("mark all read: %d", status)
	}
	if got := push.unreadPushes(); len(got) != 2 {
		t.Fatalf("mark all read should push the unread count, got %v", got)
	}

	status, _ = call(t, srv, http.MethodDelete, "/v1/notifications/"+second.ID, tok, nil)
	if status != http.StatusOK {
		t.Fatalf("delete: %d", status)
	}
	if got := push.unreadPushes(); len(got) != 3 {
		t.Fatalf("delete should push the unread count, got %v", got)
	}

	// a failed mutation pushes nothing
	status, _ = call(t, srv, http.MethodPost, "/v1/notifications/missing/read", tok, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if got := push.unreadPushes(); len(got) != 3 {
		t.Fatalf("failed mutation must not push, got %v", got)
	}
}

func TestPublicRegistrationCannotMintAdmins(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 1, auth.RoleAdmin)
	adminTok := tokenFor(t, 1, auth.RoleAdmin)

	// a caller-supplied admin role is discarded on the public route
	status, body := call(t, srv, http.MethodPost, "/v1/users/register", "", map[string]any{
		"id": 9, "email": "mallory@example.org", "role": "admin", "is_admin": true,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", status, body)
	}
	created := body["user"].(map[string]any)
	if created["role"] != auth.RoleUser || created["is_admin"] != false {
		t.Fatalf("public registration must yield a citizen account: %v", created)
	}
	token := body["token"].(string)
	status, _ = call(t, srv, http.MethodGet, "/v1/admin/users", token, nil)
	if status != http.StatusForbidden {
		t.Fatalf("minted token must not open admin routes, got %d", status)
	}
	u, err := store.GetUser(9)
	if err != nil || u.IsAdmin || u.Role != auth.RoleUser {
		t.Fatalf("stored account must not be staff: %+v err=%v", u, err)
	}

	// staff create admin accounts behind the role check
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/users", adminTok, map[string]any{
		"id": 10, "email": "staff@example.org", "role": "admin",
	})
	if status != http.StatusCreated {
		t.Fatalf("admin creation by staff should work, got %d", status)
	}
	u, err = store.GetUser(10)
	if err != nil || !u.IsAdmin {
		t.Fatalf("staff-created admin should be stored as admin: %+v err=%v", u, err)
	}

	// citizens cannot reach the creation route
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/users", token, map[string]any{
		"id": 11, "email": "x@example.org", "role": "admin",
	})
	if status != http.StatusForbidden {
		t.Fatalf("citizen must not create accounts, got %d", status)
	}

	// unknown roles rejected
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/users", adminTok, map[string]any{
		"id": 12, "email": "y@example.org", "role": "superuser",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown role should be a 400, got %d", status)
	}
}

func TestFeedbackModerationFlow(t *testing.T) {
	srv := setupAPI(t)
	seedUser(t, 1, auth.RoleAdmin)
	seedUser(t, 5, auth.RoleUser)
	adminTok := tokenFor(t, 1, auth.RoleAdmin)
	userTok := tokenFor(t, 5, auth.RoleUser)

	// submission is public
	status, body := call(t, srv, http.MethodPost, "/v1/feedback", "", map[string]any{
		"name": "Visitor", "email": "v@example.org", "rating": 5, "message": "great service",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", status, body)
	}
	fb := body["feedback"].(map[string]any)
	id := fb["id"].(string)
	if fb["approved"] != false {
		t.Fatalf("new feedback must start unapproved: %v", fb)
	}

	// invalid rating rejected
	status, body = call(t, srv, http.MethodPost, "/v1/feedback", "", map[string]any{
		"name": "Visitor", "email": "v@example.org", "rating": 9, "message": "m",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", status, body)
	}

	// hidden until approved; the listing itself is public
	status, body = call(t, srv, http.MethodGet, "/v1/feedback/approved", "", nil)
	if status != http.StatusOK || len(body["feedbacks"].([]any)) != 0 {
		t.Fatalf("unapproved entry must stay hidden: %d %v", status, body)
	}

	// moderation is staff-only
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/feedback/"+id+"/approve", userTok, nil)
	if status != http.StatusForbidden {
		t.Fatalf("citizen approval should be 403, got %d", status)
	}
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/feedback/"+id+"/approve", adminTok, nil)
	if status != http.StatusOK {
		t.Fatalf("approve: %d", status)
	}
	status, body = call(t, srv, http.MethodGet, "/v1/feedback/approved", "", nil)
	if status != http.StatusOK || len(body["feedbacks"].([]any)) != 1 {
		t.Fatalf("approved entry should be listed: %d %v", status, body)
	}

	// rejection hides it again
	status, _ = call(t, srv, http.MethodPost, "/v1/admin/feedback/"+id+"/reject", adminTok, nil)
	if status != http.StatusOK {
		t.Fatalf("reject: %d", status)
	}
	status, body = call(t, srv, http.MethodGet, "/v1/feedback/approved", "", nil)
	if len(body["feedbacks"].([]any)) != 0 {
		t.Fatalf("rejected entry still listed: %v", body)
	}

	// staff see everything either way
	status, body = call(t, srv, http.MethodGet, "/v1/admin/feedback", adminTok, nil)
	if status != http.StatusOK || len(body["feedbacks"].([]any)) != 1 {
		t.Fatalf("admin listing: %d %v", status, body)
	}

	status, _ = call(t, srv, http.MethodPost, "/v1/admin/feedback/missing/approve", adminTok, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}
