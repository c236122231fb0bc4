package handlers

import (
	"net/http"
	"strconv"

	"civicdesk/pkg/auth"
	"civicdesk/pkg/chat"
	"civicdesk/pkg/mailer"
	"civicdesk/pkg/models"
	"civicdesk/pkg/notify"
	"civicdesk/pkg/store"
	"civicdesk/pkg/utils"
)

// Shared handler dependencies, set once at startup.
var (
	engine    *notify.Engine
	chatMgr   *chat.Manager
	mail      *mailer.Mailer
	jwtSecret string
)

// Init wires the handler package dependencies.
func Init(e *notify.Engine, cm *chat.Manager, m *mailer.Mailer, secret string) {
	engine = e
	chatMgr = cm
	mail = m
	jwtSecret = secret
}

// principal pulls the authenticated caller, writing a 401 when absent.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
		return auth.Principal{}, false
	}
	return p, true
}

// currentUser resolves the caller's user record, falling back to a bare
// record built from the principal when the account row is missing.
func currentUser(p auth.Principal) models.User {
	u, err := store.GetUser(p.ID)
	if err != nil {
		return models.User{ID: p.ID, Role: p.Role, IsAdmin: p.IsAdmin()}
	}
	return u
}

// intQuery parses a query integer with a default and a floor of min.
func intQuery(r *http.Request, name string, def, min int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return def
	}
	return n
}
