package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"civicdesk/pkg/auth"
	"civicdesk/pkg/models"
	"civicdesk/pkg/store"
	"civicdesk/pkg/utils"
)

// tokenTTL is the lifetime of tokens issued at registration.
const tokenTTL = 24 * time.Hour

// RegisterUsers registers the public account route.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users/register", registerUser).Methods(http.MethodPost)
}

// RegisterAdminUsers registers the staff user routes. Staff accounts can
// only be created here, behind the admin role check.
func RegisterAdminUsers(r *mux.Router) {
	r.HandleFunc("/users", listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users", createUser).Methods(http.MethodPost)
}

// registerUser creates a citizen account, notifies staff and returns a
// bearer token for the new user. The route is public, so any
// caller-supplied role is discarded: self-registration never grants
// staff rights.
func registerUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	u.Role = auth.RoleUser
	u.IsAdmin = false
	u, status, err := saveNewUser(u)
	if err != nil {
		utils.JSONError(w, status, err.Error())
		return
	}
	engine.UserRegistered(u)
	token, err := auth.IssueToken(jwtSecret, auth.Principal{ID: u.ID, Role: u.Role}, tokenTTL)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{"user": u, "token": token})
}

// createUser lets staff create accounts with any role, including admin.
func createUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if u.Role == "" {
		u.Role = auth.RoleUser
	}
	if u.Role != auth.RoleUser && u.Role != auth.RoleAdmin {
		utils.JSONError(w, http.StatusBadRequest, "unknown role: "+u.Role)
		return
	}
	u.IsAdmin = u.Role == auth.RoleAdmin
	u, status, err := saveNewUser(u)
	if err != nil {
		utils.JSONError(w, status, err.Error())
		return
	}
	if !u.IsAdmin {
		engine.UserRegistered(u)
	}
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{"user": u})
}

// saveNewUser validates and persists a not-yet-existing account.
func saveNewUser(u models.User) (models.User, int, error) {
	if u.ID <= 0 {
		return u, http.StatusBadRequest, errors.New("id is required")
	}
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		return u, http.StatusBadRequest, errors.New("valid email is required")
	}
	if _, err := store.GetUser(u.ID); err == nil {
		return u, http.StatusConflict, errors.New("user already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return u, http.StatusInternalServerError, errors.New("failed to check user")
	}
	saved, err := store.SaveUser(u)
	if err != nil {
		return u, http.StatusInternalServerError, errors.New("failed to save user")
	}
	return saved, http.StatusCreated, nil
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"users": users})
}
