package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"civicdesk/pkg/models"
)

func userKey(id int) string {
	return fmt.Sprintf("user:id:%d", id)
}

// SaveUser writes a user record, assigning CreatedAt if unset.
func SaveUser(u models.User) (models.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(u)
	if err != nil {
		return u, fmt.Errorf("failed to marshal user: %w", err)
	}
	return u, setRaw(userKey(u.ID), data)
}

// GetUser loads a user by ID.
func GetUser(id int) (models.User, error) {
	var u models.User
	raw, err := getRaw(userKey(id))
	if err != nil {
		return u, err
	}
	if err := json.Unmarshal(raw, &u); err != nil {
		return u, fmt.Errorf("invalid user record: %w", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by ID.
func ListUsers() ([]models.User, error) {
	var out []models.User
	err := scanPrefix("user:id:", func(_ string, v []byte) bool {
		var u models.User
		if json.Unmarshal(v, &u) == nil {
			out = append(out, u)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListAdmins returns every user with the admin flag set.
func ListAdmins() ([]models.User, error) {
	users, err := ListUsers()
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range users {
		if u.IsAdmin {
			out = append(out, u)
		}
	}
	return out, nil
}

// ListNonAdmins returns every regular user.
func ListNonAdmins() ([]models.User, error) {
	users, err := ListUsers()
	if err != nil {
		return nil, err
	}
	var out []models.User
	for _, u := range users {
		if !u.IsAdmin {
			out = append(out, u)
		}
	}
	return out, nil
}
