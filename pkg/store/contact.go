package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"civicdesk/pkg/models"
	"civicdesk/pkg/utils"
)

func contactKey(id string) string {
	return "contact:id:" + id
}

// SaveContactMessage writes a contact ticket, assigning ID, ticket number
// and timestamps if unset.
func SaveContactMessage(c models.ContactMessage) (models.ContactMessage, error) {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = utils.NewID()
	}
	if c.TicketNumber == "" {
		c.TicketNumber = utils.NewTicketNumber()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.TicketNew
	}
	if c.Priority == "" {
		c.Priority = models.PriorityNormal
	}
	data, err := json.Marshal(c)
	if err != nil {
		return c, fmt.Errorf("failed to marshal contact message: %w", err)
	}
	return c, setRaw(contactKey(c.ID), data)
}

// GetContactMessage loads a contact ticket by ID.
func GetContactMessage(id string) (models.ContactMessage, error) {
	var c models.ContactMessage
	raw, err := getRaw(contactKey(id))
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("invalid contact record: %w", err)
	}
	return c, nil
}

// ListContactMessages returns tickets newest first, optionally filtered
// by status.
func ListContactMessages(status string) ([]models.ContactMessage, error) {
	var out []models.ContactMessage
	err := scanPrefix("contact:id:", func(_ string, v []byte) bool {
		var c models.ContactMessage
		if json.Unmarshal(v, &c) == nil {
			if status == "" || c.Status == status {
				out = append(out, c)
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
