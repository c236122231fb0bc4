package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"civicdesk/pkg/models"
	"civicdesk/pkg/utils"
)

func alertKey(id string) string {
	return "alert:id:" + id
}

// SaveAlert writes an alert record, assigning ID and timestamps if unset.
func SaveAlert(a models.Alert) (models.Alert, error) {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = utils.NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = "active"
	}
	if a.StartDate.IsZero() {
		a.StartDate = now
	}
	data, err := json.Marshal(a)
	if err != nil {
		return a, fmt.Errorf("failed to marshal alert: %w", err)
	}
	return a, setRaw(alertKey(a.ID), data)
}

// GetAlert loads an alert by ID.
func GetAlert(id string) (models.Alert, error) {
	var a models.Alert
	raw, err := getRaw(alertKey(id))
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("invalid alert record: %w", err)
	}
	return a, nil
}

// ListAlerts returns alerts newest first. activeOnly filters to status
// "active" with an end date in the future or unset.
func ListAlerts(activeOnly bool) ([]models.Alert, error) {
	now := time.Now().UTC()
	var out []models.Alert
	err := scanPrefix("alert:id:", func(_ string, v []byte) bool {
		var a models.Alert
		if json.Unmarshal(v, &a) == nil {
			if activeOnly {
				if a.Status != "active" {
					return true
				}
				if !a.EndDate.IsZero() && a.EndDate.Before(now) {
					return true
				}
			}
			out = append(out, a)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
