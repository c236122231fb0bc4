package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"civicdesk/pkg/models"
	"civicdesk/pkg/utils"
)

func reportKey(id string) string {
	return "report:id:" + id
}

// SaveReport writes a report record, assigning ID and timestamps if unset.
func SaveReport(r models.Report) (models.Report, error) {
	now := time.Now().UTC()
	if r.ID == "" {
		r.ID = utils.NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = "pending"
	}
	data, err := json.Marshal(r)
	if err != nil {
		return r, fmt.Errorf("failed to marshal report: %w", err)
	}
	return r, setRaw(reportKey(r.ID), data)
}

// GetReport loads a report by ID.
func GetReport(id string) (models.Report, error) {
	var r models.Report
	raw, err := getRaw(reportKey(id))
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("invalid report record: %w", err)
	}
	return r, nil
}

// ListReports returns reports newest first. userID 0 means all users.
func ListReports(userID int) ([]models.Report, error) {
	var out []models.Report
	err := scanPrefix("report:id:", func(_ string, v []byte) bool {
		var r models.Report
		if json.Unmarshal(v, &r) == nil {
			if userID == 0 || r.UserID == userID {
				out = append(out, r)
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
