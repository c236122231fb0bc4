package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"civicdesk/pkg/models"
	"civicdesk/pkg/utils"
)

// approvedFeedbackLimit caps the public listing at the highest rated
// entries.
const approvedFeedbackLimit = 3

func feedbackKey(id string) string {
	return "feedback:id:" + id
}

// SaveFeedback writes a feedback entry, assigning ID and CreatedAt if
// unset.
func SaveFeedback(f models.Feedback) (models.Feedback, error) {
	if f.ID == "" {
		f.ID = utils.NewID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(f)
	if err != nil {
		return f, fmt.Errorf("failed to marshal feedback: %w", err)
	}
	return f, setRaw(feedbackKey(f.ID), data)
}

// GetFeedback loads a feedback entry by ID.
func GetFeedback(id string) (models.Feedback, error) {
	var f models.Feedback
	raw, err := getRaw(feedbackKey(id))
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("invalid feedback record: %w", err)
	}
	return f, nil
}

// SetFeedbackApproval flips the approved flag on an entry.
func SetFeedbackApproval(id string, approved bool) (models.Feedback, error) {
	f, err := GetFeedback(id)
	if err != nil {
		return f, err
	}
	f.Approved = approved
	return SaveFeedback(f)
}

// ListFeedback returns every feedback entry newest first.
func ListFeedback() ([]models.Feedback, error) {
	out := make([]models.Feedback, 0)
	err := scanPrefix("feedback:id:", func(_ string, v []byte) bool {
		var f models.Feedback
		if json.Unmarshal(v, &f) == nil {
			out = append(out, f)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ApprovedFeedback returns the top approved entries, highest rated first
// with newest breaking ties.
func ApprovedFeedback() ([]models.Feedback, error) {
	all, err := ListFeedback()
	if err != nil {
		return nil, err
	}
	out := make([]models.Feedback, 0)
	for _, f := range all {
		if f.Approved {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > approvedFeedbackLimit {
		out = out[:approvedFeedbackLimit]
	}
	return out, nil
}
