package store

import (
	"testing"
	"time"

	"civicdesk/pkg/models"
)

func TestListAdminsSplitsByRole(t *testing.T) {
	openTestDB(t)
	users := []models.User{
		{ID: 1, FirstName: "Ana", Email: "ana@example.org"},
		{ID: 2, FirstName: "Bo", Email: "bo@example.org", IsAdmin: true},
		{ID: 3, FirstName: "Cy", Email: "cy@example.org"},
	}
	for _, u := range users {
		if _, err := SaveUser(u); err != nil {
			t.Fatalf("SaveUser: %v", err)
		}
	}
	admins, err := ListAdmins()
	if err != nil || len(admins) != 1 || admins[0].ID != 2 {
		t.Fatalf("ListAdmins: %+v %v", admins, err)
	}
	citizens, err := ListNonAdmins()
	if err != nil || len(citizens) != 2 {
		t.Fatalf("ListNonAdmins: %+v %v", citizens, err)
	}
	all, err := ListUsers()
	if err != nil || len(all) != 3 || all[0].ID != 1 || all[2].ID != 3 {
		t.Fatalf("ListUsers order: %+v %v", all, err)
	}
}

func TestSaveReportDefaults(t *testing.T) {
	openTestDB(t)
	r, err := SaveReport(models.Report{UserID: 4, Title: "Pothole", Urgency: models.UrgencyHigh})
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if r.ID == "" || r.Status != "pending" {
		t.Fatalf("unexpected defaults: %+v", r)
	}
	mine, err := ListReports(4)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListReports(4): %d (%v)", len(mine), err)
	}
	none, err := ListReports(5)
	if err != nil || len(none) != 0 {
		t.Fatalf("ListReports(5): %d (%v)", len(none), err)
	}
}

func TestListAlertsActiveOnly(t *testing.T) {
	openTestDB(t)
	now := time.Now().UTC()
	if _, err := SaveAlert(models.Alert{Title: "live", Severity: models.SeverityHigh}); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}
	if _, err := SaveAlert(models.Alert{Title: "ended", EndDate: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}
	if _, err := SaveAlert(models.Alert{Title: "resolved", Status: "resolved"}); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}

	active, err := ListAlerts(true)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(active) != 1 || active[0].Title != "live" {
		t.Fatalf("expected only the live alert, got %+v", active)
	}
	all, err := ListAlerts(false)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 alerts, got %d (%v)", len(all), err)
	}
}

func TestSaveContactMessageAssignsTicket(t *testing.T) {
	openTestDB(t)
	c, err := SaveContactMessage(models.ContactMessage{
		Name: "Dana", Email: "dana@example.org", Subject: "Streetlight", Message: "out since monday",
	})
	if err != nil {
		t.Fatalf("SaveContactMessage: %v", err)
	}
	if c.TicketNumber == "" {
		t.Fatalf("expected ticket number")
	}
	if c.Status != models.TicketNew || c.Priority != models.PriorityNormal {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	got, err := GetContactMessage(c.ID)
	if err != nil || got.TicketNumber != c.TicketNumber {
		t.Fatalf("GetContactMessage: %+v %v", got, err)
	}
	byStatus, err := ListContactMessages(models.TicketNew)
	if err != nil || len(byStatus) != 1 {
		t.Fatalf("ListContactMessages: %d (%v)", len(byStatus), err)
	}
}

func TestFeedbackApprovalAndListing(t *testing.T) {
	openTestDB(t)
	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i, rating := range []int{2, 5, 4, 5} {
		f, err := SaveFeedback(models.Feedback{
			Name: "Visitor", Email: "v@example.org", Rating: rating,
			Message: "msg", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveFeedback: %v", err)
		}
		if f.ID == "" {
			t.Fatalf("expected assigned id")
		}
		ids = append(ids, f.ID)
	}

	// nothing approved yet
	approved, err := ApprovedFeedback()
	if err != nil || len(approved) != 0 {
		t.Fatalf("expected no approved entries, got %d (%v)", len(approved), err)
	}

	for _, id := range ids {
		if _, err := SetFeedbackApproval(id, true); err != nil {
			t.Fatalf("SetFeedbackApproval: %v", err)
		}
	}
	approved, err = ApprovedFeedback()
	if err != nil {
		t.Fatalf("ApprovedFeedback: %v", err)
	}
	// top three: highest rating first, newest breaking the 5-5 tie
	if len(approved) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(approved))
	}
	if approved[0].ID != ids[3] || approved[1].ID != ids[1] || approved[2].ID != ids[2] {
		t.Fatalf("unexpected order: %v %v %v", approved[0].Rating, approved[1].Rating, approved[2].Rating)
	}

	// a rejection hides the entry again
	if _, err := SetFeedbackApproval(ids[3], false); err != nil {
		t.Fatalf("SetFeedbackApproval: %v", err)
	}
	approved, _ = ApprovedFeedback()
	for _, f := range approved {
		if f.ID == ids[3] {
			t.Fatalf("rejected entry still listed")
		}
	}

	if _, err := SetFeedbackApproval("missing", true); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all, err := ListFeedback()
	if err != nil || len(all) != 4 {
		t.Fatalf("ListFeedback: %d (%v)", len(all), err)
	}
	if !all[0].CreatedAt.After(all[3].CreatedAt) {
		t.Fatalf("expected newest first ordering")
	}
}
