package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicdesk/pkg/config"
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

func seedExpired(t *testing.T, n int) []string {
	t.Helper()
	now := time.Now().UTC()
	var ids []string
	for i := 0; i < n; i++ {
		created, err := store.CreateNotification(models.Notification{
			UserID: 1, Type: models.NotificationMessage, Title: "stale",
			CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
		ids = append(ids, created.ID)
	}
	return ids
}

func TestRunOncePurgesExpired(t *testing.T) {
	openStore(t)
	stale := seedExpired(t, 5)
	live, err := store.CreateNotification(models.Notification{
		UserID: 1, Type: models.NotificationMessage, Title: "fresh",
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	// a small batch size forces multiple passes
	cfg := config.RetentionConfig{Enabled: true, BatchSize: 2}
	if err := RunOnce(context.Background(), cfg); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	for _, id := range stale {
		if _, err := store.GetNotification(id); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected %s purged, got %v", id, err)
		}
	}
	if _, err := store.GetNotification(live.ID); err != nil {
		t.Fatalf("live row must survive: %v", err)
	}
}

func TestRunOnceDryRunDeletesNothing(t *testing.T) {
	openStore(t)
	stale := seedExpired(t, 3)

	cfg := config.RetentionConfig{Enabled: true, BatchSize: 100, DryRun: true}
	if err := RunOnce(context.Background(), cfg); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	for _, id := range stale {
		if _, err := store.GetNotification(id); err != nil {
			t.Fatalf("dry run must keep %s: %v", id, err)
		}
	}
}

func TestRunOnceHonorsContext(t *testing.T) {
	openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := config.RetentionConfig{Enabled: true, BatchSize: 10}
	if err := RunOnce(ctx, cfg); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStartValidatesCron(t *testing.T) {
	openStore(t)
	if _, err := Start(context.Background(), config.RetentionConfig{Enabled: true, Cron: "not a cron"}); err == nil {
		t.Fatalf("expected error for invalid cron")
	}

	cancel, err := Start(context.Background(), config.RetentionConfig{Enabled: true, Cron: "0 2 * * *"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
}

func TestStartDisabledIsNoOp(t *testing.T) {
	cancel, err := Start(context.Background(), config.RetentionConfig{})
	if err != nil {
		t.Fatalf("Start disabled: %v", err)
	}
	cancel()
}
