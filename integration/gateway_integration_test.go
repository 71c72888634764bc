//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/nateberkopec/jobalert/internal/gateway"
	"github.com/nateberkopec/jobalert/internal/siteurl"
)

// The tests run against a live tracker. JOBALERT_URL points at it and
// JOBALERT_SESSION holds a logged-in session cookie.
func newLiveClient(t *testing.T) *gateway.Client {
	t.Helper()
	raw := os.Getenv("JOBALERT_URL")
	session := os.Getenv("JOBALERT_SESSION")
	if raw == "" || session == "" {
		t.Skip("JOBALERT_URL and JOBALERT_SESSION must be set")
	}

	site, err := siteurl.Parse(raw)
	if err != nil {
		t.Fatalf("invalid JOBALERT_URL: %v", err)
	}
	client, err := gateway.New(site, gateway.Options{Session: session, UserAgent: "jobalert-integration-tests"})
	if err != nil {
		t.Fatalf("gateway.New returned error: %v", err)
	}
	return client
}

func TestGatewayTriggerFetchAndMarkRead(t *testing.T) {
	client := newLiveClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	title := fmt.Sprintf("integration %d", time.Now().UnixNano())
	if err := client.TriggerTest(ctx, gateway.CategoryUrgent, title, "created by the integration suite"); err != nil {
		t.Fatalf("TriggerTest returned error: %v", err)
	}

	batch, err := client.FetchUnread(ctx, 100)
	if err != nil {
		t.Fatalf("FetchUnread returned error: %v", err)
	}
	if batch.UnreadCount < 1 {
		t.Fatalf("expected unread count >= 1, got %d", batch.UnreadCount)
	}

	var found *gateway.Item
	for i := range batch.Items {
		if batch.Items[i].Title == title {
			found = &batch.Items[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("test notification %q not among %d unread items", title, len(batch.Items))
	}
	if found.ID <= 0 {
		t.Fatalf("expected a positive id, got %d", found.ID)
	}
	if found.Category != gateway.CategoryUrgent {
		t.Fatalf("expected category urgent, got %q", found.Category)
	}

	if err := client.MarkRead(ctx, found.ID); err != nil {
		t.Fatalf("MarkRead returned error: %v", err)
	}

	after, err := client.FetchUnread(ctx, 100)
	if err != nil {
		t.Fatalf("FetchUnread returned error: %v", err)
	}
	for _, item := range after.Items {
		if item.ID == found.ID {
			t.Fatalf("notification %d still unread after MarkRead", found.ID)
		}
	}
}

func TestGatewayRejectsMissingSession(t *testing.T) {
	raw := os.Getenv("JOBALERT_URL")
	if raw == "" {
		t.Skip("JOBALERT_URL must be set")
	}
	site, err := siteurl.Parse(raw)
	if err != nil {
		t.Fatalf("invalid JOBALERT_URL: %v", err)
	}
	client, err := gateway.New(site, gateway.Options{})
	if err != nil {
		t.Fatalf("gateway.New returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := client.FetchUnread(ctx, 5); err == nil {
		t.Fatal("expected an error without a session cookie")
	}
}
