package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/scrapscan-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	tests := []struct {
		project, kind, name, want string
	}{
		{"proj", "topics", "scrap-events", "projects/proj/topics/scrap-events"},
		{"proj", "topics", " projects/other/topics/x ", "projects/other/topics/x"},
		{"proj", "subscriptions", "scrap-sub", "projects/proj/subscriptions/scrap-sub"},
		{"proj", "topics", "", ""},
		{"", "topics", "scrap-events", ""},
	}
	for _, tt := range tests {
		if got := resourceName(tt.project, tt.kind, tt.name); got != tt.want {
			t.Fatalf("resourceName(%q,%q,%q) = %q, want %q", tt.project, tt.kind, tt.name, got, tt.want)
		}
	}
}

func TestNewClientRequiresConfig(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{ScrapTopic: "t"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
	if _, err := NewClient(context.Background(), config.GCPConfig{ProjectID: "p"}, config.PubSubConfig{}, nil); err != errTopicRequired {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("t") != nil {
		t.Fatal("expected nil publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}
