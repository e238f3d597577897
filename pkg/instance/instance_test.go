package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("SCRAPSCAN_INSTANCE_ID", "maintenance-1")
	if got := GetID(); got != "maintenance-1" {
		t.Fatalf("expected env instance id, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("SCRAPSCAN_INSTANCE_ID", "")
	if got := GetID(); got == "" {
		t.Fatal("expected a non-empty fallback id")
	}
}
