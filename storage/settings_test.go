package storage

import (
	"context"
	"testing"

	"opsboard/domain"
)

func TestDecodeSettingsEntity(t *testing.T) {
	got, err := decodeSettingsEntity([]byte(`{"PartitionKey":"dashboard","RowKey":"dashboard","ShowDoneTasks":true}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.ShowDoneTasks {
		t.Fatalf("expected ShowDoneTasks true")
	}
	if _, err := decodeSettingsEntity([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMemorySettings(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySettings()

	s, err := m.FetchSettings(ctx, "dashboard")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if s.ShowDoneTasks {
		t.Fatalf("expected defaults")
	}
	if err := m.SaveSettings(ctx, "dashboard", domain.Settings{ShowDoneTasks: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, _ = m.FetchSettings(ctx, "dashboard")
	if !s.ShowDoneTasks {
		t.Fatalf("expected saved settings")
	}
	other, _ := m.FetchSettings(ctx, "someone-else")
	if other.ShowDoneTasks {
		t.Fatalf("settings must be per user")
	}
}
