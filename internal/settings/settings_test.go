package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(filepath.Join(t.TempDir(), "data", "settings.json"))
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return s
}

func TestNewService_SeedsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "settings.json")
	s, err := NewService(path)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected settings file to be created: %v", err)
	}

	got := s.Get()
	if !got.MessagingEnabled || !got.RobotEnabled {
		t.Errorf("defaults must enable the robot and messaging, got %+v", got)
	}
	if got.WhatsAppProvider != "Twilio" {
		t.Errorf("unexpected default provider %q", got.WhatsAppProvider)
	}
}

func TestGet_CorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewService(path)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	if got := s.Get(); !got.MessagingEnabled {
		t.Error("corrupt file must fall back to defaults")
	}
}

func TestUpdate_MergesPartialDocument(t *testing.T) {
	s := newTestService(t)

	updated, err := s.Update(map[string]any{"mensagens_ativas": false})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.MessagingEnabled {
		t.Error("update must apply the partial value")
	}
	if !updated.RobotEnabled {
		t.Error("untouched keys must keep their value")
	}

	// The change must be visible to a fresh service over the same file.
	again, err := NewService(s.path)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	if again.Get().MessagingEnabled {
		t.Error("update must be persisted to disk")
	}
}

func TestMessagingEnabled_ReadsFreshPerCall(t *testing.T) {
	s := newTestService(t)

	if !s.MessagingEnabled() {
		t.Fatal("messaging must start enabled")
	}
	if _, err := s.Update(map[string]any{"mensagens_ativas": false}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if s.MessagingEnabled() {
		t.Fatal("kill switch must take effect on the next read")
	}
}

func TestUpdate_IgnoresUnknownKeys(t *testing.T) {
	s := newTestService(t)

	updated, err := s.Update(map[string]any{"chave_desconhecida": "x", "notificar_sucesso": true})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updated.NotifyOnSuccess {
		t.Error("known key in the same update must apply")
	}
}
