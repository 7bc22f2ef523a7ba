package twilioclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeWhatsAppNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"41999998888", "whatsapp:+5541999998888"},
		{"5541999998888", "whatsapp:+5541999998888"},
		{"(41) 99999-8888", "whatsapp:+5541999998888"},
		{"+55 41 99999-8888", "whatsapp:+5541999998888"},
		{"whatsapp:+5541999998888", "whatsapp:+5541999998888"},
	}
	for _, tc := range cases {
		if got := NormalizeWhatsAppNumber(tc.in); got != tc.want {
			t.Errorf("NormalizeWhatsAppNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConfigured(t *testing.T) {
	if NewClient("", "", "", "whatsapp:+14155238886").Configured() {
		t.Error("client without credentials must not report configured")
	}
	if !NewClient("", "AC123", "token", "whatsapp:+14155238886").Configured() {
		t.Error("client with credentials must report configured")
	}
}

func TestSendWhatsApp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Error("expected basic auth with account credentials")
		}
		if got := r.FormValue("To"); got != "whatsapp:+5541999998888" {
			t.Errorf("unexpected To %q", got)
		}
		if got := r.FormValue("From"); got != "whatsapp:+14155238886" {
			t.Errorf("unexpected From %q", got)
		}
		if got := r.FormValue("Body"); got == "" {
			t.Error("expected message body")
		}
		json.NewEncoder(w).Encode(map[string]any{"sid": "SM42"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "AC123", "token", "whatsapp:+14155238886")
	sid, err := client.SendWhatsApp(context.Background(), "41999998888", "Olá")
	if err != nil {
		t.Fatalf("SendWhatsApp returned error: %v", err)
	}
	if sid != "SM42" {
		t.Errorf("expected SID SM42, got %q", sid)
	}
}

func TestSendWhatsApp_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code": 21211}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, "AC123", "token", "whatsapp:+14155238886")
	if _, err := client.SendWhatsApp(context.Background(), "41999998888", "Olá"); err == nil {
		t.Fatal("expected error on API rejection")
	}
}
