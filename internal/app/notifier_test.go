package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

type settingsStub struct {
	enabled bool
}

func (s *settingsStub) MessagingEnabled() bool { return s.enabled }

type emailProviderStub struct {
	configured bool
	err        error
	calls      int
	lastTo     string
}

func (s *emailProviderStub) Configured() bool { return s.configured }

func (s *emailProviderStub) Send(ctx context.Context, to, subject, html string) error {
	s.calls++
	s.lastTo = to
	return s.err
}

type smtpStub struct {
	configured bool
	err        error
	calls      int
}

func (s *smtpStub) Configured() bool { return s.configured }

func (s *smtpStub) Send(to, subject, html string) error {
	s.calls++
	return s.err
}

type whatsAppStub struct {
	configured bool
	err        error
	calls      int
	lastBody   string
}

func (s *whatsAppStub) Configured() bool { return s.configured }

func (s *whatsAppStub) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	s.calls++
	s.lastBody = body
	if s.err != nil {
		return "", s.err
	}
	return "SM123", nil
}

type commLogStub struct {
	mu      sync.Mutex
	entries []domain.CommunicationLogEntry
}

func (s *commLogStub) InsertCommLogEntry(ctx context.Context, entry domain.CommunicationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *commLogStub) byChannel(channel domain.CommunicationChannel) []domain.CommunicationLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CommunicationLogEntry
	for _, e := range s.entries {
		if e.Channel == channel {
			out = append(out, e)
		}
	}
	return out
}

func issuedEvent() domain.InvoiceIssued {
	return domain.InvoiceIssued{
		PayerName:     "ACME Contabilidade LTDA",
		Amount:        domain.MoneyFromCents(50000),
		DueDate:       "2025-01-20",
		DigitableLine: "23791234567890900000000000005000000000",
		DocumentURL:   "http://localhost:8000/api/boleto/pdf/FAT-202501-plan-abc",
	}
}

func newTestDispatcher(settings *settingsStub, email *emailProviderStub, smtp *smtpStub, wa *whatsAppStub, log *commLogStub) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(settings, email, smtp, wa, log, logger)
}

func TestDispatch_KillSwitchSkipsEverything(t *testing.T) {
	email := &emailProviderStub{configured: true}
	wa := &whatsAppStub{configured: true}
	log := &commLogStub{}
	d := newTestDispatcher(&settingsStub{enabled: false}, email, &smtpStub{configured: true}, wa, log)
	defer d.Close()

	d.Dispatch(context.Background(), issuedEvent(), "financeiro@acme.com.br", "41999998888")

	if email.calls != 0 || wa.calls != 0 {
		t.Fatal("kill switch must prevent every send attempt")
	}
	if len(log.entries) != 0 {
		t.Fatalf("kill switch must leave no communication log entries, got %d", len(log.entries))
	}
}

func TestDispatch_EmailFallsBackToSMTP(t *testing.T) {
	email := &emailProviderStub{configured: true, err: errors.New("rate limited")}
	smtp := &smtpStub{configured: true}
	log := &commLogStub{}
	d := newTestDispatcher(&settingsStub{enabled: true}, email, smtp, &whatsAppStub{}, log)
	defer d.Close()

	d.Dispatch(context.Background(), issuedEvent(), "financeiro@acme.com.br", "")

	if email.calls != 1 || smtp.calls != 1 {
		t.Fatalf("expected provider then SMTP fallback, got provider=%d smtp=%d", email.calls, smtp.calls)
	}
	entries := log.byChannel(domain.ChannelEmail)
	if len(entries) != 1 {
		t.Fatalf("expected 1 email log entry, got %d", len(entries))
	}
	if entries[0].Status != domain.CommStatusSent {
		t.Errorf("fallback success must be logged as sent, got %q", entries[0].Status)
	}
	if entries[0].ErrorMessage != "" {
		t.Errorf("successful fallback must clear the provider error, got %q", entries[0].ErrorMessage)
	}
}

func TestDispatch_ChannelsAreIndependent(t *testing.T) {
	email := &emailProviderStub{configured: true, err: errors.New("provider down")}
	smtp := &smtpStub{configured: true, err: errors.New("smtp down")}
	wa := &whatsAppStub{configured: true}
	log := &commLogStub{}
	d := newTestDispatcher(&settingsStub{enabled: true}, email, smtp, wa, log)
	defer d.Close()

	d.Dispatch(context.Background(), issuedEvent(), "financeiro@acme.com.br", "41999998888")

	emailEntries := log.byChannel(domain.ChannelEmail)
	if len(emailEntries) != 1 || emailEntries[0].Status != domain.CommStatusFailed {
		t.Fatalf("expected a failed email entry, got %+v", emailEntries)
	}
	if emailEntries[0].ErrorMessage == "" {
		t.Error("failed email entry must carry the error message")
	}

	waEntries := log.byChannel(domain.ChannelWhatsApp)
	if len(waEntries) != 1 || waEntries[0].Status != domain.CommStatusSent {
		t.Fatalf("email failure must not block whatsapp, got %+v", waEntries)
	}
	if !strings.Contains(wa.lastBody, "ACME Contabilidade LTDA") {
		t.Errorf("whatsapp body must mention the payer, got %q", wa.lastBody)
	}
}

func TestDispatch_NoEmailProviderConfigured(t *testing.T) {
	log := &commLogStub{}
	d := newTestDispatcher(&settingsStub{enabled: true}, &emailProviderStub{}, &smtpStub{}, &whatsAppStub{}, log)
	defer d.Close()

	d.Dispatch(context.Background(), issuedEvent(), "financeiro@acme.com.br", "")

	entries := log.byChannel(domain.ChannelEmail)
	if len(entries) != 1 {
		t.Fatalf("expected 1 email log entry, got %d", len(entries))
	}
	if entries[0].Status != domain.CommStatusFailed {
		t.Errorf("missing provider must be logged as failed, got %q", entries[0].Status)
	}
	if !strings.Contains(entries[0].ErrorMessage, "no email provider") {
		t.Errorf("unexpected error message %q", entries[0].ErrorMessage)
	}
}

func TestDispatch_WhatsAppSkippedWhenUnconfigured(t *testing.T) {
	wa := &whatsAppStub{configured: false}
	log := &commLogStub{}
	d := newTestDispatcher(&settingsStub{enabled: true}, &emailProviderStub{configured: true}, &smtpStub{}, wa, log)
	defer d.Close()

	d.Dispatch(context.Background(), issuedEvent(), "", "41999998888")

	if wa.calls != 0 {
		t.Fatal("unconfigured whatsapp sender must not be called")
	}
	if len(log.byChannel(domain.ChannelWhatsApp)) != 0 {
		t.Fatal("skipped channel must leave no log entry")
	}
}

func TestDispatchAsync_WaitDrainsQueue(t *testing.T) {
	email := &emailProviderStub{configured: true}
	log := &commLogStub{}
	d := newTestDispatcher(&settingsStub{enabled: true}, email, &smtpStub{}, &whatsAppStub{}, log)
	defer d.Close()

	for i := 0; i < 10; i++ {
		d.DispatchAsync(issuedEvent(), "financeiro@acme.com.br", "")
	}
	d.Wait()

	entries := log.byChannel(domain.ChannelEmail)
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries after Wait, got %d", len(entries))
	}
}
