package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

type monitorRepoStub struct {
	invoices []domain.Invoice
	updates  map[string]domain.BoletoStatus
}

func (s *monitorRepoStub) GetOpenInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return s.invoices, nil
}

func (s *monitorRepoStub) UpdateInvoiceStatus(ctx context.Context, invoiceID string, status domain.BoletoStatus, raw map[string]any) error {
	if s.updates == nil {
		s.updates = make(map[string]domain.BoletoStatus)
	}
	s.updates[invoiceID] = status
	return nil
}

type consultStub struct {
	statuses map[string]domain.BoletoStatus
	errs     map[string]error
	calls    int
}

func (s *consultStub) ConsultStatus(ctx context.Context, nossoNumero string) (domain.BoletoStatus, map[string]any, error) {
	s.calls++
	if err, ok := s.errs[nossoNumero]; ok {
		return domain.StatusError, nil, err
	}
	return s.statuses[nossoNumero], map[string]any{"cdSituacaoTitulo": "xx"}, nil
}

func newTestMonitor(repo *monitorRepoStub, gateway *consultStub, notifier *notifierStub, today string) *Monitor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := NewMonitor(repo, gateway, notifier, logger, 0, "http://localhost:8000")
	monitor.now = func() time.Time {
		t, _ := time.Parse("2006-01-02", today)
		return t
	}
	return monitor
}

func openInvoice(id, nossoNumero string, status domain.BoletoStatus, dueDate string) domain.Invoice {
	due, _ := time.Parse("2006-01-02", dueDate)
	return domain.Invoice{
		ID:          id,
		NossoNumero: nossoNumero,
		AmountCents: 50000,
		DueDate:     due,
		Status:      status,
		Payer:       domain.Payer{Name: "ACME Contabilidade LTDA"},
		NotifyEmail: "financeiro@acme.com.br",
		NotifyPhone: "41999998888",
	}
}

func TestMonitorOpenInvoices_PaidTransition(t *testing.T) {
	repo := &monitorRepoStub{invoices: []domain.Invoice{
		openInvoice("inv-1", "0000000001", domain.StatusIssued, "2025-01-20"),
	}}
	gateway := &consultStub{statuses: map[string]domain.BoletoStatus{"0000000001": domain.StatusPaid}}
	notifier := &notifierStub{}

	monitor := newTestMonitor(repo, gateway, notifier, "2025-01-15")
	transitioned, err := monitor.MonitorOpenInvoices(context.Background())
	if err != nil {
		t.Fatalf("MonitorOpenInvoices returned error: %v", err)
	}
	if transitioned != 1 {
		t.Fatalf("expected 1 transition, got %d", transitioned)
	}
	if repo.updates["inv-1"] != domain.StatusPaid {
		t.Errorf("expected status pago, got %q", repo.updates["inv-1"])
	}
	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.events))
	}
	if _, ok := notifier.events[0].(domain.InvoicePaid); !ok {
		t.Errorf("expected InvoicePaid event, got %T", notifier.events[0])
	}
}

func TestMonitorOpenInvoices_OverdueOnlyAfterDueDate(t *testing.T) {
	repo := &monitorRepoStub{invoices: []domain.Invoice{
		openInvoice("inv-late", "0000000001", domain.StatusIssued, "2025-01-10"),
		openInvoice("inv-current", "0000000002", domain.StatusIssued, "2025-01-20"),
	}}
	gateway := &consultStub{statuses: map[string]domain.BoletoStatus{
		"0000000001": domain.StatusIssued,
		"0000000002": domain.StatusIssued,
	}}
	notifier := &notifierStub{}

	monitor := newTestMonitor(repo, gateway, notifier, "2025-01-15")
	transitioned, err := monitor.MonitorOpenInvoices(context.Background())
	if err != nil {
		t.Fatalf("MonitorOpenInvoices returned error: %v", err)
	}
	if transitioned != 1 {
		t.Fatalf("expected only the past-due boleto to transition, got %d", transitioned)
	}
	if repo.updates["inv-late"] != domain.StatusOverdue {
		t.Errorf("expected inv-late to become atraso, got %q", repo.updates["inv-late"])
	}
	if _, ok := repo.updates["inv-current"]; ok {
		t.Error("boleto within its due date must not transition")
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.events))
	}
	overdue, ok := notifier.events[0].(domain.InvoiceOverdue)
	if !ok {
		t.Fatalf("expected InvoiceOverdue event, got %T", notifier.events[0])
	}
	if overdue.DigitableLine == "" && repo.invoices[0].DigitableLine != "" {
		t.Error("overdue notification must carry the digitable line")
	}
}

func TestMonitorOpenInvoices_OverdueNotRepeated(t *testing.T) {
	repo := &monitorRepoStub{invoices: []domain.Invoice{
		openInvoice("inv-1", "0000000001", domain.StatusOverdue, "2025-01-10"),
	}}
	gateway := &consultStub{statuses: map[string]domain.BoletoStatus{"0000000001": domain.StatusIssued}}
	notifier := &notifierStub{}

	monitor := newTestMonitor(repo, gateway, notifier, "2025-01-15")
	transitioned, err := monitor.MonitorOpenInvoices(context.Background())
	if err != nil {
		t.Fatalf("MonitorOpenInvoices returned error: %v", err)
	}
	if transitioned != 0 {
		t.Fatalf("already-overdue boleto must not transition again, got %d", transitioned)
	}
	if len(notifier.events) != 0 {
		t.Fatal("no repeated overdue notification expected")
	}
}

func TestMonitorOpenInvoices_ReturnedWithoutNotification(t *testing.T) {
	repo := &monitorRepoStub{invoices: []domain.Invoice{
		openInvoice("inv-1", "0000000001", domain.StatusIssued, "2025-01-20"),
	}}
	gateway := &consultStub{statuses: map[string]domain.BoletoStatus{"0000000001": domain.StatusReturned}}
	notifier := &notifierStub{}

	monitor := newTestMonitor(repo, gateway, notifier, "2025-01-15")
	transitioned, err := monitor.MonitorOpenInvoices(context.Background())
	if err != nil {
		t.Fatalf("MonitorOpenInvoices returned error: %v", err)
	}
	if transitioned != 1 {
		t.Fatalf("expected 1 transition, got %d", transitioned)
	}
	if repo.updates["inv-1"] != domain.StatusReturned {
		t.Errorf("expected baixado, got %q", repo.updates["inv-1"])
	}
	if len(notifier.events) != 0 {
		t.Fatal("returned boletos must not notify")
	}
}

func TestMonitorOpenInvoices_ConsultErrorContainedPerBoleto(t *testing.T) {
	repo := &monitorRepoStub{invoices: []domain.Invoice{
		openInvoice("inv-bad", "0000000001", domain.StatusIssued, "2025-01-20"),
		openInvoice("inv-good", "0000000002", domain.StatusIssued, "2025-01-20"),
	}}
	gateway := &consultStub{
		statuses: map[string]domain.BoletoStatus{"0000000002": domain.StatusPaid},
		errs:     map[string]error{"0000000001": errors.New("connection reset")},
	}
	notifier := &notifierStub{}

	monitor := newTestMonitor(repo, gateway, notifier, "2025-01-15")
	transitioned, err := monitor.MonitorOpenInvoices(context.Background())
	if err != nil {
		t.Fatalf("one failing consult must not fail the pass: %v", err)
	}
	if transitioned != 1 {
		t.Fatalf("expected the healthy boleto to transition, got %d", transitioned)
	}
	if repo.updates["inv-good"] != domain.StatusPaid {
		t.Errorf("expected inv-good to become pago, got %q", repo.updates["inv-good"])
	}
}

func TestMonitorOpenInvoices_SkipsEmptyNossoNumero(t *testing.T) {
	repo := &monitorRepoStub{invoices: []domain.Invoice{
		openInvoice("inv-1", "", domain.StatusIssued, "2025-01-20"),
	}}
	gateway := &consultStub{}
	notifier := &notifierStub{}

	monitor := newTestMonitor(repo, gateway, notifier, "2025-01-15")
	if _, err := monitor.MonitorOpenInvoices(context.Background()); err != nil {
		t.Fatalf("MonitorOpenInvoices returned error: %v", err)
	}
	if gateway.calls != 0 {
		t.Fatalf("expected no consultation for boleto without nosso numero, got %d", gateway.calls)
	}
}
