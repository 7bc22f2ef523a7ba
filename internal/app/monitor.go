/**
 * @description
 * Boleto status monitor. Once per scheduled run it consults the bank for
 * every open boleto and advances its lifecycle state, emitting notification
 * events on transitions. Consultations are paced to respect the bank's
 * rate limits.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

// MonitorRepository defines the store operations the monitor needs.
type MonitorRepository interface {
	GetOpenInvoices(ctx context.Context) ([]domain.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, invoiceID string, status domain.BoletoStatus, raw map[string]any) error
}

// StatusConsulter is the gateway operation used to query boleto status.
type StatusConsulter interface {
	ConsultStatus(ctx context.Context, nossoNumero string) (domain.BoletoStatus, map[string]any, error)
}

// Monitor polls open boletos and applies the status state machine.
type Monitor struct {
	repo     MonitorRepository
	gateway  StatusConsulter
	notifier Notifier
	logger   *slog.Logger

	pace    time.Duration
	apiHost string
	now     func() time.Time
}

// NewMonitor creates a status monitor. pace is the minimum spacing between
// consecutive consultations.
func NewMonitor(repo MonitorRepository, gateway StatusConsulter, notifier Notifier, logger *slog.Logger, pace time.Duration, apiHost string) *Monitor {
	return &Monitor{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
		pace:     pace,
		apiHost:  apiHost,
		now:      time.Now,
	}
}

// MonitorOpenInvoices runs one monitoring pass and returns the number of
// state transitions applied. One boleto's failure never aborts the rest.
func (m *Monitor) MonitorOpenInvoices(ctx context.Context) (int, error) {
	m.logger.Info("starting boleto monitoring job")

	invoices, err := m.repo.GetOpenInvoices(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load open boletos: %w", err)
	}

	m.logger.Info("checking boleto statuses", "count", len(invoices))

	transitioned := 0
	for _, inv := range invoices {
		if err := m.sleep(ctx); err != nil {
			return transitioned, err
		}

		if inv.NossoNumero == "" {
			continue
		}

		ok, err := m.checkInvoice(ctx, inv)
		if err != nil {
			m.logger.Error("failed to monitor boleto", "boleto_id", inv.ID, "error", err)
			continue
		}
		if ok {
			transitioned++
		}
	}

	m.logger.Info("boleto monitoring job finished", "transitioned", transitioned)
	return transitioned, nil
}

// checkInvoice consults the bank for one boleto and applies a transition
// when the state machine says so. It reports whether a transition happened.
func (m *Monitor) checkInvoice(ctx context.Context, inv domain.Invoice) (bool, error) {
	status, raw, err := m.gateway.ConsultStatus(ctx, inv.NossoNumero)
	if err != nil {
		return false, err
	}

	switch {
	case status == domain.StatusPaid && inv.Status != domain.StatusPaid:
		m.logger.Info("boleto paid", "boleto_id", inv.ID)
		if err := m.repo.UpdateInvoiceStatus(ctx, inv.ID, domain.StatusPaid, raw); err != nil {
			return false, err
		}
		m.notifier.DispatchAsync(domain.InvoicePaid{
			PayerName: inv.Payer.Name,
			Amount:    domain.MoneyFromCents(inv.AmountCents),
			DueDate:   inv.DueDate.Format("2006-01-02"),
		}, inv.NotifyEmail, inv.NotifyPhone)
		return true, nil

	case status == domain.StatusIssued:
		today := dateOnly(m.now().UTC())
		if today.After(dateOnly(inv.DueDate)) && inv.Status != domain.StatusOverdue {
			m.logger.Info("boleto overdue", "boleto_id", inv.ID, "due_date", inv.DueDate.Format("2006-01-02"))
			if err := m.repo.UpdateInvoiceStatus(ctx, inv.ID, domain.StatusOverdue, raw); err != nil {
				return false, err
			}
			m.notifier.DispatchAsync(domain.InvoiceOverdue{
				PayerName:     inv.Payer.Name,
				Amount:        domain.MoneyFromCents(inv.AmountCents),
				DueDate:       inv.DueDate.Format("2006-01-02"),
				DigitableLine: inv.DigitableLine,
				DocumentURL:   fmt.Sprintf("%s/api/boleto/pdf/%s", m.apiHost, inv.NossoNumero),
			}, inv.NotifyEmail, inv.NotifyPhone)
			return true, nil
		}

	case status == domain.StatusReturned && inv.Status != domain.StatusReturned:
		// No notification is defined for this transition.
		m.logger.Info("boleto returned", "boleto_id", inv.ID)
		if err := m.repo.UpdateInvoiceStatus(ctx, inv.ID, domain.StatusReturned, raw); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

func (m *Monitor) sleep(ctx context.Context) error {
	if m.pace <= 0 {
		return nil
	}
	select {
	case <-time.After(m.pace):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
