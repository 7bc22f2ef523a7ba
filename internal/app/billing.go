/**
 * @description
 * Recurring billing engine. Once per scheduled run it decides which billing
 * plans are due to generate a boleto this cycle and drives registration
 * through the bank gateway. A plan generates at most one boleto per
 * calendar month; generation opens a configurable number of days before the
 * target due date.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

// BillingRepository defines the store operations the billing engine needs.
type BillingRepository interface {
	GetActiveBillingPlans(ctx context.Context) ([]domain.BillingPlan, error)
	SetPlanLastProcessed(ctx context.Context, planID string, at time.Time) error
	GetCompanyByID(ctx context.Context, id string) (*domain.Company, error)
	CreateInvoice(ctx context.Context, inv domain.Invoice) error
	CreateAuditLog(ctx context.Context, reference, level, message string, payload any) error
}

// InvoiceRegistrar is the gateway operation used to register boletos.
type InvoiceRegistrar interface {
	Register(ctx context.Context, req domain.BoletoRegisterRequest) (*domain.RegisterResult, error)
}

// Notifier hands notification events to the dispatch pool.
type Notifier interface {
	DispatchAsync(event domain.NotificationEvent, email, phone string)
}

// BillingEngine processes recurring billing plans.
type BillingEngine struct {
	repo     BillingRepository
	gateway  InvoiceRegistrar
	notifier Notifier
	logger   *slog.Logger

	leadDays int
	apiHost  string
	now      func() time.Time
}

// NewBillingEngine creates a billing engine. leadDays is how many days
// before the due date the generation window opens.
func NewBillingEngine(repo BillingRepository, gateway InvoiceRegistrar, notifier Notifier, logger *slog.Logger, leadDays int, apiHost string) *BillingEngine {
	return &BillingEngine{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
		leadDays: leadDays,
		apiHost:  apiHost,
		now:      time.Now,
	}
}

// ProcessRecurringBilling runs one billing cycle over all active plans and
// returns the number of boletos generated. A single plan's failure never
// aborts the remaining plans.
func (e *BillingEngine) ProcessRecurringBilling(ctx context.Context) (int, error) {
	e.logger.Info("starting recurring billing job")

	plans, err := e.repo.GetActiveBillingPlans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load billing plans: %w", err)
	}
	if len(plans) == 0 {
		e.logger.Info("no active billing plans found")
		return 0, nil
	}

	today := dateOnly(e.now().UTC())
	generated := 0

	for _, plan := range plans {
		ok, err := e.processPlan(ctx, plan, today)
		if err != nil {
			e.logger.Error("error processing billing plan", "plan_id", plan.ID, "error", err)
			continue
		}
		if ok {
			generated++
		}
	}

	e.logger.Info("recurring billing job finished", "generated", generated)
	return generated, nil
}

// processPlan evaluates one plan against the current cycle. It reports
// whether a boleto was generated.
func (e *BillingEngine) processPlan(ctx context.Context, plan domain.BillingPlan, today time.Time) (bool, error) {
	// At most one boleto per plan per calendar month.
	if plan.LastProcessed != nil {
		last := plan.LastProcessed.UTC()
		if last.Month() == today.Month() && last.Year() == today.Year() {
			return false, nil
		}
	}

	targetDue, ok := dueDateFor(today.Year(), today.Month(), plan.DueDay)
	if !ok {
		e.logger.Warn("due day does not exist in target month, skipping plan",
			"plan_id", plan.ID, "due_day", plan.DueDay, "month", today.Month())
		return false, nil
	}

	if targetDue.Before(today) {
		year, month := today.Year(), today.Month()
		if month == time.December {
			year, month = year+1, time.January
		} else {
			month++
		}
		targetDue, ok = dueDateFor(year, month, plan.DueDay)
		if !ok {
			e.logger.Warn("due day does not exist in target month, skipping plan",
				"plan_id", plan.ID, "due_day", plan.DueDay, "month", month)
			return false, nil
		}
	}

	generationDate := targetDue.AddDate(0, 0, -e.leadDays)
	if today.Before(generationDate) {
		return false, nil
	}

	company, err := e.repo.GetCompanyByID(ctx, plan.CompanyID)
	if err != nil {
		return false, fmt.Errorf("failed to load company %s: %w", plan.CompanyID, err)
	}
	if company == nil {
		e.logger.Error("company not found for plan", "plan_id", plan.ID, "company_id", plan.CompanyID)
		return false, nil
	}

	e.logger.Info("generating boleto for plan",
		"plan_id", plan.ID, "company_id", plan.CompanyID, "due_date", targetDue.Format("2006-01-02"))

	invoiceNumber := fmt.Sprintf("FAT-%s-%s", today.Format("200601"), shortID(plan.ID))
	req := domain.BoletoRegisterRequest{
		InvoiceNumber: invoiceNumber,
		AmountCents:   domain.MoneyFromDecimal(plan.Amount).Cents(),
		DueDate:       targetDue.Format("2006-01-02"),
		Payer: domain.Payer{
			Name:       company.LegalName,
			Document:   company.CNPJ,
			Address:    company.Address,
			PostalCode: company.PostalCode,
			State:      company.State,
			City:       company.City,
			District:   company.District,
		},
	}

	result, err := e.gateway.Register(ctx, req)
	if err != nil {
		return false, fmt.Errorf("registration failed: %w", err)
	}
	if !result.OK() {
		// Plan stays unprocessed so the next run inside the window retries.
		e.logger.Error("bank refused boleto registration",
			"plan_id", plan.ID, "cdErro", result.ErrorCode, "msgErro", result.ErrorMessage)
		return false, nil
	}

	planID := plan.ID
	invoice := domain.Invoice{
		ID:            uuid.New().String(),
		PlanID:        &planID,
		InvoiceNumber: invoiceNumber,
		NossoNumero:   result.NossoNumero,
		DigitableLine: result.ResolvedDigitableLine(),
		AmountCents:   req.AmountCents,
		DueDate:       targetDue,
		Status:        domain.StatusIssued,
		Payer:         req.Payer,
	}
	if err := e.repo.CreateInvoice(ctx, invoice); err != nil {
		return false, fmt.Errorf("failed to persist boleto: %w", err)
	}

	if err := e.repo.SetPlanLastProcessed(ctx, plan.ID, e.now().UTC()); err != nil {
		return false, fmt.Errorf("failed to update plan: %w", err)
	}

	if err := e.repo.CreateAuditLog(ctx, "SYSTEM_BILLING", "INFO",
		fmt.Sprintf("Boleto gerado para %s", company.LegalName), result); err != nil {
		e.logger.Error("failed to write audit log", "plan_id", plan.ID, "error", err)
	}

	// State is persisted before the notification is handed off; a delivery
	// failure never rolls back the generated boleto.
	e.notifier.DispatchAsync(domain.InvoiceIssued{
		PayerName:     company.LegalName,
		Amount:        domain.MoneyFromCents(req.AmountCents),
		DueDate:       req.DueDate,
		DigitableLine: invoice.DigitableLine,
		DocumentURL:   fmt.Sprintf("%s/api/boleto/pdf/%s", e.apiHost, invoiceNumber),
	}, company.NotifyEmail, company.WhatsApp)

	return true, nil
}

// dueDateFor builds the due date for the given month, rejecting day numbers
// the month does not have (no clamping to month end).
func dueDateFor(year int, month time.Month, day int) (time.Time, bool) {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
