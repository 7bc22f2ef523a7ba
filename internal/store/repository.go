/**
 * @description
 * Data access layer for the billing engine. Contains the SQL for billing
 * plans, companies, boletos and the system audit log.
 *
 * Lookups by id tolerate absence: "not found" is (nil, nil), not an error,
 * so batch jobs can skip dangling references without special casing.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

// Repository handles database operations for the billing engine.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetActiveBillingPlans fetches all active recurring billing plans.
func (r *Repository) GetActiveBillingPlans(ctx context.Context) ([]domain.BillingPlan, error) {
	query := `
        SELECT id, empresa_id, valor::text, dia_vencimento, ultimo_processamento, ativo
        FROM billing_plans
        WHERE ativo = TRUE
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.BillingPlan
	for rows.Next() {
		var plan domain.BillingPlan
		var amount string
		if err := rows.Scan(&plan.ID, &plan.CompanyID, &amount, &plan.DueDay, &plan.LastProcessed, &plan.Active); err != nil {
			return nil, err
		}
		if plan.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// SetPlanLastProcessed records the cycle in which a plan last generated an
// invoice. This is the only mutation the engine applies to a plan.
func (r *Repository) SetPlanLastProcessed(ctx context.Context, planID string, at time.Time) error {
	query := `UPDATE billing_plans SET ultimo_processamento = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, at, planID)
	return err
}

// GetCompanyByID fetches one company. Returns (nil, nil) when absent.
func (r *Repository) GetCompanyByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `
        SELECT id, razao_social, cnpj,
               COALESCE(email_notificacao, ''), COALESCE(whatsapp, ''),
               COALESCE(endereco, ''), COALESCE(cep, ''), COALESCE(uf, ''),
               COALESCE(cidade, ''), COALESCE(bairro, '')
        FROM empresas
        WHERE id = $1
    `
	var c domain.Company
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.LegalName, &c.CNPJ, &c.NotifyEmail, &c.WhatsApp,
		&c.Address, &c.PostalCode, &c.State, &c.City, &c.District)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateInvoice persists a newly registered boleto.
func (r *Repository) CreateInvoice(ctx context.Context, inv domain.Invoice) error {
	query := `
        INSERT INTO boletos (
            id, plan_id, nu_fatura, nosso_numero, linha_digitavel,
            vl_nominal, data_vencimento, status,
            pagador_nome, pagador_documento, pagador_endereco,
            pagador_cep, pagador_uf, pagador_cidade, pagador_bairro,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
    `
	_, err := r.db.Exec(ctx, query,
		inv.ID, inv.PlanID, inv.InvoiceNumber, inv.NossoNumero, inv.DigitableLine,
		inv.AmountCents, inv.DueDate, inv.Status,
		inv.Payer.Name, inv.Payer.Document, inv.Payer.Address,
		inv.Payer.PostalCode, inv.Payer.State, inv.Payer.City, inv.Payer.District)
	return err
}

// GetOpenInvoices fetches all boletos still in a non-terminal state, joined
// with the owning company's notification contacts when the boleto belongs to
// a billing plan.
func (r *Repository) GetOpenInvoices(ctx context.Context) ([]domain.Invoice, error) {
	query := `
        SELECT b.id, b.plan_id, b.nu_fatura, b.nosso_numero, b.linha_digitavel,
               b.vl_nominal, b.data_vencimento, b.status,
               b.pagador_nome, b.pagador_documento,
               COALESCE(e.email_notificacao, ''), COALESCE(e.whatsapp, '')
        FROM boletos b
        LEFT JOIN billing_plans p ON p.id = b.plan_id
        LEFT JOIN empresas e ON e.id = p.empresa_id
        WHERE b.status IN ('emitido', 'atraso')
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		err := rows.Scan(
			&inv.ID, &inv.PlanID, &inv.InvoiceNumber, &inv.NossoNumero, &inv.DigitableLine,
			&inv.AmountCents, &inv.DueDate, &inv.Status,
			&inv.Payer.Name, &inv.Payer.Document,
			&inv.NotifyEmail, &inv.NotifyPhone)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// UpdateInvoiceStatus advances a boleto's lifecycle state and stores the raw
// consultation payload that justified the transition.
func (r *Repository) UpdateInvoiceStatus(ctx context.Context, invoiceID string, status domain.BoletoStatus, raw map[string]any) error {
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		rawJSON = []byte("{}")
	}

	query := `UPDATE boletos SET status = $1, ultima_consulta = $2, updated_at = NOW() WHERE id = $3`
	_, err = r.db.Exec(ctx, query, status, rawJSON, invoiceID)
	return err
}

// CreateAuditLog appends one entry to the system audit log.
func (r *Repository) CreateAuditLog(ctx context.Context, reference, level, message string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		payloadJSON = []byte("{}")
	}

	query := `
        INSERT INTO audit_logs (consulta_id, nivel, mensagem, payload, created_at)
        VALUES ($1, $2, $3, $4, NOW())
    `
	_, err = r.db.Exec(ctx, query, reference, level, message, payloadJSON)
	return err
}
