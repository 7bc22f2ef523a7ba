/**
 * @description
 * Domain models for the recurring billing engine: billing plans, client
 * companies and the boleto lifecycle.
 */
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoletoStatus is the lifecycle status of a boleto. The same values are used
// for the normalized result of a status consultation against the bank.
type BoletoStatus string

const (
	StatusIssued   BoletoStatus = "emitido"
	StatusPaid     BoletoStatus = "pago"
	StatusOverdue  BoletoStatus = "atraso"
	StatusReturned BoletoStatus = "baixado"
	StatusError    BoletoStatus = "erro"
)

// Terminal reports whether no further transitions apply to this status.
func (s BoletoStatus) Terminal() bool {
	return s == StatusPaid || s == StatusReturned
}

// BillingPlan is a recurring billing agreement for one company. Amount is in
// currency units (reais); invoices issued from a plan carry cents.
type BillingPlan struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"empresa_id"`
	Amount        decimal.Decimal `json:"valor"`
	DueDay        int             `json:"dia_vencimento"`
	LastProcessed *time.Time      `json:"ultimo_processamento,omitempty"`
	Active        bool            `json:"ativo"`
}

// Company is a client company (the payer of recurring boletos).
type Company struct {
	ID          string `json:"id"`
	LegalName   string `json:"razao_social"`
	CNPJ        string `json:"cnpj"`
	NotifyEmail string `json:"email_notificacao"`
	WhatsApp    string `json:"whatsapp"`
	Address     string `json:"endereco"`
	PostalCode  string `json:"cep"`
	State       string `json:"uf"`
	City        string `json:"cidade"`
	District    string `json:"bairro"`
}

// Payer is the immutable payer snapshot captured when a boleto is registered.
type Payer struct {
	Name       string `json:"nome"`
	Document   string `json:"documento"`
	Address    string `json:"endereco"`
	PostalCode string `json:"cep"`
	State      string `json:"uf"`
	City       string `json:"cidade"`
	District   string `json:"bairro"`
}

// Invoice is one boleto registered with the bank. PlanID is nil for manually
// registered boletos. NossoNumero is assigned exactly once, at registration.
type Invoice struct {
	ID            string       `json:"id"`
	PlanID        *string      `json:"plan_id,omitempty"`
	InvoiceNumber string       `json:"nu_fatura"`
	NossoNumero   string       `json:"nosso_numero"`
	DigitableLine string       `json:"linha_digitavel"`
	AmountCents   int64        `json:"vl_nominal"`
	DueDate       time.Time    `json:"data_vencimento"`
	Status        BoletoStatus `json:"status"`
	Payer         Payer        `json:"pagador"`

	// Contact info resolved from the owning plan's company, when present.
	// Used by the status monitor to address transition notifications.
	NotifyEmail string `json:"email_notificacao,omitempty"`
	NotifyPhone string `json:"whatsapp,omitempty"`
}
