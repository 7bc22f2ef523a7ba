/**
 * @description
 * HTTP handlers for the billing service: manual boleto registration, status
 * consultation, manual job triggers, notification dispatch and the
 * communication log/settings surface consumed by the dashboard.
 */
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/settings"
)

// BillingRunner triggers one recurring billing cycle.
type BillingRunner interface {
	ProcessRecurringBilling(ctx context.Context) (int, error)
}

// MonitorRunner triggers one boleto monitoring pass.
type MonitorRunner interface {
	MonitorOpenInvoices(ctx context.Context) (int, error)
}

// Gateway is the bank operations surface exposed over HTTP.
type Gateway interface {
	Register(ctx context.Context, req domain.BoletoRegisterRequest) (*domain.RegisterResult, error)
	ConsultStatus(ctx context.Context, nossoNumero string) (domain.BoletoStatus, map[string]any, error)
}

// InvoiceStore persists manually registered boletos.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv domain.Invoice) error
}

// CommLogReader reads the communication audit log.
type CommLogReader interface {
	ListCommLogEntries(ctx context.Context, channel, status string) ([]domain.CommunicationLogEntry, error)
	CommStats(ctx context.Context) (domain.CommStats, error)
}

// NotificationSender dispatches notification events.
type NotificationSender interface {
	Dispatch(ctx context.Context, event domain.NotificationEvent, email, phone string)
	DispatchAsync(event domain.NotificationEvent, email, phone string)
}

// SettingsService reads and updates the dynamic settings document.
type SettingsService interface {
	Get() settings.Settings
	Update(partial map[string]any) (settings.Settings, error)
}

// Handler bundles the HTTP handlers and their dependencies.
type Handler struct {
	billing  BillingRunner
	monitor  MonitorRunner
	gateway  Gateway
	invoices InvoiceStore
	commLog  CommLogReader
	notifier NotificationSender
	settings SettingsService
	logger   *slog.Logger
	apiHost  string
}

// NewHandler creates the handler set.
func NewHandler(billing BillingRunner, monitor MonitorRunner, gateway Gateway, invoices InvoiceStore, commLog CommLogReader, notifier NotificationSender, settingsSvc SettingsService, logger *slog.Logger, apiHost string) *Handler {
	return &Handler{
		billing:  billing,
		monitor:  monitor,
		gateway:  gateway,
		invoices: invoices,
		commLog:  commLog,
		notifier: notifier,
		settings: settingsSvc,
		logger:   logger,
		apiHost:  apiHost,
	}
}

type registerBoletoRequest struct {
	InvoiceNumber string      `json:"nuFatura"`
	Amount        json.Number `json:"vlNominal"`
	DueDate       string      `json:"dataVencimento"`
	PayerName     string      `json:"pagador_nome"`
	PayerDocument string      `json:"pagador_documento"`
	PayerAddress  string      `json:"pagador_endereco"`
	PayerPostal   string      `json:"pagador_cep"`
	PayerState    string      `json:"pagador_uf"`
	PayerCity     string      `json:"pagador_cidade"`
	PayerDistrict string      `json:"pagador_bairro"`
	Email         string      `json:"email"`
	WhatsApp      string      `json:"whatsapp"`
}

// handleRegisterBoleto registers a boleto outside of any billing plan.
func (h *Handler) handleRegisterBoleto(w http.ResponseWriter, r *http.Request) {
	var req registerBoletoRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := parseMoney(req.Amount)
	if err != nil || amount.Cents() <= 0 {
		respondError(w, http.StatusBadRequest, "vlNominal must be a positive amount")
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "dataVencimento must be YYYY-MM-DD")
		return
	}

	if req.PayerName == "" || req.PayerDocument == "" {
		respondError(w, http.StatusBadRequest, "pagador_nome and pagador_documento are required")
		return
	}

	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		invoiceNumber = "MAN-" + strings.ToUpper(uuid.New().String()[:8])
	}

	payer := domain.Payer{
		Name:       req.PayerName,
		Document:   req.PayerDocument,
		Address:    req.PayerAddress,
		PostalCode: req.PayerPostal,
		State:      req.PayerState,
		City:       req.PayerCity,
		District:   req.PayerDistrict,
	}

	result, err := h.gateway.Register(r.Context(), domain.BoletoRegisterRequest{
		InvoiceNumber: invoiceNumber,
		AmountCents:   amount.Cents(),
		DueDate:       req.DueDate,
		Payer:         payer,
	})
	if err != nil {
		h.logger.Error("manual boleto registration failed", "error", err)
		respondError(w, http.StatusBadGateway, "registration failed")
		return
	}

	if result.OK() {
		invoice := domain.Invoice{
			ID:            uuid.New().String(),
			InvoiceNumber: invoiceNumber,
			NossoNumero:   result.NossoNumero,
			DigitableLine: result.ResolvedDigitableLine(),
			AmountCents:   amount.Cents(),
			DueDate:       dueDate,
			Status:        domain.StatusIssued,
			Payer:         payer,
		}
		if err := h.invoices.CreateInvoice(r.Context(), invoice); err != nil {
			h.logger.Error("failed to persist manual boleto", "error", err)
		}

		if req.Email != "" || req.WhatsApp != "" {
			h.notifier.DispatchAsync(domain.InvoiceIssued{
				PayerName:     payer.Name,
				Amount:        amount,
				DueDate:       req.DueDate,
				DigitableLine: invoice.DigitableLine,
				DocumentURL:   fmt.Sprintf("%s/api/boleto/pdf/%s", h.apiHost, invoiceNumber),
			}, req.Email, req.WhatsApp)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// handleConsultStatus returns the normalized status of a registered boleto.
func (h *Handler) handleConsultStatus(w http.ResponseWriter, r *http.Request) {
	nossoNumero := chi.URLParam(r, "nossoNumero")
	if nossoNumero == "" {
		respondError(w, http.StatusBadRequest, "nossoNumero is required")
		return
	}

	status, raw, err := h.gateway.ConsultStatus(r.Context(), nossoNumero)
	if err != nil {
		h.logger.Error("status consultation failed", "nosso_numero", nossoNumero, "error", err)
		respondError(w, http.StatusBadGateway, "status consultation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"raw":    raw,
	})
}

// handleRunBilling triggers one recurring billing cycle.
func (h *Handler) handleRunBilling(w http.ResponseWriter, r *http.Request) {
	generated, err := h.billing.ProcessRecurringBilling(r.Context())
	if err != nil {
		h.logger.Error("manual billing run failed", "error", err)
		respondError(w, http.StatusInternalServerError, "billing run failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"generated": generated})
}

// handleRunMonitor triggers one boleto monitoring pass.
func (h *Handler) handleRunMonitor(w http.ResponseWriter, r *http.Request) {
	transitioned, err := h.monitor.MonitorOpenInvoices(r.Context())
	if err != nil {
		h.logger.Error("manual monitoring run failed", "error", err)
		respondError(w, http.StatusInternalServerError, "monitoring run failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"transitioned": transitioned})
}

type dispatchRequest struct {
	Event         string      `json:"event"`
	PayerName     string      `json:"nomeSacado"`
	Amount        json.Number `json:"valorNominal"`
	DueDate       string      `json:"dataVencimento"`
	DigitableLine string      `json:"linhaDigitavel"`
	DocumentURL   string      `json:"linkBoleto"`
	Email         string      `json:"email"`
	WhatsApp      string      `json:"whatsapp"`
}

// handleDispatchNotification sends a notification synchronously.
func (h *Handler) handleDispatchNotification(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" && req.WhatsApp == "" {
		respondError(w, http.StatusBadRequest, "at least one of email or whatsapp is required")
		return
	}

	amount, err := parseMoney(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "valorNominal must be a number")
		return
	}

	event := buildEvent(req.Event, req.PayerName, amount, req.DueDate, req.DigitableLine, req.DocumentURL)
	h.notifier.Dispatch(r.Context(), event, req.Email, req.WhatsApp)

	respondJSON(w, http.StatusOK, map[string]string{"status": "dispatched"})
}

// handleListCommLogs returns communication log entries, newest first.
func (h *Handler) handleListCommLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.commLog.ListCommLogEntries(r.Context(), r.URL.Query().Get("channel"), r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("failed to list communication logs", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	if entries == nil {
		entries = []domain.CommunicationLogEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// handleCommStats returns delivery statistics.
func (h *Handler) handleCommStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.commLog.CommStats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute communication stats", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// handleGetSettings returns the dynamic settings document.
func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.settings.Get())
}

// handleUpdateSettings merges a partial document into the dynamic settings.
func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var partial map[string]any
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.settings.Update(partial)
	if err != nil {
		h.logger.Error("failed to update settings", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// buildEvent maps an event type name and payload fields to the
// corresponding tagged event value.
func buildEvent(eventType, payerName string, amount domain.Money, dueDate, digitableLine, documentURL string) domain.NotificationEvent {
	switch eventType {
	case domain.EventPaid:
		return domain.InvoicePaid{PayerName: payerName, Amount: amount, DueDate: dueDate}
	case domain.EventOverdue:
		return domain.InvoiceOverdue{
			PayerName:     payerName,
			Amount:        amount,
			DueDate:       dueDate,
			DigitableLine: digitableLine,
			DocumentURL:   documentURL,
		}
	case domain.EventReactivated:
		return domain.InvoiceReactivated{PayerName: payerName, Amount: amount, DueDate: dueDate}
	default:
		return domain.InvoiceIssued{
			PayerName:     payerName,
			Amount:        amount,
			DueDate:       dueDate,
			DigitableLine: digitableLine,
			DocumentURL:   documentURL,
		}
	}
}

// parseMoney interprets a JSON number as integer cents or, when it carries
// a fraction or exponent, as a decimal value in currency units.
func parseMoney(raw json.Number) (domain.Money, error) {
	s := raw.String()
	if s == "" {
		return domain.MoneyFromCents(0), nil
	}

	if strings.ContainsAny(s, ".eE") {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return domain.Money{}, err
		}
		return domain.MoneyFromDecimal(d), nil
	}

	cents, err := raw.Int64()
	if err != nil {
		return domain.Money{}, err
	}
	return domain.MoneyFromCents(cents), nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
