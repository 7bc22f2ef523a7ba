/**
 * @description
 * Client for the Bradesco boleto registration ("Cobrança Registrada") API.
 * It wraps registration and status consultation, folding transport failures
 * into the response's business error code so callers branch on values
 * instead of catching exceptions.
 *
 * Key behaviors:
 * - Simulated mode: with no credentials configured, registration and
 *   consultation synthesize deterministic responses without network I/O.
 * - Business errors: a non-zero cdErro in a 2xx response is returned as-is.
 * - Transport errors: non-2xx responses become results carrying the HTTP
 *   status and body; connection failures carry a negative code.
 */
package bradescoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

// Base URLs for the Bradesco Open API.
const (
	SandboxURL    = "https://proxy.api.prebanco.com.br"
	ProductionURL = "https://openapi.bradesco.com.br"
)

const (
	registerPath   = "/v1/boleto/registrar"
	registerQRPath = "/v1/boleto/registrar-qr-code"
	alterPath      = "/v1/boleto/titulo-alterar"
	cancelPath     = "/v1/boleto/titulo-estornar"
	consultPath    = "/v1/boleto/titulo-consultar"
)

// ErrConnectionFailed is the ErrorCode used when the request never reached
// the bank (DNS, timeout, connection refused).
const ErrConnectionFailed = -1

// BaseURL selects the API host for the given environment.
func BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return ProductionURL
}

// Client is a client for the Bradesco boleto API.
type Client struct {
	baseURL     string
	negotiation string
	accessKey   string
	tokens      *TokenProvider
	httpClient  *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NewClient creates a new Bradesco API client. The negotiation number is
// left-padded with zeros to the 18 digits the protocol requires.
func NewClient(baseURL, negotiation, accessKey string, tokens *TokenProvider, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		negotiation: zeroPad(negotiation, 18),
		accessKey:   accessKey,
		tokens:      tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

type payerPayload struct {
	Name       string `json:"nome"`
	Document   string `json:"documento"`
	Address    string `json:"endereco"`
	PostalCode string `json:"cep"`
	State      string `json:"uf"`
	City       string `json:"cidade"`
	District   string `json:"bairro"`
}

type registerPayload struct {
	Negotiation   string       `json:"nuNegociacao"`
	AccessoryType string       `json:"tpAcessorio"` // "10" = escritural
	AccessKey     string       `json:"acessEsc10"`
	ClientNumber  string       `json:"nuCliente"`
	NominalValue  string       `json:"vlNominalTitulo"`
	DueDate       string       `json:"dtVencimentoTitulo"`
	Payer         payerPayload `json:"pagador"`
	InterestRate  string       `json:"prJuros"`
	PenaltyRate   string       `json:"prMulta"`
}

// Register submits a boleto registration. It returns an error only when a
// real token could not be obtained; every transport or business failure is
// reported through the result's ErrorCode.
func (c *Client) Register(ctx context.Context, req domain.BoletoRegisterRequest) (*domain.RegisterResult, error) {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	if token.Simulated {
		c.logger.Info("simulated mode: returning mock registration response", "invoice", req.InvoiceNumber)
		return c.mockRegisterResult(), nil
	}

	interest := req.InterestRate
	if interest == "" {
		interest = "0"
	}
	penalty := req.PenaltyRate
	if penalty == "" {
		penalty = "0"
	}

	payload := registerPayload{
		Negotiation:   c.negotiation,
		AccessoryType: "10",
		AccessKey:     c.accessKey,
		ClientNumber:  req.InvoiceNumber,
		NominalValue:  strconv.FormatInt(req.AmountCents, 10),
		DueDate:       req.DueDate,
		Payer: payerPayload{
			Name:       req.Payer.Name,
			Document:   req.Payer.Document,
			Address:    req.Payer.Address,
			PostalCode: req.Payer.PostalCode,
			State:      req.Payer.State,
			City:       req.Payer.City,
			District:   req.Payer.District,
		},
		InterestRate: interest,
		PenaltyRate:  penalty,
	}

	status, body, err := c.post(ctx, registerPath, token.Value, payload)
	if err != nil {
		c.logger.Error("bradesco registration request failed", "error", err)
		return &domain.RegisterResult{ErrorCode: ErrConnectionFailed, ErrorMessage: err.Error()}, nil
	}
	if status < 200 || status >= 300 {
		c.logger.Error("bradesco registration returned non-success status", "status", status, "body", string(body))
		return &domain.RegisterResult{ErrorCode: status, ErrorMessage: string(body)}, nil
	}

	var result domain.RegisterResult
	if err := json.Unmarshal(body, &result); err != nil {
		return &domain.RegisterResult{ErrorCode: ErrConnectionFailed, ErrorMessage: fmt.Sprintf("failed to decode registration response: %v", err)}, nil
	}

	if result.ErrorCode != 0 {
		c.logger.Error("bradesco returned business error", "cdErro", result.ErrorCode, "msgErro", result.ErrorMessage)
	}
	return &result, nil
}

// mockRegisterResult synthesizes a registration success in simulated mode:
// a pseudo nosso número derived from the clock and a structurally valid
// digitable line.
func (c *Client) mockRegisterResult() *domain.RegisterResult {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	nossoNumero := ts
	if len(ts) > 10 {
		nossoNumero = ts[len(ts)-10:]
	}
	line := "2379" + nossoNumero + "9000000000000050000000000"

	return &domain.RegisterResult{
		ErrorCode:     0,
		ErrorMessage:  "Sucesso (Simulado)",
		NossoNumero:   nossoNumero,
		DigitableLine: line,
		SituationCode: "01",
		Registrations: []domain.RegistrationEntry{{DigitableLine: line}},
		Simulated:     true,
	}
}

type consultPayload struct {
	Negotiation string `json:"nuNegociacao"`
	NossoNumero string `json:"nuNossoNumero"`
}

// ConsultStatus queries the current situation of a registered title and maps
// the bank's proprietary situation codes to the normalized boleto status.
// The raw response map is returned alongside for persistence.
func (c *Client) ConsultStatus(ctx context.Context, nossoNumero string) (domain.BoletoStatus, map[string]any, error) {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return domain.StatusError, nil, err
	}

	if token.Simulated {
		return domain.StatusIssued, map[string]any{"simulado": true, "nuNossoNumero": nossoNumero}, nil
	}

	payload := consultPayload{Negotiation: c.negotiation, NossoNumero: nossoNumero}

	status, body, err := c.post(ctx, consultPath, token.Value, payload)
	if err != nil {
		return domain.StatusError, nil, fmt.Errorf("status consultation failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return domain.StatusError, nil, fmt.Errorf("status consultation returned status %d: %s", status, string(body))
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil || len(data) == 0 {
		return domain.StatusError, map[string]any{}, nil
	}

	return NormalizeSituation(data), data, nil
}

// NormalizeSituation maps Bradesco situation codes to the normalized status.
// Codes 06 (liquidado), 13 (pago no dia) and 61 (baixa por título pago) mean
// paid; 02 means returned; anything else, including an absent code, means
// the title is still open. A status nested in listaTitulo takes precedence
// over the top-level field.
func NormalizeSituation(data map[string]any) domain.BoletoStatus {
	code := stringField(data, "cdSituacaoTitulo")

	if list, ok := data["listaTitulo"].([]any); ok && len(list) > 0 {
		if item, ok := list[0].(map[string]any); ok {
			if nested := stringField(item, "cdSituacaoTitulo"); nested != "" {
				code = nested
			}
		}
	}

	switch code {
	case "06", "13", "61":
		return domain.StatusPaid
	case "02":
		return domain.StatusReturned
	}
	return domain.StatusIssued
}

// RegisterQRCode registers a boleto carrying a Pix QR code. Protocol hook;
// not yet implemented beyond the stable signature.
func (c *Client) RegisterQRCode(ctx context.Context, req domain.BoletoRegisterRequest) (*domain.RegisterResult, error) {
	if _, err := c.tokens.GetToken(ctx); err != nil {
		return nil, err
	}
	return &domain.RegisterResult{ErrorMessage: "registrar-qr-code not implemented"}, nil
}

// Alter changes registered title data (e.g. due date extension). Protocol
// hook; not yet implemented beyond the stable signature.
func (c *Client) Alter(ctx context.Context, nossoNumero string) (*domain.RegisterResult, error) {
	if _, err := c.tokens.GetToken(ctx); err != nil {
		return nil, err
	}
	return &domain.RegisterResult{ErrorMessage: "titulo-alterar not implemented"}, nil
}

// Cancel reverses a registered title. Protocol hook; not yet implemented
// beyond the stable signature.
func (c *Client) Cancel(ctx context.Context, nossoNumero string) (*domain.RegisterResult, error) {
	if _, err := c.tokens.GetToken(ctx); err != nil {
		return nil, err
	}
	return &domain.RegisterResult{ErrorMessage: "titulo-estornar not implemented"}, nil
}

// post sends an authenticated JSON request and returns the raw response.
func (c *Client) post(ctx context.Context, path, token string, payload any) (int, []byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body, nil
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
