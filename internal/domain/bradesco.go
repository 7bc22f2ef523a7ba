/**
 * @description
 * Request/response models for the Bradesco boleto API. The bank embeds a
 * business error code (cdErro, 0 = success) in every response body
 * independent of the HTTP status, so results are values, never exceptions.
 */
package domain

// Token is a bearer credential for the Bradesco API. Simulated tokens are
// returned when credentials are not configured; call sites must branch on it
// and short-circuit to simulated responses instead of hitting the network.
type Token struct {
	Value     string
	Simulated bool
}

// BoletoRegisterRequest is the gateway-level registration request. Nominal
// value is in cents, due date in "2006-01-02" format.
type BoletoRegisterRequest struct {
	InvoiceNumber string
	AmountCents   int64
	DueDate       string
	Payer         Payer

	// Interest and penalty percentage rates; empty means "0".
	InterestRate string
	PenaltyRate  string
}

// RegistrationEntry is one element of the list-wrapped registration result.
// The API documents both a top-level linhaDigitavel and this wrapped shape.
type RegistrationEntry struct {
	DigitableLine string `json:"linhaDigitavel"`
}

// RegisterResult is the uniform outcome of a registration call. Transport
// failures are folded into ErrorCode/ErrorMessage (negative codes mean the
// request never reached the bank; positive non-zero codes are HTTP or
// business errors).
type RegisterResult struct {
	ErrorCode     int                 `json:"cdErro"`
	ErrorMessage  string              `json:"msgErro"`
	NossoNumero   string              `json:"nuNossoNumero"`
	DigitableLine string              `json:"linhaDigitavel"`
	SituationCode string              `json:"cdSituacaoTitulo"`
	Registrations []RegistrationEntry `json:"listaRegistro,omitempty"`

	// Simulated is set when the result was synthesized in mock mode.
	Simulated bool `json:"-"`
}

// OK reports business success.
func (r *RegisterResult) OK() bool {
	return r != nil && r.ErrorCode == 0
}

// ResolvedDigitableLine returns the digitable line from the top-level field
// or, when absent, from the first element of the list-wrapped result.
func (r *RegisterResult) ResolvedDigitableLine() string {
	if r.DigitableLine != "" {
		return r.DigitableLine
	}
	if len(r.Registrations) > 0 {
		return r.Registrations[0].DigitableLine
	}
	return ""
}
