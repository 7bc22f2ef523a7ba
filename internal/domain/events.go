/**
 * @description
 * Notification events emitted on boleto lifecycle transitions. Each event is
 * a tagged value carrying only the fields its templates render, instead of a
 * loose payload map.
 */
package domain

// Event type tags. These double as template selectors in the dispatcher.
const (
	EventIssued      = "emitido"
	EventPaid        = "pago"
	EventOverdue     = "atraso"
	EventReactivated = "reativado"
)

// NotificationEvent is a boleto lifecycle event ready for rendering.
type NotificationEvent interface {
	EventType() string
}

// InvoiceIssued is emitted when a boleto is successfully registered.
type InvoiceIssued struct {
	PayerName     string
	Amount        Money
	DueDate       string
	DigitableLine string
	DocumentURL   string
}

func (InvoiceIssued) EventType() string { return EventIssued }

// InvoicePaid is emitted when a payment is confirmed by the bank.
type InvoicePaid struct {
	PayerName string
	Amount    Money
	DueDate   string
}

func (InvoicePaid) EventType() string { return EventPaid }

// InvoiceOverdue is emitted when an open boleto passes its due date unpaid.
type InvoiceOverdue struct {
	PayerName     string
	Amount        Money
	DueDate       string
	DigitableLine string
	DocumentURL   string
}

func (InvoiceOverdue) EventType() string { return EventOverdue }

// InvoiceReactivated is emitted when a returned boleto is reissued.
type InvoiceReactivated struct {
	PayerName string
	Amount    Money
	DueDate   string
}

func (InvoiceReactivated) EventType() string { return EventReactivated }
