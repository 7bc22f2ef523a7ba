/**
 * @description
 * Channel-specific rendering of boleto notification events: HTML email
 * bodies with per-event subject and accent color, and plain-text WhatsApp
 * messages.
 */
package app

import (
	"fmt"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

var eventColors = map[string]string{
	domain.EventIssued:      "#3b82f6", // Blue
	domain.EventPaid:        "#22c55e", // Green
	domain.EventOverdue:     "#ef4444", // Red
	domain.EventReactivated: "#f59e0b", // Amber
}

var eventTitles = map[string]string{
	domain.EventIssued:      "Novo Boleto Disponível",
	domain.EventPaid:        "Pagamento Confirmado",
	domain.EventOverdue:     "Aviso de Vencimento",
	domain.EventReactivated: "Boleto Reativado",
}

var eventSubjects = map[string]string{
	domain.EventIssued:      "Fatura Disponível - iAudit",
	domain.EventPaid:        "Confirmação de Pagamento - iAudit",
	domain.EventOverdue:     "ALERTA: Fatura em Atraso - iAudit",
	domain.EventReactivated: "Fatura Reativada - iAudit",
}

// renderEmail builds the subject and HTML body for an event. Unknown event
// types fall back to a generic notification template.
func renderEmail(event domain.NotificationEvent) (subject, html string) {
	eventType := event.EventType()

	subject, ok := eventSubjects[eventType]
	if !ok {
		subject = "Notificação iAudit"
	}
	color, ok := eventColors[eventType]
	if !ok {
		color = "#3b82f6"
	}
	title, ok := eventTitles[eventType]
	if !ok {
		title = "Notificação iAudit"
	}

	var body string
	switch e := event.(type) {
	case domain.InvoiceIssued:
		body = fmt.Sprintf(`
            <p>Olá <b>%s</b>,</p>
            <p>Seu boleto iAudit referente aos serviços de monitoramento fiscal já está disponível.</p>
            <div style="background: #f8fafc; padding: 15px; border-radius: 8px; margin: 20px 0;">
                <p style="margin: 5px 0;"><b>Valor:</b> %s</p>
                <p style="margin: 5px 0;"><b>Vencimento:</b> %s</p>
            </div>
            <p>Para facilitar, aqui está a linha digitável:</p>
            <div style="background: #e2e8f0; padding: 10px; font-family: monospace; text-align: center; border-radius: 4px;">
                %s
            </div>
            <p style="text-align: center; margin-top: 25px;">
                <a href="%s" style="background-color: %s; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">
                    Baixar Boleto PDF
                </a>
            </p>`,
			e.PayerName, e.Amount.FormatBRL(), e.DueDate, e.DigitableLine, e.DocumentURL, color)

	case domain.InvoicePaid:
		body = fmt.Sprintf(`
            <p>Olá <b>%s</b>,</p>
            <p>Confirmamos o recebimento do pagamento do seu boleto.</p>
            <div style="background: #dcfce7; padding: 15px; border-radius: 8px; margin: 20px 0; color: #166534;">
                <p style="margin: 5px 0;"><b>Valor Pago:</b> %s</p>
                <p style="margin: 5px 0;"><b>Obrigado por manter sua conta em dia!</b></p>
            </div>`,
			e.PayerName, e.Amount.FormatBRL())

	case domain.InvoiceOverdue:
		body = fmt.Sprintf(`
            <p>Olá <b>%s</b>,</p>
            <p>Não identificamos o pagamento do boleto com vencimento em <b>%s</b>.</p>
            <div style="background: #fee2e2; padding: 15px; border-radius: 8px; margin: 20px 0; color: #991b1b;">
                <p style="margin: 5px 0;"><b>Valor Atualizado:</b> %s</p>
                <p style="margin: 5px 0;">Evite suspensão dos serviços regularizando sua pendência.</p>
            </div>
            <p style="text-align: center; margin-top: 25px;">
                <a href="%s" style="background-color: %s; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">
                    Visualizar Boleto
                </a>
            </p>`,
			e.PayerName, e.DueDate, e.Amount.FormatBRL(), e.DocumentURL, color)

	default:
		body = fmt.Sprintf("<p>Notificação sobre seu boleto: %s</p>", title)
	}

	html = fmt.Sprintf(`
    <html>
    <body style="font-family: 'Segoe UI', Arial, sans-serif; background-color: #f1f5f9; margin: 0; padding: 40px 0;">
        <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 12px; box-shadow: 0 4px 6px -1px rgba(0, 0, 0, 0.1); overflow: hidden;">
            <div style="background-color: %s; padding: 20px; text-align: center;">
                <h2 style="color: white; margin: 0; font-size: 24px;">%s</h2>
            </div>
            <div style="padding: 30px; color: #334155; line-height: 1.6;">
                %s
                <hr style="border: 0; border-top: 1px solid #e2e8f0; margin: 30px 0;">
                <p style="font-size: 12px; color: #94a3b8; text-align: center;">
                    IAudit - Automação Fiscal Inteligente<br>
                    Este é um email automático, por favor não responda.
                </p>
            </div>
        </div>
    </body>
    </html>`, color, title, body)

	return subject, html
}

// renderWhatsApp builds the plain-text WhatsApp message for an event.
func renderWhatsApp(event domain.NotificationEvent) string {
	switch e := event.(type) {
	case domain.InvoiceIssued:
		return fmt.Sprintf(
			"📄 *Boleto Disponível - iAudit*\n\n"+
				"Olá %s, seu boleto de *%s* com vencimento em *%s* foi gerado.\n\n"+
				"📎 *Baixar PDF:* %s\n\n"+
				"👇 *Linha Digitável:*\n%s",
			e.PayerName, e.Amount.FormatBRL(), e.DueDate, e.DocumentURL, e.DigitableLine)

	case domain.InvoicePaid:
		return fmt.Sprintf(
			"✅ *Pagamento Confirmado - iAudit*\n\n"+
				"Olá %s, confirmamos o pagamento de *%s*.\n"+
				"Obrigado!",
			e.PayerName, e.Amount.FormatBRL())

	case domain.InvoiceOverdue:
		return fmt.Sprintf(
			"⚠️ *Aviso de Pendência - iAudit*\n\n"+
				"Olá %s, o boleto de *%s* venceu em *%s*.\n"+
				"Por favor, regularize para manter os serviços ativos.\n\n"+
				"📎 *2ª Via:* %s",
			e.PayerName, e.Amount.FormatBRL(), e.DueDate, e.DocumentURL)
	}

	return fmt.Sprintf("iAudit: Notificação sobre seu boleto (%s).", event.EventType())
}
