package app

import (
	"strings"
	"testing"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

func TestRenderEmail_Issued(t *testing.T) {
	subject, html := renderEmail(issuedEvent())

	if subject != "Fatura Disponível - iAudit" {
		t.Errorf("unexpected subject %q", subject)
	}
	for _, want := range []string{
		"ACME Contabilidade LTDA",
		"R$ 500,00",
		"2025-01-20",
		"23791234567890900000000000005000000000",
		"http://localhost:8000/api/boleto/pdf/FAT-202501-plan-abc",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("email body missing %q", want)
		}
	}
}

func TestRenderEmail_SubjectPerEvent(t *testing.T) {
	amount := domain.MoneyFromCents(50000)

	subject, _ := renderEmail(domain.InvoicePaid{PayerName: "A", Amount: amount})
	if subject != "Confirmação de Pagamento - iAudit" {
		t.Errorf("unexpected paid subject %q", subject)
	}
	subject, _ = renderEmail(domain.InvoiceOverdue{PayerName: "A", Amount: amount})
	if subject != "ALERTA: Fatura em Atraso - iAudit" {
		t.Errorf("unexpected overdue subject %q", subject)
	}
}

func TestRenderEmail_UnknownEventFallsBack(t *testing.T) {
	subject, html := renderEmail(domain.InvoiceReactivated{PayerName: "A", Amount: domain.MoneyFromCents(100)})
	if subject != "Fatura Reativada - iAudit" {
		t.Errorf("unexpected subject %q", subject)
	}
	if !strings.Contains(html, "Boleto Reativado") {
		t.Error("fallback body must carry the event title")
	}
}

func TestRenderWhatsApp(t *testing.T) {
	body := renderWhatsApp(issuedEvent())
	for _, want := range []string{"ACME Contabilidade LTDA", "R$ 500,00", "2025-01-20"} {
		if !strings.Contains(body, want) {
			t.Errorf("whatsapp body missing %q", want)
		}
	}

	body = renderWhatsApp(domain.InvoicePaid{PayerName: "ACME", Amount: domain.MoneyFromCents(50000)})
	if !strings.Contains(body, "Pagamento Confirmado") {
		t.Errorf("unexpected paid body %q", body)
	}
}
