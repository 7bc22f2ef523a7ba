/**
 * @description
 * Dynamic runtime settings, editable from the dashboard without a restart.
 * Backed by a JSON document on disk; every read goes back to the file so a
 * toggle (e.g. the messaging kill switch) takes effect on the very next
 * dispatch.
 */
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the dynamic settings document. Unknown keys in the file are
// dropped; missing keys fall back to defaults.
type Settings struct {
	RobotEnabled     bool   `json:"robo_ativo"`
	MessagingEnabled bool   `json:"mensagens_ativas"`
	NotifyOnError    bool   `json:"notificar_erro"`
	NotifyOnSuccess  bool   `json:"notificar_sucesso"`
	WhatsAppProvider string `json:"whatsapp_provider"`
	GmailMethod      string `json:"gmail_method"`

	TemplateWABilling string `json:"template_wa_cobranca"`
	TemplateWAOverdue string `json:"template_wa_atraso"`
	TemplateWAAlert   string `json:"template_wa_alerta"`
}

func defaults() Settings {
	return Settings{
		RobotEnabled:      true,
		MessagingEnabled:  true,
		NotifyOnError:     true,
		NotifyOnSuccess:   false,
		WhatsAppProvider:  "Twilio",
		GmailMethod:       "SMTP Fallback",
		TemplateWABilling: "iAudit: Seu boleto vence em {vencimento}. Valor: R$ {valor}. Linha: {linha}",
		TemplateWAOverdue: "iAudit: Constatamos que seu boleto venceu em {vencimento}. Regularize para evitar protesto.",
		TemplateWAAlert:   "🚨 IAudit Alerta: Empresa {empresa} possui pendência {tipo}. Situação: {situacao}.",
	}
}

// Service reads and persists the dynamic settings file.
type Service struct {
	path string
	mu   sync.Mutex
}

// NewService creates the settings service, seeding the file with defaults
// when it does not exist yet.
func NewService(path string) (*Service, error) {
	s := &Service{path: path}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(defaults()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get returns the current settings, merged over defaults. An unreadable or
// corrupt file yields the defaults.
func (s *Service) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Update merges the given partial document into the current settings and
// persists the result.
func (s *Service) Update(partial map[string]any) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.read()

	merged, err := json.Marshal(current)
	if err != nil {
		return current, err
	}
	var doc map[string]any
	if err := json.Unmarshal(merged, &doc); err != nil {
		return current, err
	}
	for k, v := range partial {
		doc[k] = v
	}

	remarshaled, err := json.Marshal(doc)
	if err != nil {
		return current, err
	}
	updated := defaults()
	if err := json.Unmarshal(remarshaled, &updated); err != nil {
		return current, err
	}

	if err := s.write(updated); err != nil {
		return current, err
	}
	return updated, nil
}

// MessagingEnabled reports the global messaging kill switch, read fresh from
// disk on every call.
func (s *Service) MessagingEnabled() bool {
	return s.Get().MessagingEnabled
}

func (s *Service) read() Settings {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return defaults()
	}

	current := defaults()
	if err := json.Unmarshal(data, &current); err != nil {
		return defaults()
	}
	return current
}

func (s *Service) write(settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
