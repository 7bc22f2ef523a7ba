/**
 * @description
 * Notification dispatcher: renders an event per channel and delivers it
 * through every channel that has a destination, recording each attempt in
 * the communication log. Email tries the transactional provider first and
 * falls back to direct SMTP; WhatsApp goes through the messaging gateway.
 * A bounded worker pool backs fire-and-forget dispatches from the billing
 * flow.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JhonatanGabrelTI/Iaudit.alanturing.com/internal/domain"
)

// SettingsProvider exposes the dynamic settings the dispatcher consults.
// The kill switch is read fresh on every dispatch, never cached.
type SettingsProvider interface {
	MessagingEnabled() bool
}

// EmailProvider is the primary transactional email path.
type EmailProvider interface {
	Configured() bool
	Send(ctx context.Context, to, subject, html string) error
}

// DirectMailer is the SMTP fallback path.
type DirectMailer interface {
	Configured() bool
	Send(to, subject, html string) error
}

// WhatsAppSender delivers messages through the messaging gateway.
type WhatsAppSender interface {
	Configured() bool
	SendWhatsApp(ctx context.Context, to, body string) (string, error)
}

// CommLog records every dispatch attempt.
type CommLog interface {
	InsertCommLogEntry(ctx context.Context, entry domain.CommunicationLogEntry) error
}

const (
	dispatchWorkers   = 4
	dispatchQueueSize = 64
	dispatchTimeout   = 60 * time.Second
)

type dispatchTask struct {
	event domain.NotificationEvent
	email string
	phone string
}

// Dispatcher sends boleto lifecycle notifications across channels.
type Dispatcher struct {
	settings SettingsProvider
	email    EmailProvider
	smtp     DirectMailer
	whatsapp WhatsAppSender
	commLog  CommLog
	logger   *slog.Logger

	tasks chan dispatchTask
	wg    sync.WaitGroup
	once  sync.Once
}

// NewDispatcher creates a dispatcher and starts its worker pool.
func NewDispatcher(settings SettingsProvider, email EmailProvider, smtp DirectMailer, whatsapp WhatsAppSender, commLog CommLog, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		settings: settings,
		email:    email,
		smtp:     smtp,
		whatsapp: whatsapp,
		commLog:  commLog,
		logger:   logger,
		tasks:    make(chan dispatchTask, dispatchQueueSize),
	}

	for i := 0; i < dispatchWorkers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	for task := range d.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		d.Dispatch(ctx, task.event, task.email, task.phone)
		cancel()
		d.wg.Done()
	}
}

// DispatchAsync hands the event to the worker pool. Failures are logged by
// the pool itself and never reach the caller.
func (d *Dispatcher) DispatchAsync(event domain.NotificationEvent, email, phone string) {
	d.wg.Add(1)
	d.tasks <- dispatchTask{event: event, email: email, phone: phone}
}

// Wait blocks until every queued asynchronous dispatch has completed.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close drains the pool and stops its workers.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.wg.Wait()
		close(d.tasks)
	})
}

// Dispatch renders and sends the event through every channel that has a
// destination. Channel attempts are independent; one channel failing does
// not prevent the other. Nothing is sent or logged when the global
// messaging switch is off.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.NotificationEvent, email, phone string) {
	if !d.settings.MessagingEnabled() {
		d.logger.Info("messaging disabled via dynamic settings, skipping dispatch", "event", event.EventType())
		return
	}

	if email != "" {
		d.dispatchEmail(ctx, event, email)
	}
	if phone != "" && d.whatsapp != nil && d.whatsapp.Configured() {
		d.dispatchWhatsApp(ctx, event, phone)
	}
}

func (d *Dispatcher) dispatchEmail(ctx context.Context, event domain.NotificationEvent, to string) {
	subject, html := renderEmail(event)

	var sendErr error
	sent := false

	if d.email != nil && d.email.Configured() {
		if err := d.email.Send(ctx, to, subject, html); err == nil {
			sent = true
			d.logger.Info("email sent via provider", "to", to, "event", event.EventType())
		} else {
			sendErr = err
			d.logger.Error("email provider failed, trying SMTP fallback", "to", to, "error", err)
		}
	}

	if !sent && d.smtp != nil && d.smtp.Configured() {
		if err := d.smtp.Send(to, subject, html); err == nil {
			sent = true
			sendErr = nil
			d.logger.Info("email sent via SMTP fallback", "to", to, "event", event.EventType())
		} else {
			sendErr = err
			d.logger.Error("SMTP fallback failed", "to", to, "error", err)
		}
	}

	if !sent && sendErr == nil {
		sendErr = errors.New("no email provider configured")
		d.logger.Warn("no email provider configured")
	}

	d.record(ctx, domain.CommunicationLogEntry{
		Channel:   domain.ChannelEmail,
		Recipient: to,
		Subject:   subject,
		Content:   "Template: " + event.EventType(),
	}, sent, sendErr)
}

func (d *Dispatcher) dispatchWhatsApp(ctx context.Context, event domain.NotificationEvent, to string) {
	body := renderWhatsApp(event)

	sid, err := d.whatsapp.SendWhatsApp(ctx, to, body)
	if err != nil {
		d.logger.Error("whatsapp send failed", "to", to, "error", err)
	} else {
		d.logger.Info("whatsapp sent", "to", to, "sid", sid, "event", event.EventType())
	}

	d.record(ctx, domain.CommunicationLogEntry{
		Channel:   domain.ChannelWhatsApp,
		Recipient: to,
		Content:   body,
	}, err == nil, err)
}

// record writes the final outcome of one channel attempt to the
// communication log.
func (d *Dispatcher) record(ctx context.Context, entry domain.CommunicationLogEntry, sent bool, sendErr error) {
	entry.ID = uuid.New().String()
	entry.Timestamp = time.Now().UTC()
	entry.Status = domain.CommStatusFailed
	if sent {
		entry.Status = domain.CommStatusSent
	}
	if sendErr != nil {
		entry.ErrorMessage = sendErr.Error()
	}

	if err := d.commLog.InsertCommLogEntry(ctx, entry); err != nil {
		d.logger.Error("failed to record communication log entry", "error", err)
	}
}
