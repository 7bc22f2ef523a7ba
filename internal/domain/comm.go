/**
 * @description
 * Communication audit log models. Every outbound notification attempt ends up
 * as one immutable entry per channel.
 */
package domain

import "time"

// CommunicationChannel identifies the delivery channel of a log entry.
type CommunicationChannel string

const (
	ChannelEmail    CommunicationChannel = "email"
	ChannelWhatsApp CommunicationChannel = "whatsapp"
)

// CommunicationStatus is the final outcome of a delivery attempt.
type CommunicationStatus string

const (
	CommStatusSent    CommunicationStatus = "sent"
	CommStatusFailed  CommunicationStatus = "failed"
	CommStatusPending CommunicationStatus = "pending"
)

// CommunicationLogEntry is one immutable audit record of a dispatch attempt.
type CommunicationLogEntry struct {
	ID           string               `json:"id"`
	Timestamp    time.Time            `json:"timestamp"`
	Channel      CommunicationChannel `json:"channel"`
	Recipient    string               `json:"recipient"`
	Subject      string               `json:"subject,omitempty"`
	Content      string               `json:"content"`
	Status       CommunicationStatus  `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// CommStats summarizes the communication log for the dashboard.
type CommStats struct {
	Total       int     `json:"total"`
	Sent        int     `json:"sent"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}
