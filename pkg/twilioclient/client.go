/**
 * @description
 * Client for the Twilio Messages API, used for WhatsApp delivery.
 * Destination numbers are normalized to the "whatsapp:+<country><number>"
 * format Twilio requires, defaulting to the Brazilian country code.
 */
package twilioclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Twilio API host.
const DefaultBaseURL = "https://api.twilio.com"

// Client is a client for the Twilio Messages API.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
}

// NewClient creates a new Twilio client. Empty credentials leave the client
// unconfigured; see Configured.
func NewClient(baseURL, accountSID, authToken, fromNumber string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether account credentials are present.
func (c *Client) Configured() bool {
	return c.accountSID != "" && c.authToken != ""
}

type messageResponse struct {
	SID string `json:"sid"`
}

// SendWhatsApp delivers one WhatsApp message and returns the message SID.
func (c *Client) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", c.fromNumber)
	form.Set("To", NormalizeWhatsAppNumber(to))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var msg messageResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return "", fmt.Errorf("failed to decode twilio response: %w", err)
	}
	return msg.SID, nil
}

// NormalizeWhatsAppNumber converts a free-form phone number to Twilio's
// WhatsApp destination format. Numbers without a country code get the
// Brazilian prefix.
func NormalizeWhatsAppNumber(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}

	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	clean := digits.String()
	if !strings.HasPrefix(clean, "55") {
		clean = "55" + clean
	}
	return "whatsapp:+" + clean
}
