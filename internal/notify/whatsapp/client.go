// Package whatsapp delivers the daily report through the WhatsApp Business
// Cloud API as a pre-registered message template.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ttacon/libphonenumber"

	"canteen/internal/core"
)

const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL          string
	APIVersion       string
	PhoneNumberID    string
	AccessToken      string
	TemplateName     string
	TemplateLanguage string
	CurrencySymbol   string
	// DefaultRegion is used to parse recipients written without a country code.
	DefaultRegion string
	Timeout       time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether both the access token and the sender are set.
func (c *Client) Configured() bool {
	return c.cfg.AccessToken != "" && c.cfg.PhoneNumberID != ""
}

type (
	templateMessage struct {
		MessagingProduct string   `json:"messaging_product"`
		To               string   `json:"to"`
		Type             string   `json:"type"`
		Template         template `json:"template"`
	}

	template struct {
		Name       string      `json:"name"`
		Language   language    `json:"language"`
		Components []component `json:"components"`
	}

	language struct {
		Code string `json:"code"`
	}

	component struct {
		Type       string      `json:"type"`
		Parameters []parameter `json:"parameters"`
	}

	parameter struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}

	sendResponse struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}

	errorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
)

// Notify renders the summary into the report template and sends it to
// recipient with a single request. There are no retries; every failure
// is reported in the result rather than returned.
func (c *Client) Notify(ctx context.Context, recipient string, s core.DailySummary) core.NotifyResult {
	if !c.Configured() {
		return core.NotifyResult{Err: core.ErrNotifierNotConfigured}
	}

	to, err := NormalizeRecipient(recipient, c.cfg.DefaultRegion)
	if err != nil {
		return core.NotifyResult{Err: err}
	}

	body, err := json.Marshal(c.buildMessage(to, s))
	if err != nil {
		return core.NotifyResult{Err: fmt.Errorf("encode template message: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return core.NotifyResult{Err: fmt.Errorf("build provider request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	slog.DebugContext(ctx, "Sending report template",
		"template", c.cfg.TemplateName,
		"report_date", s.ReportDate.Format(time.DateOnly))

	resp, err := c.http.Do(req)
	if err != nil {
		return core.NotifyResult{Err: fmt.Errorf("messaging provider unreachable: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return core.NotifyResult{Err: fmt.Errorf("read provider response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.NotifyResult{Err: providerError(resp.StatusCode, raw)}
	}

	var sent sendResponse
	if err := json.Unmarshal(raw, &sent); err != nil {
		slog.WarnContext(ctx, "Provider accepted message with unreadable body", "error", err)
		return core.NotifyResult{Success: true}
	}

	result := core.NotifyResult{Success: true}
	if len(sent.Messages) > 0 {
		result.MessageID = sent.Messages[0].ID
	}
	return result
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/%s/%s/messages",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.APIVersion, c.cfg.PhoneNumberID)
}

func (c *Client) buildMessage(to string, s core.DailySummary) templateMessage {
	values := core.TemplateParams(s, c.cfg.CurrencySymbol)
	params := make([]parameter, 0, len(values))
	for _, v := range values {
		params = append(params, parameter{Type: "text", Text: v})
	}

	return templateMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: template{
			Name:     c.cfg.TemplateName,
			Language: language{Code: c.cfg.TemplateLanguage},
			Components: []component{
				{Type: "body", Parameters: params},
			},
		},
	}
}

func providerError(status int, raw []byte) error {
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message != "" {
		return fmt.Errorf("messaging provider returned %d: %s (code %d)", status, e.Error.Message, e.Error.Code)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		text = http.StatusText(status)
	}
	return fmt.Errorf("messaging provider returned %d: %s", status, text)
}

// NormalizeRecipient parses a phone number and returns it in E.164 form
// without the leading plus, which is what the provider expects in "to".
func NormalizeRecipient(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("report recipient is empty")
	}
	if region == "" {
		region = "IN"
	}

	num, err := libphonenumber.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("parse recipient %q: %w", raw, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", fmt.Errorf("recipient %q is not a valid phone number", raw)
	}
	return strings.TrimPrefix(libphonenumber.Format(num, libphonenumber.E164), "+"), nil
}
