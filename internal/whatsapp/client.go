package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/config"
)

// Client talks to the WhatsApp Cloud API for outbound messages.
type Client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	httpClient    *http.Client
	logger        zerolog.Logger
}

func NewClient(cfg config.WhatsAppConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:       cfg.APIBaseURL,
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger.With().Str("component", "whatsapp_client").Logger(),
	}
}

type GenericMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextObj     `json:"text,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type TemplateObj struct {
	Name     string      `json:"name"`
	Language LanguageObj `json:"language"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

// SendText delivers a free-form text message to a phone number in E.164 form.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.sendMessage(ctx, GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &TextObj{Body: body},
	})
}

// SendTemplate delivers a pre-approved message template.
func (c *Client) SendTemplate(ctx context.Context, to, templateName, languageCode string) error {
	if languageCode == "" {
		languageCode = "es"
	}
	return c.sendMessage(ctx, GenericMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: &TemplateObj{
			Name:     templateName,
			Language: LanguageObj{Code: languageCode},
		},
	})
}

func (c *Client) sendMessage(ctx context.Context, msg GenericMessage) error {
	if c.phoneNumberID == "" || c.accessToken == "" {
		return fmt.Errorf("whatsapp client is not configured")
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("whatsapp API error: %s - %s", resp.Status, string(respBody))
	}

	c.logger.Info().
		Str("to", msg.To).
		Str("type", msg.Type).
		Msg("WhatsApp message sent")
	return nil
}
