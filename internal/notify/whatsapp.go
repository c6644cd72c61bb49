package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phuslu/log"

	"bewerbungsagent/internal/config"
)

// graph API caps text messages at 4096 chars; stay under it.
const whatsappMaxLen = 4000

// WhatsApp pushes the short digest through the Meta Graph API.
type WhatsApp struct {
	cfg     config.WhatsAppConfig
	client  *http.Client
	baseURL string
}

func NewWhatsApp(cfg config.WhatsAppConfig) *WhatsApp {
	return &WhatsApp{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://graph.facebook.com/v21.0",
	}
}

type whatsappPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsappText `json:"text"`
}

type whatsappText struct {
	Body string `json:"body"`
}

// Send pushes text to the configured number. Disabled channel returns
// (false, nil); an enabled channel with incomplete credentials is a
// configuration error.
func (w *WhatsApp) Send(text string) (bool, error) {
	if !w.cfg.Enabled {
		return false, nil
	}
	if w.cfg.Token == "" || w.cfg.PhoneID == "" || w.cfg.To == "" {
		return false, fmt.Errorf("whatsapp enabled but WHATSAPP_TOKEN/PHONE_ID/TO incomplete")
	}

	if len(text) > whatsappMaxLen {
		text = text[:whatsappMaxLen]
	}
	payload := whatsappPayload{
		MessagingProduct: "whatsapp",
		To:               w.cfg.To,
		Type:             "text",
		Text:             whatsappText{Body: text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.cfg.PhoneID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.cfg.Token)

	resp, err := w.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("whatsapp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("whatsapp API status %d: %s", resp.StatusCode, detail)
	}

	log.Info().Str("to", w.cfg.To).Msg("whatsapp summary sent")
	return true, nil
}
