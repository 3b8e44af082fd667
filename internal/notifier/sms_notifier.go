package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PixelPath7/vive-sano/configs"
	"github.com/PixelPath7/vive-sano/internal/models"
)

type SMSResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			StatusCode int    `json:"statusCode"`
			Number     string `json:"number"`
			Cost       string `json:"cost"`
			Status     string `json:"status"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// SMSChannel delivers notifications through the Africa's Talking
// messaging API.
type SMSChannel struct {
	cfg    config.AfricaTalkingConfig
	client *http.Client
}

func NewSMSChannel(cfg config.AfricaTalkingConfig) *SMSChannel {
	return &SMSChannel{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *SMSChannel) Name() string { return "sms" }

func smsText(n models.Notification) string {
	return fmt.Sprintf("Vive Sano - pedido #%d: %s", n.OrderID, n.Message)
}

func (s *SMSChannel) Deliver(ctx context.Context, to models.Client, n models.Notification) error {
	if to.Phone == "" {
		return ErrMissingContact
	}

	data := url.Values{}
	data.Set("username", s.cfg.Username)
	data.Set("to", to.Phone)
	data.Set("message", smsText(n))
	data.Set("from", s.cfg.SenderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.SMSURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("SMS send failed: %w", err)
	}
	defer resp.Body.Close()

	var smsResp SMSResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&smsResp)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("to", to.Phone).
			Uint("order_id", n.OrderID).
			Str("message", smsResp.SMSMessageData.Message).
			Msg("SMS API returned an error")
		return fmt.Errorf("SMS API returned non-success status: %d", resp.StatusCode)
	}

	if decodeErr != nil {
		return fmt.Errorf("failed to decode SMS response: %w", decodeErr)
	}

	log.Info().
		Str("to", to.Phone).
		Uint("order_id", n.OrderID).
		Str("message", smsResp.SMSMessageData.Message).
		Msg("SMS sent")
	return nil
}
