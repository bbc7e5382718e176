// Package whatsapp provides the outbound WhatsApp message relay, the
// identity stub, and audio message transcription.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
	"github.com/savoir-ai/whatsapp-assistant/pkg/metrics"
)

// DefaultGraphBaseURL is the Graph API root used for sends and media.
const DefaultGraphBaseURL = "https://graph.facebook.com/v22.0"

// DeliveryError reports a non-success response from the send API.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed with status %d: %s", e.StatusCode, e.Body)
}

// SenderConfig holds Graph API credentials and addressing.
type SenderConfig struct {
	APIKey        string
	PhoneNumberID string
	BaseURL       string
	Timeout       time.Duration
}

// Sender delivers text messages through the WhatsApp Graph API. One
// attempt per Send call; retrying is the caller's decision.
type Sender struct {
	apiKey        string
	phoneNumberID string
	baseURL       string
	httpc         *http.Client
	logger        *logger.Logger
}

// NewSender creates a message sender. Credentials are required up front.
func NewSender(cfg SenderConfig, log *logger.Logger) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("WhatsApp API key is required")
	}
	if cfg.PhoneNumberID == "" {
		return nil, errors.New("WhatsApp phone number ID is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Sender{
		apiKey:        cfg.APIKey,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       baseURL,
		httpc:         &http.Client{Timeout: timeout},
		logger:        log,
	}, nil
}

// Send delivers one text message to the recipient. A non-200 response
// yields a *DeliveryError carrying the remote status and body.
func (s *Sender) Send(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"preview_url":       false,
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		metrics.RecordDelivery("error")
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		metrics.RecordDelivery("error")
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	metrics.RecordDelivery("ok")
	s.logger.Info("message delivered", zap.String("to", to))
	return nil
}

// DownloadMedia fetches a media attachment by ID: first the metadata
// lookup for the download URL, then the content itself. Both requests
// carry the bearer credential.
func (s *Sender) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	metaReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+mediaID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build media lookup: %w", err)
	}
	metaReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	metaResp, err := s.httpc.Do(metaReq)
	if err != nil {
		return nil, fmt.Errorf("media lookup failed: %w", err)
	}
	defer metaResp.Body.Close()

	if metaResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(metaResp.Body)
		return nil, fmt.Errorf("media lookup failed with status %d: %s", metaResp.StatusCode, string(body))
	}

	var meta struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(metaResp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode media metadata: %w", err)
	}
	if meta.URL == "" {
		return nil, errors.New("media metadata has no download URL")
	}

	fileReq, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build media download: %w", err)
	}
	fileReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	fileResp, err := s.httpc.Do(fileReq)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", err)
	}
	defer fileResp.Body.Close()

	if fileResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download failed with status %d", fileResp.StatusCode)
	}

	return io.ReadAll(fileResp.Body)
}
