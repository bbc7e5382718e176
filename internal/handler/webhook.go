// Package handler contains the HTTP handlers for the webhook and the
// operator API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/internal/assistant"
	"github.com/savoir-ai/whatsapp-assistant/internal/model"
	"github.com/savoir-ai/whatsapp-assistant/internal/whatsapp"
	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
)

// ConversationEngine runs one user message through the assistant and
// returns the answer to relay.
type ConversationEngine interface {
	Run(ctx context.Context, userMessage, userID string) assistant.Answer
}

// MessageSender delivers an outbound text message.
type MessageSender interface {
	Send(ctx context.Context, to, body string) error
}

// AudioTranscriber turns an audio attachment into text.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, mediaID string) (string, error)
}

// WebhookHandler receives WhatsApp webhook deliveries and the
// subscription verification handshake.
type WebhookHandler struct {
	verifyToken string
	engine      ConversationEngine
	sender      MessageSender
	transcriber AudioTranscriber
	logger      *logger.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(verifyToken string, engine ConversationEngine, sender MessageSender, transcriber AudioTranscriber, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		engine:      engine,
		sender:      sender,
		transcriber: transcriber,
		logger:      log,
	}
}

// Verify handles GET /webhook, the platform's subscription handshake.
// The challenge is echoed back verbatim only when the mode and token
// match; anything else is rejected.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.logger.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	h.logger.Warn("webhook verification rejected", zap.String("mode", mode))
	w.WriteHeader(http.StatusForbidden)
}

// Receive handles POST /webhook. The platform retries on non-200, so
// deliveries are always acknowledged; processing failures are logged
// and surfaced to the user as a relayed message where possible.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	defer h.ack(w)

	var payload model.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn("failed to decode webhook payload", zap.Error(err))
		return
	}

	msg := payload.FirstMessage()
	if msg == nil {
		// Status updates and other non-message notifications.
		return
	}

	ctx := r.Context()

	text, ok := h.messageText(ctx, msg)
	if !ok {
		return
	}

	user := whatsapp.AuthenticateByPhone(msg.From)
	log := h.logger.WithConversation(user.ID, "")
	log.Info("processing inbound message", zap.String("type", msg.Type))

	answer := h.engine.Run(ctx, text, user.ID)

	if err := h.sender.Send(ctx, user.Phone, answer.Content); err != nil {
		log.Error("failed to relay answer", zap.Error(err))
	}
}

// messageText extracts the conversational text of an inbound message,
// transcribing voice notes. Unsupported types are skipped.
func (h *WebhookHandler) messageText(ctx context.Context, msg *model.Message) (string, bool) {
	switch msg.Type {
	case "text":
		if msg.Text == nil || msg.Text.Body == "" {
			return "", false
		}
		return msg.Text.Body, true
	case "audio":
		if msg.Audio == nil {
			return "", false
		}
		text, err := h.transcriber.Transcribe(ctx, msg.Audio.ID)
		if err != nil {
			h.logger.Error("failed to transcribe audio message", zap.Error(err))
			return "", false
		}
		return text, true
	default:
		h.logger.Info("skipping unsupported message type", zap.String("type", msg.Type))
		return "", false
	}
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
