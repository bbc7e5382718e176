package whatsapp

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
	"github.com/savoir-ai/whatsapp-assistant/pkg/metrics"
)

// MediaDownloader fetches a media attachment by its WhatsApp media ID.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, error)
}

// TranscriptionAPI is the slice of the OpenAI client used for speech
// to text.
type TranscriptionAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Transcriber turns inbound voice notes into text so they can enter
// the same conversation path as typed messages.
type Transcriber struct {
	media  MediaDownloader
	api    TranscriptionAPI
	logger *logger.Logger
}

// NewTranscriber creates a transcriber over the given media source and
// speech-to-text API.
func NewTranscriber(media MediaDownloader, api TranscriptionAPI, log *logger.Logger) *Transcriber {
	return &Transcriber{media: media, api: api, logger: log}
}

// Transcribe downloads the audio attachment and returns its text.
func (t *Transcriber) Transcribe(ctx context.Context, mediaID string) (string, error) {
	audio, err := t.media.DownloadMedia(ctx, mediaID)
	if err != nil {
		metrics.RecordTranscription("error")
		return "", fmt.Errorf("failed to download audio: %w", err)
	}

	resp, err := t.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: "voice-note.ogg",
	})
	if err != nil {
		metrics.RecordTranscription("error")
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	metrics.RecordTranscription("ok")
	t.logger.Info("audio transcribed", zap.String("media_id", mediaID), zap.Int("chars", len(resp.Text)))
	return resp.Text, nil
}
