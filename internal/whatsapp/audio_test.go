package whatsapp

import (
	"context"
	"errors"
	"io"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
)

type fakeMedia struct {
	data []byte
	err  error
}

func (f *fakeMedia) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	return f.data, f.err
}

type fakeSpeech struct {
	gotModel string
	gotAudio []byte
	text     string
	err      error
}

func (f *fakeSpeech) CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error) {
	f.gotModel = request.Model
	if request.Reader != nil {
		f.gotAudio, _ = io.ReadAll(request.Reader)
	}
	if f.err != nil {
		return openai.AudioResponse{}, f.err
	}
	return openai.AudioResponse{Text: f.text}, nil
}

func TestTranscribeDownloadsAndTranscribes(t *testing.T) {
	media := &fakeMedia{data: []byte("ogg-bytes")}
	speech := &fakeSpeech{text: "hello from voice"}
	tr := NewTranscriber(media, speech, logger.NewNop())

	text, err := tr.Transcribe(context.Background(), "media-1")

	require.NoError(t, err)
	assert.Equal(t, "hello from voice", text)
	assert.Equal(t, openai.Whisper1, speech.gotModel)
	assert.Equal(t, "ogg-bytes", string(speech.gotAudio))
}

func TestTranscribeDownloadFailure(t *testing.T) {
	media := &fakeMedia{err: errors.New("media gone")}
	tr := NewTranscriber(media, &fakeSpeech{}, logger.NewNop())

	_, err := tr.Transcribe(context.Background(), "media-1")
	assert.ErrorContains(t, err, "failed to download audio")
}

func TestTranscribeAPIFailure(t *testing.T) {
	media := &fakeMedia{data: []byte("ogg")}
	speech := &fakeSpeech{err: errors.New("whisper down")}
	tr := NewTranscriber(media, speech, logger.NewNop())

	_, err := tr.Transcribe(context.Background(), "media-1")
	assert.ErrorContains(t, err, "transcription failed")
}
