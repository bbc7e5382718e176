package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *Sender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sender, err := NewSender(SenderConfig{
		APIKey:        "wa-key",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL,
	}, logger.NewNop())
	require.NoError(t, err)
	return sender
}

func TestNewSenderRequiresCredentials(t *testing.T) {
	_, err := NewSender(SenderConfig{PhoneNumberID: "1"}, logger.NewNop())
	assert.Error(t, err)

	_, err = NewSender(SenderConfig{APIKey: "k"}, logger.NewNop())
	assert.Error(t, err)
}

func TestSendBuildsWhatsAppPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	})

	err := sender.Send(context.Background(), "15551234567", "hello")

	require.NoError(t, err)
	assert.Equal(t, "/12345/messages", gotPath)
	assert.Equal(t, "Bearer wa-key", gotAuth)
	assert.Equal(t, "whatsapp", gotBody["messaging_product"])
	assert.Equal(t, "individual", gotBody["recipient_type"])
	assert.Equal(t, "text", gotBody["type"])
	assert.Equal(t, "15551234567", gotBody["to"])
	assert.Equal(t, false, gotBody["preview_url"])
	text := gotBody["text"].(map[string]any)
	assert.Equal(t, "hello", text["body"])
}

func TestSendNonOKStatusReturnsDeliveryError(t *testing.T) {
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token"}}`))
	})

	err := sender.Send(context.Background(), "15551234567", "hello")

	var dErr *DeliveryError
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, http.StatusUnauthorized, dErr.StatusCode)
	assert.Contains(t, dErr.Body, "bad token")
}

func TestDownloadMediaFollowsLookupURL(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/media-1":
			json.NewEncoder(w).Encode(map[string]string{"url": srv.URL + "/content"})
		case "/content":
			assert.Equal(t, "Bearer wa-key", r.Header.Get("Authorization"))
			w.Write([]byte("audio-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	sender, err := NewSender(SenderConfig{
		APIKey:        "wa-key",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL,
	}, logger.NewNop())
	require.NoError(t, err)

	data, err := sender.DownloadMedia(context.Background(), "media-1")

	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}

func TestDownloadMediaMissingURL(t *testing.T) {
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := sender.DownloadMedia(context.Background(), "media-1")
	assert.Error(t, err)
}
