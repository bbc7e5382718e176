package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savoir-ai/whatsapp-assistant/internal/retrieval"
	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
)

// newRetrievalBackend fakes the retrieval service with per-path responses.
func newRetrievalBackend(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *retrieval.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.Method+" "+r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "no route"})
	}))
	t.Cleanup(srv.Close)

	client, err := retrieval.New(retrieval.Config{APIKey: "k", BaseURL: srv.URL}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestCreateCollectionRejectsInvalidName(t *testing.T) {
	client := newRetrievalBackend(t, nil)
	h := NewRetrievalHandler(client, &fakeSender{}, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections",
		strings.NewReader(`{"name":"   "}`))
	rec := httptest.NewRecorder()

	h.CreateCollection(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCollectionForwardsToService(t *testing.T) {
	client := newRetrievalBackend(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"POST /collections": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"id": "col-1", "name": "notes"})
		},
	})
	h := NewRetrievalHandler(client, &fakeSender{}, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections",
		strings.NewReader(`{"name":"notes"}`))
	rec := httptest.NewRecorder()

	h.CreateCollection(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "col-1", out["id"])
}

func TestCreateDocumentComposesCreateAndAssociate(t *testing.T) {
	associated := false
	client := newRetrievalBackend(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"POST /documents": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"id": "doc-1"})
		},
		"POST /collections/col-1/documents/doc-1": func(w http.ResponseWriter, r *http.Request) {
			associated = true
			json.NewEncoder(w).Encode(map[string]any{"result": "ok"})
		},
	})
	h := NewRetrievalHandler(client, &fakeSender{}, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents",
		strings.NewReader(`{"raw_text":"hello","collection_id":"col-1"}`))
	rec := httptest.NewRecorder()

	h.CreateDocument(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, associated)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "doc-1", out["document_id"])
	assert.Equal(t, "col-1", out["collection_id"])
}

func TestCreateDocumentAssociationFailureNamesOrphan(t *testing.T) {
	client := newRetrievalBackend(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"POST /documents": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"id": "doc-1"})
		},
	})
	h := NewRetrievalHandler(client, &fakeSender{}, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents",
		strings.NewReader(`{"raw_text":"hello","collection_id":"col-missing"}`))
	rec := httptest.NewRecorder()

	h.CreateDocument(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "doc-1")
}

func TestSearchRequiresQuery(t *testing.T) {
	client := newRetrievalBackend(t, nil)
	h := NewRetrievalHandler(client, &fakeSender{}, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageValidatesRecipient(t *testing.T) {
	client := newRetrievalBackend(t, nil)
	sender := &fakeSender{}
	h := NewRetrievalHandler(client, sender, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages",
		strings.NewReader(`{"to":"not-a-number","body":"hi"}`))
	rec := httptest.NewRecorder()

	h.SendMessage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, sender.calls)
}

func TestSendMessageDelivers(t *testing.T) {
	client := newRetrievalBackend(t, nil)
	sender := &fakeSender{}
	h := NewRetrievalHandler(client, sender, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages",
		strings.NewReader(`{"to":"15551234567","body":"hi there"}`))
	rec := httptest.NewRecorder()

	h.SendMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "15551234567", sender.lastTo)
	assert.Equal(t, "hi there", sender.lastBody)
}
