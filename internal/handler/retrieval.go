package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/internal/middleware"
	"github.com/savoir-ai/whatsapp-assistant/internal/model"
	"github.com/savoir-ai/whatsapp-assistant/internal/retrieval"
	"github.com/savoir-ai/whatsapp-assistant/internal/tools"
	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
)

// RetrievalHandler exposes the knowledge base and outbound messaging
// to operators, bypassing the conversational loop.
type RetrievalHandler struct {
	client *retrieval.Client
	sender MessageSender
	logger *logger.Logger
}

// NewRetrievalHandler creates the operator API handler.
func NewRetrievalHandler(client *retrieval.Client, sender MessageSender, log *logger.Logger) *RetrievalHandler {
	return &RetrievalHandler{
		client: client,
		sender: sender,
		logger: log,
	}
}

// CreateCollection handles POST /api/v1/collections
func (h *RetrievalHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := tools.ValidateCollectionName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respond(w, h.client.CreateCollection(r.Context(), req.Name, req.Description), http.StatusCreated)
}

// ListCollections handles GET /api/v1/collections
func (h *RetrievalHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 100)

	h.respond(w, h.client.ListCollections(r.Context(), offset, limit), http.StatusOK)
}

// CreateDocument handles POST /api/v1/documents. The document is
// created first and then associated with the collection; a failure in
// the second step leaves the document orphaned and reports its ID.
func (h *RetrievalHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := tools.ValidateDocumentRequest(req.RawText, req.CollectionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created := h.client.CreateDocument(r.Context(), req.RawText)
	if !created.OK {
		writeError(w, http.StatusBadGateway, created.Err)
		return
	}

	documentID := retrieval.DocumentIDFrom(created.Data)
	if documentID == "" {
		writeError(w, http.StatusBadGateway, "document created but no ID returned")
		return
	}

	assoc := h.client.AddDocumentToCollection(r.Context(), req.CollectionID, documentID)
	if !assoc.OK {
		h.logger.Error("document orphaned after failed association",
			zap.String("document_id", documentID),
			zap.String("collection_id", req.CollectionID))
		writeError(w, http.StatusBadGateway,
			"document "+documentID+" created but could not be added to collection: "+assoc.Err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"document_id":   documentID,
		"collection_id": req.CollectionID,
	})
}

// Search handles POST /api/v1/search
func (h *RetrievalHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	h.respond(w, h.client.Search(r.Context(), req.Query, req.CollectionID, req.MaxChunks, req.Semantic), http.StatusOK)
}

// RAG handles POST /api/v1/rag
func (h *RetrievalHandler) RAG(w http.ResponseWriter, r *http.Request) {
	var req model.RAGRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	h.respond(w, h.client.RAG(r.Context(), req.Query, req.CollectionID, req.MaxChunks, req.Model, req.Temperature), http.StatusOK)
}

// SendMessage handles POST /api/v1/messages
func (h *RetrievalHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidatePhoneNumber(req.To); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sender.Send(r.Context(), req.To, req.Body); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *RetrievalHandler) respond(w http.ResponseWriter, res retrieval.Result, status int) {
	if !res.OK {
		writeError(w, http.StatusBadGateway, res.Err)
		return
	}
	writeJSON(w, status, res.Data)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
