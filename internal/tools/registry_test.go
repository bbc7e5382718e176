package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savoir-ai/whatsapp-assistant/internal/retrieval"
	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
)

// countingRetriever records calls and returns scripted results per
// operation. Unset operations return a generic success.
type countingRetriever struct {
	calls   map[string]int
	results map[string]retrieval.Result

	lastListOffset int
	lastListLimit  int
	lastSearch     struct {
		query        string
		collectionID string
		maxChunks    int
		semantic     bool
	}
	lastRAG struct {
		model       string
		maxChunks   int
		temperature float64
	}
}

func newCountingRetriever() *countingRetriever {
	return &countingRetriever{
		calls:   make(map[string]int),
		results: make(map[string]retrieval.Result),
	}
}

func (c *countingRetriever) result(op string) retrieval.Result {
	c.calls[op]++
	if res, ok := c.results[op]; ok {
		return res
	}
	return retrieval.Result{OK: true, Data: map[string]any{}}
}

func (c *countingRetriever) CreateCollection(ctx context.Context, name, description string) retrieval.Result {
	return c.result("create_collection")
}

func (c *countingRetriever) ListCollections(ctx context.Context, offset, limit int) retrieval.Result {
	c.lastListOffset = offset
	c.lastListLimit = limit
	return c.result("list_collections")
}

func (c *countingRetriever) CreateDocument(ctx context.Context, rawText string) retrieval.Result {
	return c.result("create_document")
}

func (c *countingRetriever) AddDocumentToCollection(ctx context.Context, collectionID, documentID string) retrieval.Result {
	return c.result("add_document")
}

func (c *countingRetriever) Search(ctx context.Context, query, collectionID string, maxChunks int, semantic bool) retrieval.Result {
	c.lastSearch.query = query
	c.lastSearch.collectionID = collectionID
	c.lastSearch.maxChunks = maxChunks
	c.lastSearch.semantic = semantic
	return c.result("search")
}

func (c *countingRetriever) RAG(ctx context.Context, query, collectionID string, maxChunks int, model string, temperature float64) retrieval.Result {
	c.lastRAG.model = model
	c.lastRAG.maxChunks = maxChunks
	c.lastRAG.temperature = temperature
	return c.result("rag")
}

func totalCalls(c *countingRetriever) int {
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func decodePayload(t *testing.T, payload string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &out))
	return out
}

func TestDispatchUnknownToolReturnsErrorPayload(t *testing.T) {
	retriever := newCountingRetriever()
	registry := NewRegistry(retriever, logger.NewNop())

	payload := registry.Dispatch(context.Background(), "no_such_tool", `{}`)

	out := decodePayload(t, payload)
	assert.Equal(t, "unknown function no_such_tool", out["error"])
	assert.Zero(t, totalCalls(retriever))
}

func TestDispatchMalformedArgumentsReturnsErrorPayload(t *testing.T) {
	retriever := newCountingRetriever()
	registry := NewRegistry(retriever, logger.NewNop())

	payload := registry.Dispatch(context.Background(), "search", `{not json`)

	out := decodePayload(t, payload)
	assert.Contains(t, out["error"], "invalid arguments")
	assert.Zero(t, totalCalls(retriever))
}

func TestDispatchValidationFailsBeforeAnyNetworkCall(t *testing.T) {
	cases := []struct {
		tool string
		args string
	}{
		{"create_collection", `{"name":"   "}`},
		{"create_collection", `{"name":"a/b"}`},
		{"create_document", `{"raw_text":"","collection_id":"c1"}`},
		{"create_document", `{"raw_text":"hello"}`},
		{"add_document_to_collection", `{"document_id":"d1"}`},
		{"search", `{"query":"  "}`},
		{"rag", `{}`},
	}

	for _, tc := range cases {
		retriever := newCountingRetriever()
		registry := NewRegistry(retriever, logger.NewNop())

		payload := registry.Dispatch(context.Background(), tc.tool, tc.args)

		out := decodePayload(t, payload)
		assert.NotEmpty(t, out["error"], "%s %s", tc.tool, tc.args)
		assert.Zero(t, totalCalls(retriever), "%s %s must not reach the service", tc.tool, tc.args)
	}
}

func TestDispatchCreateDocumentComposesBothSteps(t *testing.T) {
	retriever := newCountingRetriever()
	retriever.results["create_document"] = retrieval.Result{
		OK:   true,
		Data: map[string]any{"results": map[string]any{"document_id": "doc-7"}},
	}
	registry := NewRegistry(retriever, logger.NewNop())

	payload := registry.Dispatch(context.Background(), "create_document",
		`{"raw_text":"content","collection_id":"col-1"}`)

	out := decodePayload(t, payload)
	require.Equal(t, true, out["success"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "doc-7", data["document_id"])
	assert.Equal(t, "col-1", data["collection_id"])
	assert.Equal(t, 1, retriever.calls["create_document"])
	assert.Equal(t, 1, retriever.calls["add_document"])
}

func TestDispatchCreateDocumentAssociationFailureNamesOrphan(t *testing.T) {
	retriever := newCountingRetriever()
	retriever.results["create_document"] = retrieval.Result{
		OK:   true,
		Data: map[string]any{"id": "doc-7"},
	}
	retriever.results["add_document"] = retrieval.Result{Err: "collection not found"}
	registry := NewRegistry(retriever, logger.NewNop())

	payload := registry.Dispatch(context.Background(), "create_document",
		`{"raw_text":"content","collection_id":"col-bad"}`)

	out := decodePayload(t, payload)
	errMsg, _ := out["error"].(string)
	assert.Contains(t, errMsg, "doc-7")
	assert.Contains(t, errMsg, "collection not found")
}

func TestDispatchSearchAppliesDefaults(t *testing.T) {
	retriever := newCountingRetriever()
	retriever.results["search"] = retrieval.Result{OK: true, Data: map[string]any{
		"results": []any{
			map[string]any{"text": "chunk one", "score": 0.9, "document_id": "d1"},
		},
	}}
	registry := NewRegistry(retriever, logger.NewNop())

	payload := registry.Dispatch(context.Background(), "search", `{"query":"tax law"}`)

	out := decodePayload(t, payload)
	require.Equal(t, true, out["success"])
	assert.Equal(t, "tax law", retriever.lastSearch.query)
	assert.Equal(t, defaultSearchChunks, retriever.lastSearch.maxChunks)
	assert.False(t, retriever.lastSearch.semantic)

	data := out["data"].(map[string]any)
	results := data["results"].([]any)
	require.Len(t, results, 1)
	chunk := results[0].(map[string]any)
	assert.Equal(t, "chunk one", chunk["content"])
}

func TestDispatchRAGAppliesDefaultsAndExtractsAnswer(t *testing.T) {
	retriever := newCountingRetriever()
	retriever.results["rag"] = retrieval.Result{OK: true, Data: map[string]any{
		"results": map[string]any{"generated_answer": "forty-two"},
	}}
	registry := NewRegistry(retriever, logger.NewNop())

	payload := registry.Dispatch(context.Background(), "rag", `{"query":"meaning of life"}`)

	out := decodePayload(t, payload)
	require.Equal(t, true, out["success"])
	assert.Equal(t, defaultRAGModel, retriever.lastRAG.model)
	assert.Equal(t, defaultRAGChunks, retriever.lastRAG.maxChunks)
	assert.InDelta(t, defaultRAGTemp, retriever.lastRAG.temperature, 0.001)

	data := out["data"].(map[string]any)
	assert.Equal(t, "forty-two", data["answer"])
}

func TestDispatchRemoteErrorBecomesErrorPayload(t *testing.T) {
	retriever := newCountingRetriever()
	retriever.results["create_collection"] = retrieval.Result{Err: "service down"}
	registry := NewRegistry(retriever, logger.NewNop())

	payload := registry.Dispatch(context.Background(), "create_collection", `{"name":"notes"}`)

	out := decodePayload(t, payload)
	assert.Contains(t, out["error"], "service down")
}

func TestDefinitionsCoverAllBuiltins(t *testing.T) {
	registry := NewRegistry(newCountingRetriever(), logger.NewNop())

	defs := registry.Definitions()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Function.Name)
	}

	assert.Equal(t, []string{
		"create_collection",
		"create_document",
		"list_user_collections",
		"add_document_to_collection",
		"search",
		"rag",
	}, names)
}
