package tools

import (
	"context"
	"strings"

	"github.com/savoir-ai/whatsapp-assistant/internal/retrieval"
)

const (
	maxCollectionNameLen = 100

	defaultSearchChunks = 5
	defaultRAGChunks    = 8
	defaultRAGModel     = "gpt-4"
	defaultRAGTemp      = 0.7
)

func (r *Registry) registerBuiltins() {
	r.register("create_collection",
		"Creates a new collection to store documents.",
		objectSchema(map[string]any{
			"name":        stringProp("Name of the collection."),
			"description": stringProp("Optional description of the collection."),
		}, "name"),
		r.handleCreateCollection,
	)

	r.register("create_document",
		"Creates a new document with the given content and adds it to a collection. The collection must be specified.",
		objectSchema(map[string]any{
			"raw_text":      stringProp("The text content to be uploaded."),
			"collection_id": stringProp("ID of the collection to add the document to. This is required."),
		}, "raw_text", "collection_id"),
		r.handleCreateDocument,
	)

	r.register("list_user_collections",
		"Lists all available collections.",
		objectSchema(map[string]any{}),
		r.handleListCollections,
	)

	r.register("add_document_to_collection",
		"Adds an existing document to a collection.",
		objectSchema(map[string]any{
			"document_id":   stringProp("ID of the document to add."),
			"collection_id": stringProp("ID of the collection to add the document to."),
		}, "document_id", "collection_id"),
		r.handleAddDocumentToCollection,
	)

	r.register("search",
		"Performs a search across documents to find relevant chunks.",
		objectSchema(map[string]any{
			"query":         stringProp("What you are searching for."),
			"collection_id": stringProp("Optional collection ID to restrict the search."),
			"max_chunks":    map[string]any{"type": "integer", "default": defaultSearchChunks},
			"semantic":      map[string]any{"type": "boolean", "description": "Whether to use semantic search (default: false)."},
		}, "query"),
		r.handleSearch,
	)

	r.register("rag",
		"Answers a question using information from documents.",
		objectSchema(map[string]any{
			"query":         stringProp("The user question or request."),
			"collection_id": stringProp("Optional collection ID to use for retrieval."),
			"max_chunks":    map[string]any{"type": "integer", "default": defaultRAGChunks},
			"model":         stringProp("Model to use for generation (default: gpt-4)."),
			"temperature":   map[string]any{"type": "number", "description": "Temperature for generation (default: 0.7)."},
		}, "query"),
		r.handleRAG,
	)
}

func (r *Registry) handleCreateCollection(ctx context.Context, args map[string]any) (any, error) {
	name := strArg(args, "name")
	if err := ValidateCollectionName(name); err != nil {
		return nil, err
	}

	res := r.retriever.CreateCollection(ctx, name, strArg(args, "description"))
	if !res.OK {
		return nil, &RemoteError{Op: "create collection", Message: res.Err}
	}
	return res.Data, nil
}

// handleCreateDocument composes two dependent calls: document creation and
// collection association. A failure in the second step leaves an orphaned
// document; the error payload names the step and the orphan's ID so the
// assistant can retry the association.
func (r *Registry) handleCreateDocument(ctx context.Context, args map[string]any) (any, error) {
	rawText := strArg(args, "raw_text")
	collectionID := strArg(args, "collection_id")
	if err := ValidateDocumentRequest(rawText, collectionID); err != nil {
		return nil, err
	}

	created := r.retriever.CreateDocument(ctx, rawText)
	if !created.OK {
		return nil, &RemoteError{Op: "create document", Message: created.Err}
	}

	documentID := documentIDFrom(created)
	if documentID == "" {
		return nil, &RemoteError{Op: "create document", Message: "response missing document id"}
	}

	assoc := r.retriever.AddDocumentToCollection(ctx, collectionID, documentID)
	if !assoc.OK {
		return nil, &RemoteError{
			Op:      "add document " + documentID + " to collection",
			Message: assoc.Err,
		}
	}

	return map[string]any{
		"document_id":   documentID,
		"collection_id": collectionID,
	}, nil
}

func (r *Registry) handleListCollections(ctx context.Context, args map[string]any) (any, error) {
	offset := intArg(args, "offset", 0)
	limit := intArg(args, "limit", 100)

	res := r.retriever.ListCollections(ctx, offset, limit)
	if !res.OK {
		return nil, &RemoteError{Op: "list collections", Message: res.Err}
	}

	return map[string]any{
		"collections":   normalizeCollections(res.Data),
		"total_entries": intField(res.Data, "total_entries"),
	}, nil
}

func (r *Registry) handleAddDocumentToCollection(ctx context.Context, args map[string]any) (any, error) {
	documentID := strArg(args, "document_id")
	if documentID == "" {
		return nil, validationErrorf("document_id is required")
	}
	collectionID := strArg(args, "collection_id")
	if collectionID == "" {
		return nil, validationErrorf("collection_id is required")
	}

	res := r.retriever.AddDocumentToCollection(ctx, collectionID, documentID)
	if !res.OK {
		return nil, &RemoteError{Op: "add document to collection", Message: res.Err}
	}
	return map[string]any{
		"document_id":   documentID,
		"collection_id": collectionID,
	}, nil
}

func (r *Registry) handleSearch(ctx context.Context, args map[string]any) (any, error) {
	query := strArg(args, "query")
	if strings.TrimSpace(query) == "" {
		return nil, validationErrorf("search query cannot be empty")
	}

	res := r.retriever.Search(ctx,
		query,
		strArg(args, "collection_id"),
		intArg(args, "max_chunks", defaultSearchChunks),
		boolArg(args, "semantic"),
	)
	if !res.OK {
		return nil, &RemoteError{Op: "search", Message: res.Err}
	}

	return map[string]any{"results": normalizeChunks(res.Data)}, nil
}

func (r *Registry) handleRAG(ctx context.Context, args map[string]any) (any, error) {
	query := strArg(args, "query")
	if strings.TrimSpace(query) == "" {
		return nil, validationErrorf("query cannot be empty")
	}

	model := strArg(args, "model")
	if model == "" {
		model = defaultRAGModel
	}
	temperature := floatArg(args, "temperature", defaultRAGTemp)

	res := r.retriever.RAG(ctx,
		query,
		strArg(args, "collection_id"),
		intArg(args, "max_chunks", defaultRAGChunks),
		model,
		temperature,
	)
	if !res.OK {
		return nil, &RemoteError{Op: "rag", Message: res.Err}
	}

	answer := stringField(res.Data, "answer", "generated_answer")
	if answer == "" {
		if nested, ok := res.Data["results"].(map[string]any); ok {
			answer = stringField(nested, "answer", "generated_answer")
		}
	}

	return map[string]any{
		"answer":  answer,
		"context": res.Data["context"],
	}, nil
}

// ValidateCollectionName enforces the collection naming rules shared by the
// tool handler and the operator API.
func ValidateCollectionName(name string) error {
	if strings.TrimSpace(name) == "" {
		return validationErrorf("collection name is required")
	}
	if len(name) > maxCollectionNameLen {
		return validationErrorf("collection name must be at most %d characters", maxCollectionNameLen)
	}
	if strings.ContainsAny(name, `/\`) {
		return validationErrorf("collection name must not contain path separators")
	}
	return nil
}

// ValidateDocumentRequest enforces the ingestion rules shared by the
// tool handler and the operator API.
func ValidateDocumentRequest(rawText, collectionID string) error {
	if strings.TrimSpace(rawText) == "" {
		return validationErrorf("document content cannot be empty")
	}
	if collectionID == "" {
		return validationErrorf("collection_id is required")
	}
	return nil
}

// normalizeCollections shapes the service's listing entries into compact
// summaries with defaulted counts. Entries that are not objects are dropped.
func normalizeCollections(data map[string]any) []map[string]any {
	raw, _ := data["results"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"id":             stringField(entry, "id"),
			"name":           stringField(entry, "name"),
			"description":    stringField(entry, "description"),
			"document_count": intField(entry, "document_count"),
		})
	}
	return out
}

// normalizeChunks shapes raw search results into the tool's return contract.
func normalizeChunks(data map[string]any) []map[string]any {
	raw, _ := data["results"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		chunk := map[string]any{
			"content":       stringField(entry, "content", "text"),
			"score":         floatField(entry, "score"),
			"collection_id": stringField(entry, "collection_id"),
			"document_id":   stringField(entry, "document_id"),
		}
		if md, ok := entry["metadata"].(map[string]any); ok {
			chunk["metadata"] = md
		}
		out = append(out, chunk)
	}
	return out
}

// documentIDFrom digs the new document's ID out of the creation response.
func documentIDFrom(res retrieval.Result) string {
	return retrieval.DocumentIDFrom(res.Data)
}

func strArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func floatArg(args map[string]any, key string, def float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return def
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func stringField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func intField(data map[string]any, key string) int {
	if v, ok := data[key].(float64); ok {
		return int(v)
	}
	return 0
}

func floatField(data map[string]any, key string) float64 {
	v, _ := data[key].(float64)
	return v
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	} else {
		schema["required"] = []string{}
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}
