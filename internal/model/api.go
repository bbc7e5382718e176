package model

// CreateCollectionRequest is the operator API request to create a collection.
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateDocumentRequest is the operator API request to ingest a document
// into a collection.
type CreateDocumentRequest struct {
	RawText      string `json:"raw_text"`
	CollectionID string `json:"collection_id"`
}

// SearchRequest is the operator API request for a chunk search.
type SearchRequest struct {
	Query        string `json:"query"`
	CollectionID string `json:"collection_id,omitempty"`
	MaxChunks    int    `json:"max_chunks,omitempty"`
	Semantic     bool   `json:"semantic,omitempty"`
}

// RAGRequest is the operator API request for a RAG query.
type RAGRequest struct {
	Query        string  `json:"query"`
	CollectionID string  `json:"collection_id,omitempty"`
	MaxChunks    int     `json:"max_chunks,omitempty"`
	Model        string  `json:"model,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// SendMessageRequest is the operator API request to deliver a WhatsApp text.
type SendMessageRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}
