// Package tools implements the dispatch table mapping assistant tool names
// to typed handlers backed by the retrieval client.
package tools

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/internal/retrieval"
	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
	"github.com/savoir-ai/whatsapp-assistant/pkg/metrics"
)

// Retriever is the subset of the retrieval client used by tool handlers.
type Retriever interface {
	CreateCollection(ctx context.Context, name, description string) retrieval.Result
	ListCollections(ctx context.Context, offset, limit int) retrieval.Result
	CreateDocument(ctx context.Context, rawText string) retrieval.Result
	AddDocumentToCollection(ctx context.Context, collectionID, documentID string) retrieval.Result
	Search(ctx context.Context, query, collectionID string, maxChunks int, semantic bool) retrieval.Result
	RAG(ctx context.Context, query, collectionID string, maxChunks int, model string, temperature float64) retrieval.Result
}

// Handler executes one tool call with its decoded JSON arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool pairs the assistant-facing function definition with its handler.
type Tool struct {
	Definition openai.AssistantTool
	Handler    Handler
}

// Registry is the dispatch table. It is populated once at construction and
// read-only afterwards, so it is safe for concurrent dispatch.
type Registry struct {
	retriever Retriever
	logger    *logger.Logger
	tools     map[string]Tool
	order     []string
}

// NewRegistry creates a registry with all built-in tools registered.
func NewRegistry(retriever Retriever, log *logger.Logger) *Registry {
	r := &Registry{
		retriever: retriever,
		logger:    log,
		tools:     make(map[string]Tool),
	}
	r.registerBuiltins()
	return r
}

func (r *Registry) register(name, description string, parameters map[string]any, handler Handler) {
	r.tools[name] = Tool{
		Definition: openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        name,
				Description: description,
				Parameters:  parameters,
			},
		},
		Handler: handler,
	}
	r.order = append(r.order, name)
}

// Definitions returns the assistant-facing tool definitions in
// registration order, for assistant provisioning.
func (r *Registry) Definitions() []openai.AssistantTool {
	defs := make([]openai.AssistantTool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Dispatch runs the named tool against a raw JSON argument object and
// returns the serialized tool output. Failures of any kind (unknown name,
// bad arguments, remote errors) are serialized as {"error": ...} payloads
// for the assistant to recover from; Dispatch itself never fails.
func (r *Registry) Dispatch(ctx context.Context, name, rawArgs string) string {
	tool, ok := r.tools[name]
	if !ok {
		r.logger.Warn("unknown tool requested", zap.String("tool", name))
		metrics.RecordToolCall(name, "unknown")
		return errorPayload(&UnknownToolError{Name: name})
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			r.logger.Warn("malformed tool arguments",
				zap.String("tool", name),
				zap.Error(err),
			)
			metrics.RecordToolCall(name, "error")
			return errorPayload(validationErrorf("invalid arguments: %v", err))
		}
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		r.logger.Warn("tool call failed",
			zap.String("tool", name),
			zap.Error(err),
		)
		metrics.RecordToolCall(name, "error")
		return errorPayload(err)
	}

	metrics.RecordToolCall(name, "ok")
	return successPayload(result)
}

func errorPayload(err error) string {
	data, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return `{"error":"internal error"}`
	}
	return string(data)
}

func successPayload(result any) string {
	data, err := json.Marshal(map[string]any{"success": true, "data": result})
	if err != nil {
		return errorPayload(err)
	}
	return string(data)
}
