// Package assistant implements the conversational run engine: per-user
// thread lifecycle, run polling, and tool-call dispatch against the
// external assistant API.
package assistant

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// API is the subset of the assistant service client the engine uses.
// *openai.Client satisfies it; tests substitute fakes.
type API interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error)
	ListRuns(ctx context.Context, threadID string, pagination openai.Pagination) (openai.RunList, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, request openai.SubmitToolOutputsRequest) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string) (openai.MessagesList, error)
}

// ProvisionAPI is the subset of the client used for assistant provisioning.
type ProvisionAPI interface {
	RetrieveAssistant(ctx context.Context, assistantID string) (openai.Assistant, error)
	CreateAssistant(ctx context.Context, request openai.AssistantRequest) (openai.Assistant, error)
	ModifyAssistant(ctx context.Context, assistantID string, request openai.AssistantRequest) (openai.Assistant, error)
}

// Dispatcher executes one tool call and returns its serialized output.
// *tools.Registry satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name, rawArgs string) string
}
