package assistant

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
)

const (
	assistantName  = "Savoir"
	assistantModel = "gpt-4.1"
)

// Provision resolves the configured assistant, or creates a new one with
// the current instructions and tool definitions when no ID is configured.
// With sync set, an existing assistant's instructions and tools are
// updated in place. Returns the assistant ID to run against.
func Provision(ctx context.Context, api ProvisionAPI, assistantID string, defs []openai.AssistantTool, sync bool, log *logger.Logger) (string, error) {
	name := assistantName
	instructions := Instructions

	if assistantID != "" {
		if _, err := api.RetrieveAssistant(ctx, assistantID); err != nil {
			return "", fmt.Errorf("failed to retrieve assistant %s: %w", assistantID, err)
		}
		if sync {
			if _, err := api.ModifyAssistant(ctx, assistantID, openai.AssistantRequest{
				Instructions: &instructions,
				Tools:        defs,
			}); err != nil {
				return "", fmt.Errorf("failed to update assistant %s: %w", assistantID, err)
			}
			log.Info("assistant updated", zap.String("assistant_id", assistantID))
		}
		return assistantID, nil
	}

	created, err := api.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        assistantModel,
		Name:         &name,
		Instructions: &instructions,
		Tools:        defs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create assistant: %w", err)
	}

	// The new ID must be persisted in OPENAI_ASSISTANT_ID, otherwise every
	// restart creates another assistant.
	log.Warn("created new assistant, set OPENAI_ASSISTANT_ID to reuse it",
		zap.String("assistant_id", created.ID),
	)
	return created.ID, nil
}
