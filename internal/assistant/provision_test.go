package assistant

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
)

type fakeProvisionAPI struct {
	retrieveErr error
	created     *openai.AssistantRequest
	modified    *openai.AssistantRequest
}

func (f *fakeProvisionAPI) RetrieveAssistant(ctx context.Context, assistantID string) (openai.Assistant, error) {
	if f.retrieveErr != nil {
		return openai.Assistant{}, f.retrieveErr
	}
	return openai.Assistant{ID: assistantID}, nil
}

func (f *fakeProvisionAPI) CreateAssistant(ctx context.Context, request openai.AssistantRequest) (openai.Assistant, error) {
	f.created = &request
	return openai.Assistant{ID: "asst-created"}, nil
}

func (f *fakeProvisionAPI) ModifyAssistant(ctx context.Context, assistantID string, request openai.AssistantRequest) (openai.Assistant, error) {
	f.modified = &request
	return openai.Assistant{ID: assistantID}, nil
}

func TestProvisionReusesConfiguredAssistant(t *testing.T) {
	api := &fakeProvisionAPI{}

	id, err := Provision(context.Background(), api, "asst-configured", nil, false, logger.NewNop())

	require.NoError(t, err)
	assert.Equal(t, "asst-configured", id)
	assert.Nil(t, api.created)
	assert.Nil(t, api.modified)
}

func TestProvisionSyncUpdatesInstructionsAndTools(t *testing.T) {
	api := &fakeProvisionAPI{}
	defs := []openai.AssistantTool{{Type: openai.AssistantToolTypeFunction}}

	id, err := Provision(context.Background(), api, "asst-configured", defs, true, logger.NewNop())

	require.NoError(t, err)
	assert.Equal(t, "asst-configured", id)
	require.NotNil(t, api.modified)
	assert.Equal(t, defs, api.modified.Tools)
	require.NotNil(t, api.modified.Instructions)
	assert.Equal(t, Instructions, *api.modified.Instructions)
}

func TestProvisionCreatesWhenUnconfigured(t *testing.T) {
	api := &fakeProvisionAPI{}

	id, err := Provision(context.Background(), api, "", nil, false, logger.NewNop())

	require.NoError(t, err)
	assert.Equal(t, "asst-created", id)
	require.NotNil(t, api.created)
	assert.Equal(t, assistantModel, api.created.Model)
}

func TestProvisionFailsWhenConfiguredAssistantMissing(t *testing.T) {
	api := &fakeProvisionAPI{retrieveErr: errors.New("not found")}

	_, err := Provision(context.Background(), api, "asst-gone", nil, false, logger.NewNop())
	assert.Error(t, err)
}
