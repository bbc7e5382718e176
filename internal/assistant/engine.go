package assistant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/savoir-ai/whatsapp-assistant/internal/store"
	"github.com/savoir-ai/whatsapp-assistant/pkg/logger"
	"github.com/savoir-ai/whatsapp-assistant/pkg/metrics"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollMaxTicks = 30
)

// busyStatuses is the conservative set of run states that count as an
// active run. A message arriving while the latest run is in any of these
// states is answered with a busy response, never queued.
var busyStatuses = map[openai.RunStatus]bool{
	openai.RunStatusQueued:         true,
	openai.RunStatusInProgress:     true,
	openai.RunStatusRequiresAction: true,
}

// Config holds engine tuning knobs.
type Config struct {
	AssistantID  string
	PollInterval time.Duration
	PollMaxTicks int
}

// Engine owns conversation state: the user→thread mapping, the
// single-run-per-conversation guard, and the run poll loop.
type Engine struct {
	api         API
	dispatcher  Dispatcher
	threads     store.ThreadStore
	assistantID string
	logger      *logger.Logger

	pollInterval time.Duration
	pollMaxTicks int

	// sleep is injectable so tests can drive the poll loop without
	// real time passing.
	sleep func(ctx context.Context, d time.Duration) error

	// active guards against two concurrent messages for the same user
	// both passing the busy check. The remote active-run check below is
	// still consulted: process restarts and multi-instance deployments
	// leave a window this local set cannot see, so the remote service
	// stays authoritative. The remaining check-then-create gap against
	// the remote state is a known, accepted race.
	mu     sync.Mutex
	active map[string]struct{}
}

// NewEngine creates a run engine.
func NewEngine(api API, dispatcher Dispatcher, threads store.ThreadStore, cfg Config, log *logger.Logger) *Engine {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	pollMaxTicks := cfg.PollMaxTicks
	if pollMaxTicks <= 0 {
		pollMaxTicks = defaultPollMaxTicks
	}

	return &Engine{
		api:          api,
		dispatcher:   dispatcher,
		threads:      threads,
		assistantID:  cfg.AssistantID,
		logger:       log,
		pollInterval: pollInterval,
		pollMaxTicks: pollMaxTicks,
		sleep:        sleepContext,
		active:       make(map[string]struct{}),
	}
}

// Run processes one user message through the assistant and returns a
// user-safe answer. No error escapes: every failure path is logged and
// converted to one of the fixed answer templates.
func (e *Engine) Run(ctx context.Context, userMessage, userID string) Answer {
	log := e.logger.With(zap.String("user_id", userID))

	if !e.acquire(userID) {
		log.Info("conversation busy, rejecting message")
		metrics.RecordRun(string(AnswerBusy), 0, 0)
		return busyAnswer("")
	}
	defer e.release(userID)

	start := time.Now()
	answer, ticks := e.run(ctx, log, userMessage, userID)
	metrics.RecordRun(string(answer.Kind), time.Since(start).Seconds(), ticks)
	return answer
}

func (e *Engine) run(ctx context.Context, log *logger.Logger, userMessage, userID string) (Answer, int) {
	threadID, err := e.resolveThread(ctx, userID)
	if err != nil {
		log.Error("failed to resolve thread", zap.Error(err))
		return failureAnswer(""), 0
	}
	log = log.With(zap.String("thread_id", threadID))

	if e.hasActiveRun(ctx, threadID) {
		log.Info("active run on thread, rejecting message")
		return busyAnswer(threadID), 0
	}

	if _, err := e.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: userMessage,
	}); err != nil {
		log.Error("failed to append message to thread", zap.Error(err))
		return failureAnswer(threadID), 0
	}

	run, err := e.api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: e.assistantID})
	if err != nil {
		log.Error("failed to create run", zap.Error(err))
		return failureAnswer(threadID), 0
	}
	log = log.With(zap.String("run_id", run.ID))
	log.Info("run started")

	return e.poll(ctx, log, threadID, run.ID)
}

// resolveThread returns the user's thread, creating one on first contact.
// The mapping is first-write-wins: if a concurrent caller stored a thread
// between our lookup and our create, theirs is used and ours is abandoned.
func (e *Engine) resolveThread(ctx context.Context, userID string) (string, error) {
	threadID, err := e.threads.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("thread lookup: %w", err)
	}
	if threadID != "" {
		return threadID, nil
	}

	thread, err := e.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("thread creation: %w", err)
	}

	winner, err := e.threads.PutIfAbsent(ctx, userID, thread.ID)
	if err != nil {
		return "", fmt.Errorf("thread mapping: %w", err)
	}
	if winner != thread.ID {
		e.logger.Warn("abandoning thread lost to concurrent creation",
			zap.String("user_id", userID),
			zap.String("thread_id", thread.ID),
		)
	}
	return winner, nil
}

// hasActiveRun checks the latest run on the thread against the busy set.
// Errors are logged and treated as "not busy": the subsequent run creation
// will fail anyway if the remote service objects.
func (e *Engine) hasActiveRun(ctx context.Context, threadID string) bool {
	limit := 1
	order := "desc"
	runs, err := e.api.ListRuns(ctx, threadID, openai.Pagination{Limit: &limit, Order: &order})
	if err != nil {
		e.logger.Warn("failed to check for active runs",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		return false
	}
	if len(runs.Runs) == 0 {
		return false
	}
	return busyStatuses[runs.Runs[0].Status]
}

// poll drives the run state machine until a terminal outcome or the
// iteration cap, sleeping a fixed interval between checks.
func (e *Engine) poll(ctx context.Context, log *logger.Logger, threadID, runID string) (Answer, int) {
	for tick := 1; tick <= e.pollMaxTicks; tick++ {
		run, err := e.api.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			log.Error("failed to retrieve run status", zap.Error(err))
			return failureAnswer(threadID), tick
		}

		switch run.Status {
		case openai.RunStatusCompleted:
			return e.finalAnswer(ctx, log, threadID), tick

		case openai.RunStatusFailed, openai.RunStatusExpired, openai.RunStatus("cancelled"):
			log.Error("run reached failure state",
				zap.String("status", string(run.Status)),
			)
			return failureAnswer(threadID), tick

		case openai.RunStatusRequiresAction:
			if err := e.serveToolCalls(ctx, log, threadID, run); err != nil {
				log.Error("failed to serve tool calls", zap.Error(err))
				return failureAnswer(threadID), tick
			}
		}

		// queued, in_progress, cancelling, or just-submitted tool
		// outputs: wait and poll again.
		if err := e.sleep(ctx, e.pollInterval); err != nil {
			log.Warn("run abandoned before completion", zap.Error(err))
			return timeoutAnswer(threadID), tick
		}
	}

	log.Error("run timed out", zap.Int("ticks", e.pollMaxTicks))
	return timeoutAnswer(threadID), e.pollMaxTicks
}

// serveToolCalls dispatches every tool call from one requires_action
// snapshot and submits all outputs together, keyed by call ID. Handler
// failures become error payloads; they never abort the batch.
func (e *Engine) serveToolCalls(ctx context.Context, log *logger.Logger, threadID string, run openai.Run) error {
	if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
		return nil
	}

	calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
	outputs := make([]openai.ToolOutput, 0, len(calls))
	for _, call := range calls {
		log.Info("dispatching tool call",
			zap.String("tool_call_id", call.ID),
			zap.String("tool", call.Function.Name),
		)
		output := e.dispatcher.Dispatch(ctx, call.Function.Name, call.Function.Arguments)
		outputs = append(outputs, openai.ToolOutput{
			ToolCallID: call.ID,
			Output:     output,
		})
	}

	if _, err := e.api.SubmitToolOutputs(ctx, threadID, run.ID, openai.SubmitToolOutputsRequest{
		ToolOutputs: outputs,
	}); err != nil {
		return fmt.Errorf("submit tool outputs: %w", err)
	}
	return nil
}

// finalAnswer fetches the newest assistant message from the thread and
// extracts its first text part.
func (e *Engine) finalAnswer(ctx context.Context, log *logger.Logger, threadID string) Answer {
	limit := 1
	order := "desc"
	messages, err := e.api.ListMessage(ctx, threadID, &limit, &order, nil, nil)
	if err != nil {
		log.Error("failed to fetch thread messages", zap.Error(err))
		return failureAnswer(threadID)
	}
	if len(messages.Messages) == 0 {
		log.Error("run completed but thread has no messages")
		return failureAnswer(threadID)
	}

	for _, part := range messages.Messages[0].Content {
		if part.Type == "text" && part.Text != nil {
			log.Info("run completed")
			return Answer{Kind: AnswerSuccess, Content: part.Text.Value, ThreadID: threadID}
		}
	}

	log.Error("assistant message has no text content")
	return failureAnswer(threadID)
}

func (e *Engine) acquire(userID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.active[userID]; busy {
		return false
	}
	e.active[userID] = struct{}{}
	return true
}

func (e *Engine) release(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, userID)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
