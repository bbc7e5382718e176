package assistant

// AnswerKind classifies the terminal outcome of a Run call.
type AnswerKind string

const (
	// AnswerSuccess carries the assistant's reply text.
	AnswerSuccess AnswerKind = "success"
	// AnswerBusy means a run is already active for this conversation.
	AnswerBusy AnswerKind = "busy"
	// AnswerTimeout means the poll loop exhausted its iteration cap.
	AnswerTimeout AnswerKind = "timeout"
	// AnswerFailure covers every other failure, reported to the user only
	// as a generic apology; detail goes to the log.
	AnswerFailure AnswerKind = "failure"
)

// User-facing message templates. These are the only texts a failure path
// may surface; internal error detail never reaches the end user.
const (
	busyMessage    = "I'm still processing your previous request. Please wait a moment before sending another message."
	failureMessage = "I'm sorry, I encountered an error processing your request. Please try again later."
	timeoutMessage = "I'm sorry, your request timed out. Please try again later."
)

// Answer is the engine's result for one user message. Content is always
// safe to relay to the end user, whatever the Kind.
type Answer struct {
	Kind     AnswerKind `json:"kind"`
	Content  string     `json:"content"`
	ThreadID string     `json:"thread_id,omitempty"`
}

// Success reports whether the answer carries real assistant content.
func (a Answer) Success() bool {
	return a.Kind == AnswerSuccess
}

func busyAnswer(threadID string) Answer {
	return Answer{Kind: AnswerBusy, Content: busyMessage, ThreadID: threadID}
}

func failureAnswer(threadID string) Answer {
	return Answer{Kind: AnswerFailure, Content: failureMessage, ThreadID: threadID}
}

func timeoutAnswer(threadID string) Answer {
	return Answer{Kind: AnswerTimeout, Content: timeoutMessage, ThreadID: threadID}
}
