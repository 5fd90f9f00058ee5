package models

// OrchestrateRequest is the voice-transcript entry point of the kernel.
// Field names follow the transcript gateway's wire format.
type OrchestrateRequest struct {
	LearnerID   string         `json:"learner_id"`
	Transcript  string         `json:"transcript"`
	PolicyFlags map[string]any `json:"policy_flags,omitempty"`
}

// OrchestrateAction records one plugin or kernel invocation performed
// while handling a transcript
type OrchestrateAction struct {
	Plugin   string `json:"plugin"`
	Function string `json:"function"`
	Result   any    `json:"result"`
}

// OrchestrateResponse is the uniform response shape for every intent
type OrchestrateResponse struct {
	Intent  string              `json:"intent"`
	Actions []OrchestrateAction `json:"actions"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
}
