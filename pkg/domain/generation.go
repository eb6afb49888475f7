package domain

// GenerationRequest describes one text-completion call. The zero value of
// Temperature and MaxTokens means "use the client defaults".
type GenerationRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int

	// Model pins a specific model id. Empty selects the configured primary.
	Model string

	// DisableFallback restricts the call to a single attempt against the
	// selected model.
	DisableFallback bool
}

// FailureClass classifies why a generation attempt failed.
type FailureClass string

const (
	FailureNone      FailureClass = ""
	FailureTransport FailureClass = "transport" // network error, timeout, 5xx
	FailureAuth      FailureClass = "auth"      // invalid credentials (401/403)
	FailureQuota     FailureClass = "quota"     // budget exhausted (402/429)
	FailureMalformed FailureClass = "malformed" // 2xx body without choices
)

// Usage is provider-reported token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResult is the outcome of a Generate call. A result with
// Success=false is final for the interaction: callers present a retry
// affordance instead of blocking.
type GenerationResult struct {
	Success bool
	Content string

	// Model is the model that actually produced the content. It differs
	// from the requested model when fallback engaged.
	Model string

	Usage   Usage
	Failure FailureClass
}
