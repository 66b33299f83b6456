package summarizer

import "time"

// Config configures the summarize request loop.
type Config struct {
	PromptTemplate     string
	UserID             string
	SessionID          string
	MaxAttempts        int
	BackoffUnit        time.Duration
	RetryTransientOnly bool
	WarmUp             bool
	WarmUpTimeout      time.Duration
}

// Payload is the JSON body posted to the remote endpoint.
type Payload struct {
	Prompt    string `json:"prompt"`
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	UseSearch bool   `json:"useSearch"`
}

// Reply is the raw outcome of a single POST.
type Reply struct {
	StatusCode int
	Body       []byte
}

// Attempt describes one pass of the request loop. It only exists for the duration of a Summarize call.
type Attempt struct {
	Number      int
	MaxAttempts int
	Payload     Payload
}

// Last reports whether no further attempt will follow.
func (a Attempt) Last() bool {
	return a.Number >= a.MaxAttempts
}

type generateResponse struct {
	Content string `json:"content"`
}

// NoContent is returned when the endpoint answers without content.
const NoContent = "No content in response"

// DefaultPromptTemplate wraps the user's text before it is sent.
const DefaultPromptTemplate = "Please summarize the following text:\n\n%s"
