package domain

// Request is one URL submitted for audio extraction
type Request struct {
	URL string `json:"url"`
}

// CollectRequests turns raw command-line arguments into an ordered list of requests.
// Every argument is kept as an opaque URL, in order, without deduplication.
func CollectRequests(rawArgs []string) ([]Request, error) {
	if len(rawArgs) == 0 {
		return nil, ErrInvalidInput
	}

	requests := make([]Request, 0, len(rawArgs))
	for _, arg := range rawArgs {
		requests = append(requests, Request{URL: arg})
	}
	return requests, nil
}

// RequestState tracks a request through a batch
type RequestState string

const (
	StatePending   RequestState = "pending"
	StateRunning   RequestState = "running"
	StateSucceeded RequestState = "succeeded"
	StateFailed    RequestState = "failed"
)

// IsTerminal checks if no further transition is allowed from the state
func (s RequestState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// CanTransition reports whether moving from s to next is a valid step.
// A pending request may fail directly when its batch aborts before dispatch.
func (s RequestState) CanTransition(next RequestState) bool {
	switch s {
	case StatePending:
		return next == StateRunning || next == StateFailed
	case StateRunning:
		return next == StateSucceeded || next == StateFailed
	default:
		return false
	}
}
