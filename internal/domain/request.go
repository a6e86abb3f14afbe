package domain

import "time"

// StartRequest asks the upstream service to open a new deliberation.
type StartRequest struct {
	Topic      string   `json:"topic"`
	AgentCount int      `json:"agent_count,omitempty"`
	Rounds     int      `json:"rounds,omitempty"`
	Topology   string   `json:"topology,omitempty"`
	Models     []string `json:"models,omitempty"`
	RequestID  string   `json:"request_id,omitempty"`
}

// StartResponse is returned once the upstream service confirms a run.
type StartResponse struct {
	RunID  string    `json:"run_id"`
	Status RunStatus `json:"status"`
	Topic  string    `json:"topic"`
}

// RunRequest identifies a run.
type RunRequest struct {
	RunID string `json:"run_id"`
}

// PollRequest asks for events newer than the previous poll.
type PollRequest struct {
	RunID     string `json:"run_id"`
	TimeoutMs *int   `json:"timeout_ms,omitempty"`
}

// WaitOutcome records how a long-poll wait settled.
type WaitOutcome string

const (
	WaitOutcomeImmediate WaitOutcome = "immediate"
	WaitOutcomeNotified  WaitOutcome = "notified"
	WaitOutcomeTimedOut  WaitOutcome = "timed_out"
	WaitOutcomeCanceled  WaitOutcome = "canceled"
)

// PollResponse is the result of one poll call.
type PollResponse struct {
	PollSnapshot
	WaitOutcome WaitOutcome `json:"wait_outcome"`
	WaitedMs    int64       `json:"waited_ms"`
	Done        bool        `json:"done"`
}

// CancelResponse is returned after a cancel request.
type CancelResponse struct {
	RunID                string    `json:"run_id"`
	Status               RunStatus `json:"status"`
	UpstreamAcknowledged bool      `json:"upstream_acknowledged"`
	Message              string    `json:"message"`
}

// PublishResponse is returned after publishing a run.
type PublishResponse struct {
	RunID            string    `json:"run_id"`
	PublicationID    string    `json:"publication_id"`
	URL              string    `json:"url"`
	ResponseCount    int       `json:"response_count"`
	PublishedAt      time.Time `json:"published_at"`
	AlreadyPublished bool      `json:"already_published"`
}

// ListRunsResponse lists tracked runs.
type ListRunsResponse struct {
	Runs []RunInfo `json:"runs"`
}
