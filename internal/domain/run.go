package domain

import (
	"encoding/json"
	"time"
)

// RunInfo is a read-only snapshot of a run's summary state.
type RunInfo struct {
	RunID           string    `json:"run_id"`
	Status          RunStatus `json:"status"`
	Topic           string    `json:"topic,omitempty"`
	AgentsTotal     int       `json:"agents_total"`
	AgentsResponded int       `json:"agents_responded"`
	CostEstimate    float64   `json:"cost_estimate,omitempty"`
	EventCount      int       `json:"event_count"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PollSnapshot is what one poll resolution delivers: the run's progress plus
// the interesting events appended since the previous resolution.
type PollSnapshot struct {
	RunID           string    `json:"run_id"`
	Status          RunStatus `json:"status"`
	AgentsResponded int       `json:"agents_responded"`
	AgentsTotal     int       `json:"agents_total"`
	CostEstimate    float64   `json:"cost_estimate,omitempty"`
	NewEvents       []Event   `json:"new_events"`
	Cursor          int       `json:"cursor"`
}

// RunResult is the status and cached terminal payload of a run.
type RunResult struct {
	RunID  string          `json:"run_id"`
	Status RunStatus       `json:"status"`
	Topic  string          `json:"topic,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// PublishedResponse is one agent response in publish order.
type PublishedResponse struct {
	Round   int    `json:"round"`
	NodeID  string `json:"node_id,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
	Role    string `json:"role,omitempty"`
	Model   string `json:"model,omitempty"`
	Content string `json:"content"`
}

// PublishData is the flattened projection of a completed run used for
// external sharing.
type PublishData struct {
	RunID       string              `json:"run_id"`
	Topic       string              `json:"topic"`
	Topology    string              `json:"topology"`
	AgentCount  int                 `json:"agent_count"`
	Rounds      int                 `json:"rounds"`
	Responses   []PublishedResponse `json:"responses"`
	FinalAnswer string              `json:"final_answer,omitempty"`
	TotalCost   float64             `json:"total_cost,omitempty"`
}

// Publication is an archived publish of a run.
type Publication struct {
	PublicationID string    `json:"publication_id"`
	RunID         string    `json:"run_id"`
	URL           string    `json:"url"`
	Topic         string    `json:"topic,omitempty"`
	Topology      string    `json:"topology,omitempty"`
	ResponseCount int       `json:"response_count"`
	PublishedAt   time.Time `json:"published_at"`
}
