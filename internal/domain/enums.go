// Package domain defines the core domain models for the debate bridge.
package domain

// RunStatus represents the lifecycle status of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// IsTerminal reports whether the status is final.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCanceled:
		return true
	}
	return false
}

// EventType is the type tag carried by every upstream message.
type EventType string

const (
	// Connection and lifecycle
	EventTypeConnection    EventType = "connection"
	EventTypeDebateStarted EventType = "debate_started"

	// Role generation
	EventTypeRolesGenerating EventType = "roles_generating"
	EventTypeRolesGenerated  EventType = "roles_generated"

	// Agents. agents_created only feeds the expected-agent counter.
	EventTypeAgentsCreated EventType = "agents_created"
	EventTypeAgentResponse EventType = "agent_response"

	// Phase boundaries
	EventTypeRoundStarted     EventType = "round_started"
	EventTypeRoundComplete    EventType = "round_complete"
	EventTypePhaseStarted     EventType = "phase_started"
	EventTypePhaseComplete    EventType = "phase_complete"
	EventTypeSynthesisStarted EventType = "synthesis_started"

	// Cost and billing
	EventTypeCostEstimate   EventType = "cost_estimate"
	EventTypeBillingCharged EventType = "billing_charged"
	EventTypeCreditsLow     EventType = "credits_low"

	// Terminal
	EventTypeDebateComplete  EventType = "debate_complete"
	EventTypeError           EventType = "error"
	EventTypeDebateCancelled EventType = "debate_cancelled"

	// Logged only
	EventTypeAgentThinking EventType = "agent_thinking"
	EventTypeAgentToken    EventType = "agent_token"
	EventTypeHeartbeat     EventType = "heartbeat"
)

var interestingEvents = map[EventType]struct{}{
	EventTypeConnection:       {},
	EventTypeDebateStarted:    {},
	EventTypeRolesGenerating:  {},
	EventTypeRolesGenerated:   {},
	EventTypeAgentResponse:    {},
	EventTypeRoundStarted:     {},
	EventTypeRoundComplete:    {},
	EventTypePhaseStarted:     {},
	EventTypePhaseComplete:    {},
	EventTypeSynthesisStarted: {},
	EventTypeCostEstimate:     {},
	EventTypeBillingCharged:   {},
	EventTypeCreditsLow:       {},
	EventTypeDebateComplete:   {},
	EventTypeError:            {},
	EventTypeDebateCancelled:  {},
}

// IsInteresting reports whether events of this type are delivered to pollers
// and wake suspended waiters.
func (t EventType) IsInteresting() bool {
	_, ok := interestingEvents[t]
	return ok
}

// IsTerminal reports whether the event ends a run.
func (t EventType) IsTerminal() bool {
	switch t {
	case EventTypeDebateComplete, EventTypeError, EventTypeDebateCancelled:
		return true
	}
	return false
}

// InterestingEventTypes returns the fixed set of delivered event types.
func InterestingEventTypes() []EventType {
	types := make([]EventType, 0, len(interestingEvents))
	for t := range interestingEvents {
		types = append(types, t)
	}
	return types
}
