package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedEvent is returned by DecodeEvent for messages that cannot be
// turned into a structured event.
var ErrMalformedEvent = errors.New("malformed event")

// Payload is the typed body of an event. Each event type has exactly one
// payload shape; types outside the known vocabulary decode to GenericPayload.
type Payload interface {
	payloadType() EventType
}

// Event is one discrete message from the upstream deliberation service.
type Event struct {
	Seq        int             `json:"seq"`
	Type       EventType       `json:"type"`
	ReceivedAt time.Time       `json:"received_at"`
	Data       json.RawMessage `json:"data"`
	Payload    Payload         `json:"-"`
}

// IsInteresting reports whether the event is surfaced to pollers.
func (e Event) IsInteresting() bool {
	return e.Type.IsInteresting()
}

// RunID returns the run identifier carried by the event, if any.
func (e Event) RunID() string {
	switch p := e.Payload.(type) {
	case *ConnectionPayload:
		return p.RunID
	case *GenericPayload:
		if id, ok := p.Fields["run_id"].(string); ok {
			return id
		}
	}
	var probe struct {
		RunID string `json:"run_id"`
	}
	if len(e.Data) > 0 && json.Unmarshal(e.Data, &probe) == nil {
		return probe.RunID
	}
	return ""
}

// ErrorMessage returns the upstream message of an error event.
func (e Event) ErrorMessage() (string, bool) {
	if e.Type != EventTypeError {
		return "", false
	}
	switch p := e.Payload.(type) {
	case *ErrorPayload:
		return p.Message, true
	case *GenericPayload:
		return p.String("message"), true
	}
	return "", true
}

// ConnectionPayload is carried by connection and debate_started events.
type ConnectionPayload struct {
	RunID string `json:"run_id"`
	Topic string `json:"topic"`
}

// RolesPayload is carried by the role-generation milestones.
type RolesPayload struct {
	Roles []string `json:"roles"`
}

// AgentInfo describes one panel member.
type AgentInfo struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role,omitempty"`
	Model   string `json:"model,omitempty"`
}

// AgentsCreatedPayload confirms the number of agents on the panel.
type AgentsCreatedPayload struct {
	Count  int         `json:"count"`
	Agents []AgentInfo `json:"agents,omitempty"`
}

// AgentResponsePayload is one agent's contribution.
type AgentResponsePayload struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role,omitempty"`
	Model   string `json:"model,omitempty"`
	Round   int    `json:"round,omitempty"`
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// PhasePayload marks round, phase and synthesis boundaries.
type PhasePayload struct {
	Phase string `json:"phase,omitempty"`
	Round int    `json:"round,omitempty"`
}

// CostEstimatePayload carries the running cost estimate.
type CostEstimatePayload struct {
	EstimatedCost float64 `json:"estimated_cost"`
	Currency      string  `json:"currency,omitempty"`
}

// BillingPayload carries billing milestones.
type BillingPayload struct {
	Amount   float64 `json:"amount,omitempty"`
	Balance  float64 `json:"balance,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

// CompletePayload is carried by the terminal success event. Result keeps the
// raw terminal object; publish data is reconstructed from it on demand.
type CompletePayload struct {
	Result json.RawMessage `json:"result"`
	Topic  string          `json:"-"`
	Cancel bool            `json:"-"`
}

// ErrorPayload is carried by the terminal error event.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// CancelledPayload is carried by the explicit cancellation event.
type CancelledPayload struct {
	Reason string `json:"reason,omitempty"`
}

// GenericPayload holds the fields of event types without a typed shape.
type GenericPayload struct {
	Fields map[string]any
}

// String returns the named field rendered as text, or "" when it is absent.
func (p *GenericPayload) String(key string) string {
	switch v := p.Fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// UnmarshalJSON accepts string or numeric codes and messages.
func (p *ErrorPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		Code    json.RawMessage `json:"code"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Code = scalarText(raw.Code)
	p.Message = scalarText(raw.Message)
	return nil
}

func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func (*ConnectionPayload) payloadType() EventType    { return EventTypeConnection }
func (*RolesPayload) payloadType() EventType         { return EventTypeRolesGenerated }
func (*AgentsCreatedPayload) payloadType() EventType { return EventTypeAgentsCreated }
func (*AgentResponsePayload) payloadType() EventType { return EventTypeAgentResponse }
func (*PhasePayload) payloadType() EventType         { return EventTypePhaseStarted }
func (*CostEstimatePayload) payloadType() EventType  { return EventTypeCostEstimate }
func (*BillingPayload) payloadType() EventType       { return EventTypeBillingCharged }
func (*CompletePayload) payloadType() EventType      { return EventTypeDebateComplete }
func (*ErrorPayload) payloadType() EventType         { return EventTypeError }
func (*CancelledPayload) payloadType() EventType     { return EventTypeDebateCancelled }
func (*GenericPayload) payloadType() EventType       { return "" }

// DecodeEvent turns one upstream message into an Event. The type tag comes
// from the message's "type" field, falling back to the SSE event name.
func DecodeEvent(name string, data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	tag := strings.TrimSpace(envelope.Type)
	if tag == "" {
		tag = strings.TrimSpace(name)
	}
	if tag == "" {
		return Event{}, fmt.Errorf("%w: missing type tag", ErrMalformedEvent)
	}

	eventType := EventType(tag)
	payload, err := decodePayload(eventType, data)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, tag, err)
	}

	return Event{
		Type:    eventType,
		Data:    append(json.RawMessage(nil), data...),
		Payload: payload,
	}, nil
}

func decodePayload(eventType EventType, data []byte) (Payload, error) {
	var p Payload
	switch eventType {
	case EventTypeConnection, EventTypeDebateStarted:
		p = &ConnectionPayload{}
	case EventTypeRolesGenerating, EventTypeRolesGenerated:
		p = &RolesPayload{}
	case EventTypeAgentsCreated:
		p = &AgentsCreatedPayload{}
	case EventTypeAgentResponse:
		resp, err := decodeAgentResponse(data)
		if err != nil {
			return decodeGeneric(data)
		}
		return resp, nil
	case EventTypeRoundStarted, EventTypeRoundComplete, EventTypePhaseStarted, EventTypePhaseComplete, EventTypeSynthesisStarted:
		p = &PhasePayload{}
	case EventTypeCostEstimate:
		p = &CostEstimatePayload{}
	case EventTypeBillingCharged, EventTypeCreditsLow:
		p = &BillingPayload{}
	case EventTypeDebateComplete:
		return decodeComplete(data)
	case EventTypeError:
		p = &ErrorPayload{}
	case EventTypeDebateCancelled:
		p = &CancelledPayload{}
	default:
		return decodeGeneric(data)
	}
	// A known type whose fields do not fit keeps its tag with a generic payload.
	if err := json.Unmarshal(data, p); err != nil {
		return decodeGeneric(data)
	}
	return p, nil
}

func decodeGeneric(data []byte) (Payload, error) {
	generic := &GenericPayload{}
	if err := json.Unmarshal(data, &generic.Fields); err != nil {
		return nil, err
	}
	return generic, nil
}

func decodeAgentResponse(data []byte) (Payload, error) {
	var raw struct {
		AgentResponsePayload
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	p := raw.AgentResponsePayload
	if p.Message == "" {
		p.Message = raw.Content
	}
	return &p, nil
}

// decodeComplete is lenient about the shape of the result object: a terminal
// event is never dropped because its result cannot be reconstructed later.
func decodeComplete(data []byte) (Payload, error) {
	var raw struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	p := &CompletePayload{Result: raw.Result}
	if len(p.Result) == 0 || string(p.Result) == "null" {
		p.Result = append(json.RawMessage(nil), data...)
	}

	var summary map[string]any
	if json.Unmarshal(p.Result, &summary) == nil {
		if topic, ok := summary["topic"].(string); ok {
			p.Topic = topic
		}
		if cancelled, ok := summary["cancelled"].(bool); ok && cancelled {
			p.Cancel = true
		}
		if status, ok := summary["status"].(string); ok {
			switch strings.ToLower(status) {
			case "cancelled", "canceled":
				p.Cancel = true
			}
		}
	}
	return p, nil
}
