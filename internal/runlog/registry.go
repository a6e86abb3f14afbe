// Package runlog owns per-run state: the append-only event log, derived
// progress counters, the poll read cursor and the cached terminal result.
package runlog

import (
	"errors"
	"sync"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

var (
	// ErrRunNotFound is returned for unknown run ids.
	ErrRunNotFound = errors.New("run not found")
	// ErrNotCompleted is returned when publish data is requested for a run
	// that did not complete.
	ErrNotCompleted = errors.New("run not completed")
	// ErrPublishUnavailable is returned when a completed run's terminal
	// payload lacks the structure needed for publishing.
	ErrPublishUnavailable = errors.New("publish data not available")
)

// Notifier is told when a run has new interesting data or left the running
// state.
type Notifier interface {
	Notify(runID string)
}

type run struct {
	id              string
	events          []domain.Event
	cursor          int
	status          domain.RunStatus
	topic           string
	agentsTotal     int
	agentsResponded int
	costEstimate    float64
	result          *domain.Event
	errMessage      string
	createdAt       time.Time
	updatedAt       time.Time
}

// Registry is the process-wide set of tracked runs.
type Registry struct {
	mu       sync.Mutex
	runs     map[string]*run
	order    []string
	notifier Notifier
	now      func() time.Time
}

// NewRegistry creates an empty registry. notifier may be nil.
func NewRegistry(notifier Notifier) *Registry {
	return &Registry{
		runs:     make(map[string]*run),
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateRun initializes state for a newly confirmed run. It reports whether a
// run was created; a duplicate confirmation is a no-op.
func (r *Registry) CreateRun(runID string) bool {
	if runID == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[runID]; exists {
		return false
	}
	now := r.now()
	r.runs[runID] = &run{
		id:        runID,
		status:    domain.RunStatusRunning,
		createdAt: now,
		updatedAt: now,
	}
	r.order = append(r.order, runID)
	return true
}

// AddEvent appends ev to the run's log and updates derived state. Events for
// unknown runs are dropped; the return value reports whether ev was appended.
func (r *Registry) AddEvent(runID string, ev domain.Event) bool {
	_, ok := r.AppendEvent(runID, ev)
	return ok
}

// AppendEvent is AddEvent returning the stored event with its sequence number
// and receive time filled in.
func (r *Registry) AppendEvent(runID string, ev domain.Event) (domain.Event, bool) {
	r.mu.Lock()
	rn, ok := r.runs[runID]
	if !ok {
		r.mu.Unlock()
		return ev, false
	}

	ev.Seq = len(rn.events) + 1
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = r.now()
	}
	rn.events = append(rn.events, ev)
	rn.updatedAt = ev.ReceivedAt
	rn.apply(ev)
	r.mu.Unlock()

	if ev.IsInteresting() || ev.Type == domain.EventTypeDebateCancelled {
		r.notify(runID)
	}
	return ev, true
}

// apply updates derived counters from one event. Status only moves while the
// run is still running.
func (rn *run) apply(ev domain.Event) {
	switch p := ev.Payload.(type) {
	case *domain.ConnectionPayload:
		if rn.topic == "" && p.Topic != "" {
			rn.topic = p.Topic
		}
	case *domain.AgentsCreatedPayload:
		rn.agentsTotal = p.Count
		if rn.agentsTotal == 0 {
			rn.agentsTotal = len(p.Agents)
		}
	case *domain.AgentResponsePayload:
		rn.agentsResponded++
	case *domain.CostEstimatePayload:
		rn.costEstimate = p.EstimatedCost
	case *domain.CompletePayload:
		cached := ev
		rn.result = &cached
		if rn.topic == "" && p.Topic != "" {
			rn.topic = p.Topic
		}
		if p.Cancel {
			rn.transition(domain.RunStatusCanceled)
		} else {
			rn.transition(domain.RunStatusCompleted)
		}
	case *domain.ErrorPayload:
		if rn.status == domain.RunStatusRunning {
			rn.errMessage = p.Message
		}
		rn.transition(domain.RunStatusFailed)
	case *domain.CancelledPayload:
		rn.transition(domain.RunStatusCanceled)
	case *domain.GenericPayload:
		rn.applyGeneric(ev.Type, p)
	}
}

// applyGeneric keeps the lifecycle effects of a known event type whose fields
// did not decode into its typed payload.
func (rn *run) applyGeneric(t domain.EventType, p *domain.GenericPayload) {
	switch t {
	case domain.EventTypeAgentResponse:
		rn.agentsResponded++
	case domain.EventTypeError:
		if rn.status == domain.RunStatusRunning {
			rn.errMessage = p.String("message")
		}
		rn.transition(domain.RunStatusFailed)
	case domain.EventTypeDebateCancelled:
		rn.transition(domain.RunStatusCanceled)
	}
}

func (rn *run) transition(status domain.RunStatus) bool {
	if rn.status != domain.RunStatusRunning || status == rn.status {
		return false
	}
	rn.status = status
	return true
}

// GetNewEvents returns the run's progress and the interesting events after
// the read cursor, then advances the cursor to the end of the log.
func (r *Registry) GetNewEvents(runID string) (domain.PollSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runs[runID]
	if !ok {
		return domain.PollSnapshot{}, ErrRunNotFound
	}

	newEvents := make([]domain.Event, 0)
	for _, ev := range rn.events[rn.cursor:] {
		if ev.IsInteresting() {
			newEvents = append(newEvents, ev)
		}
	}
	rn.cursor = len(rn.events)

	return domain.PollSnapshot{
		RunID:           rn.id,
		Status:          rn.status,
		AgentsResponded: rn.agentsResponded,
		AgentsTotal:     rn.agentsTotal,
		CostEstimate:    rn.costEstimate,
		NewEvents:       newEvents,
		Cursor:          rn.cursor,
	}, nil
}

// Ready reports whether a poll for runID should resolve without waiting: the
// run is unknown, no longer running, or has interesting events past the cursor.
func (r *Registry) Ready(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runs[runID]
	if !ok || rn.status != domain.RunStatusRunning {
		return true
	}
	for _, ev := range rn.events[rn.cursor:] {
		if ev.IsInteresting() {
			return true
		}
	}
	return false
}

// GetResult returns the run's status and cached terminal payload.
func (r *Registry) GetResult(runID string) (domain.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runs[runID]
	if !ok {
		return domain.RunResult{}, ErrRunNotFound
	}
	res := domain.RunResult{
		RunID:  rn.id,
		Status: rn.status,
		Topic:  rn.topic,
		Error:  rn.errMessage,
	}
	if rn.result != nil {
		if p, ok := rn.result.Payload.(*domain.CompletePayload); ok {
			res.Result = p.Result
		}
	}
	return res, nil
}

// GetRunInfo returns a summary snapshot of the run.
func (r *Registry) GetRunInfo(runID string) (domain.RunInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runs[runID]
	if !ok {
		return domain.RunInfo{}, ErrRunNotFound
	}
	return rn.info(), nil
}

func (rn *run) info() domain.RunInfo {
	return domain.RunInfo{
		RunID:           rn.id,
		Status:          rn.status,
		Topic:           rn.topic,
		AgentsTotal:     rn.agentsTotal,
		AgentsResponded: rn.agentsResponded,
		CostEstimate:    rn.costEstimate,
		EventCount:      len(rn.events),
		Error:           rn.errMessage,
		CreatedAt:       rn.createdAt,
		UpdatedAt:       rn.updatedAt,
	}
}

// SetStatus overrides a running run's status. It is a no-op for unknown runs
// and for runs already in a final state; it reports whether status changed.
func (r *Registry) SetStatus(runID string, status domain.RunStatus) bool {
	return r.setStatus(runID, status, "")
}

// MarkFailed moves a running run to failed, recording reason.
func (r *Registry) MarkFailed(runID, reason string) bool {
	return r.setStatus(runID, domain.RunStatusFailed, reason)
}

func (r *Registry) setStatus(runID string, status domain.RunStatus, reason string) bool {
	r.mu.Lock()
	rn, ok := r.runs[runID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	changed := rn.transition(status)
	if changed {
		rn.updatedAt = r.now()
		if reason != "" {
			rn.errMessage = reason
		}
	}
	r.mu.Unlock()

	if changed {
		r.notify(runID)
	}
	return changed
}

// ListRuns returns a snapshot of every tracked run in insertion order.
func (r *Registry) ListRuns() []domain.RunInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]domain.RunInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.runs[id].info())
	}
	return infos
}

// EventCount returns the length of the run's log, or -1 for unknown runs.
func (r *Registry) EventCount(runID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rn, ok := r.runs[runID]; ok {
		return len(rn.events)
	}
	return -1
}

func (r *Registry) notify(runID string) {
	if r.notifier != nil {
		r.notifier.Notify(runID)
	}
}
