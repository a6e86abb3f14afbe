package runlog

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

var (
	reasoningBlock    = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)
	reasoningTrailing = regexp.MustCompile(`(?is)<think(?:ing)?>.*$`)
)

// StripReasoning removes embedded reasoning-trace markup from a message body.
func StripReasoning(s string) string {
	s = reasoningBlock.ReplaceAllString(s, "")
	s = reasoningTrailing.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

type terminalResult struct {
	Topic        string         `json:"topic"`
	Topology     string         `json:"topology"`
	AgentCount   int            `json:"agent_count"`
	FinalAnswer  string         `json:"final_answer"`
	Synthesis    string         `json:"synthesis"`
	TotalCost    float64        `json:"total_cost"`
	RoundResults [][]nodeResult `json:"round_results"`
}

type nodeResult struct {
	NodeID    string          `json:"node_id"`
	Round     int             `json:"round"`
	Responses []agentResponse `json:"responses"`
}

type agentResponse struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role"`
	Model   string `json:"model"`
	Message string `json:"message"`
	Content string `json:"content"`
}

// GetPublishData reconstructs the flattened, round-ordered responses of a
// completed run from its terminal payload.
func (r *Registry) GetPublishData(runID string) (*domain.PublishData, error) {
	r.mu.Lock()
	rn, ok := r.runs[runID]
	if !ok {
		r.mu.Unlock()
		return nil, ErrRunNotFound
	}
	if rn.status != domain.RunStatusCompleted || rn.result == nil {
		r.mu.Unlock()
		return nil, ErrNotCompleted
	}
	payload, _ := rn.result.Payload.(*domain.CompletePayload)
	topic := rn.topic
	agentsTotal := rn.agentsTotal
	r.mu.Unlock()

	if payload == nil {
		return nil, ErrPublishUnavailable
	}
	var res terminalResult
	if err := json.Unmarshal(payload.Result, &res); err != nil || res.RoundResults == nil {
		return nil, ErrPublishUnavailable
	}

	data := &domain.PublishData{
		RunID:       runID,
		Topic:       res.Topic,
		Topology:    res.Topology,
		Rounds:      len(res.RoundResults),
		Responses:   make([]domain.PublishedResponse, 0),
		FinalAnswer: StripReasoning(firstNonEmpty(res.FinalAnswer, res.Synthesis)),
		TotalCost:   res.TotalCost,
	}
	if data.Topic == "" {
		data.Topic = topic
	}

	agents := make(map[string]struct{})
	for _, round := range res.RoundResults {
		for _, node := range round {
			for _, resp := range node.Responses {
				data.Responses = append(data.Responses, domain.PublishedResponse{
					Round:   node.Round,
					NodeID:  node.NodeID,
					AgentID: resp.AgentID,
					Role:    resp.Role,
					Model:   resp.Model,
					Content: StripReasoning(firstNonEmpty(resp.Message, resp.Content)),
				})
				if resp.AgentID != "" {
					agents[resp.AgentID] = struct{}{}
				}
			}
		}
	}

	switch {
	case res.AgentCount > 0:
		data.AgentCount = res.AgentCount
	case agentsTotal > 0:
		data.AgentCount = agentsTotal
	default:
		data.AgentCount = len(agents)
	}
	if data.Topology == "" {
		data.Topology = InferTopology(data.AgentCount)
	}
	return data, nil
}

// InferTopology gives a coarse panel size label from the agent count.
func InferTopology(agentCount int) string {
	switch {
	case agentCount <= 4:
		return "small"
	case agentCount <= 6:
		return "medium"
	default:
		return "large"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
