package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

const maxMessageChars = 400

func startText(resp *domain.StartResponse) string {
	return fmt.Sprintf("Debate %s started on %q. Poll it with poll_debate.", resp.RunID, resp.Topic)
}

func pollText(resp *domain.PollResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s is %s: %s.", resp.RunID, resp.Status, progress(resp.AgentsResponded, resp.AgentsTotal))
	if resp.CostEstimate > 0 {
		fmt.Fprintf(&b, " Estimated cost %.4f.", resp.CostEstimate)
	}
	switch len(resp.NewEvents) {
	case 0:
		b.WriteString(" No new events.")
	case 1:
		b.WriteString(" 1 new event:")
	default:
		fmt.Fprintf(&b, " %d new events:", len(resp.NewEvents))
	}
	for _, ev := range resp.NewEvents {
		b.WriteString("\n- ")
		b.WriteString(describeEvent(ev))
	}
	if resp.Done {
		b.WriteString("\nThe debate has finished.")
		if resp.Status == domain.RunStatusCompleted {
			b.WriteString(" Fetch the result with get_debate_result.")
		}
	}
	return b.String()
}

func progress(responded, total int) string {
	if total > 0 {
		return fmt.Sprintf("%d/%d agent responses", responded, total)
	}
	return fmt.Sprintf("%d agent responses", responded)
}

func describeEvent(ev domain.Event) string {
	switch p := ev.Payload.(type) {
	case *domain.ConnectionPayload:
		if p.Topic != "" {
			return fmt.Sprintf("%s: %q", ev.Type, p.Topic)
		}
	case *domain.RolesPayload:
		if len(p.Roles) > 0 {
			return fmt.Sprintf("%s: %s", ev.Type, strings.Join(p.Roles, ", "))
		}
	case *domain.AgentResponsePayload:
		who := p.AgentID
		if p.Role != "" {
			who = fmt.Sprintf("%s (%s)", p.AgentID, p.Role)
		}
		return fmt.Sprintf("%s from %s: %s", ev.Type, who, truncate(p.Message, maxMessageChars))
	case *domain.PhasePayload:
		switch {
		case p.Phase != "" && p.Round > 0:
			return fmt.Sprintf("%s: %s, round %d", ev.Type, p.Phase, p.Round)
		case p.Phase != "":
			return fmt.Sprintf("%s: %s", ev.Type, p.Phase)
		case p.Round > 0:
			return fmt.Sprintf("%s: round %d", ev.Type, p.Round)
		}
	case *domain.CostEstimatePayload:
		return fmt.Sprintf("%s: %.4f %s", ev.Type, p.EstimatedCost, p.Currency)
	case *domain.BillingPayload:
		return fmt.Sprintf("%s: amount %.4f, balance %.4f %s", ev.Type, p.Amount, p.Balance, p.Currency)
	case *domain.ErrorPayload:
		return fmt.Sprintf("%s: %s", ev.Type, p.Message)
	case *domain.CancelledPayload:
		if p.Reason != "" {
			return fmt.Sprintf("%s: %s", ev.Type, p.Reason)
		}
	case *domain.GenericPayload:
		if msg := p.String("message"); msg != "" && ev.Type == domain.EventTypeError {
			return fmt.Sprintf("%s: %s", ev.Type, msg)
		}
	}
	return string(ev.Type)
}

func resultText(res *domain.RunResult) string {
	var summary struct {
		FinalAnswer string `json:"final_answer"`
		Synthesis   string `json:"synthesis"`
	}
	_ = json.Unmarshal(res.Result, &summary)

	answer := summary.FinalAnswer
	if answer == "" {
		answer = summary.Synthesis
	}
	text := fmt.Sprintf("Debate %s completed", res.RunID)
	if res.Topic != "" {
		text += fmt.Sprintf(" on %q", res.Topic)
	}
	text += "."
	if answer != "" {
		text += "\n" + answer
	}
	return text
}

func statusText(info *domain.RunInfo) string {
	text := fmt.Sprintf("Run %s is %s: %s, %d events logged.", info.RunID, info.Status,
		progress(info.AgentsResponded, info.AgentsTotal), info.EventCount)
	if info.Error != "" {
		text += " Error: " + info.Error
	}
	return text
}

func publishText(resp *domain.PublishResponse) string {
	if resp.AlreadyPublished {
		return fmt.Sprintf("Debate %s was already published: %s", resp.RunID, resp.URL)
	}
	return fmt.Sprintf("Debate %s published with %d responses: %s", resp.RunID, resp.ResponseCount, resp.URL)
}

func listText(resp *domain.ListRunsResponse) string {
	if len(resp.Runs) == 0 {
		return "No debates."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d debates:", len(resp.Runs))
	for _, info := range resp.Runs {
		fmt.Fprintf(&b, "\n- %s [%s]", info.RunID, info.Status)
		if info.Topic != "" {
			fmt.Fprintf(&b, " %q", info.Topic)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
