package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
	"github.com/xiaot623/gogo/debatebridge/internal/tools"
)

// Poll command flags
var (
	pollWait   time.Duration
	pollFollow bool
)

var pollCmd = &cobra.Command{
	Use:   "poll <run-id>",
	Short: "Wait for new debate events",
	Long: `Long-poll a debate for events it has produced since the previous poll.

Each event is delivered to exactly one poll, so two terminals polling the
same run split the events between them.

Examples:
  debatectl poll run_123               # wait with the bridge's default timeout
  debatectl poll run_123 --wait 30s    # wait up to 30 seconds
  debatectl poll run_123 --wait 0      # return immediately
  debatectl poll run_123 --follow      # keep polling until the debate ends`,
	Args: cobra.ExactArgs(1),
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().DurationVarP(&pollWait, "wait", "w", -1, "how long to wait for new events (default: bridge setting)")
	pollCmd.Flags().BoolVarP(&pollFollow, "follow", "f", false, "keep polling until the debate finishes")
}

func runPoll(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}
	client, err := newBridgeClient()
	if err != nil {
		return err
	}

	req := domain.PollRequest{RunID: args[0]}
	if pollWait >= 0 {
		ms := int(pollWait / time.Millisecond)
		req.TimeoutMs = &ms
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	for {
		ctx, cancel := commandContext(cmd)
		res, err := client.Invoke(ctx, tools.ToolPollDebate, payload)
		cancel()
		if err != nil {
			return err
		}
		if err := printResult(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !pollFollow || pollDone(res) {
			return nil
		}
	}
}

// pollDone reads the done flag out of a poll result, whichever transport
// decoded it.
func pollDone(res *tools.Result) bool {
	data, err := json.Marshal(res.Data)
	if err != nil {
		return true
	}
	var poll struct {
		Done bool `json:"done"`
	}
	if err := json.Unmarshal(data, &poll); err != nil {
		return true
	}
	return poll.Done
}
