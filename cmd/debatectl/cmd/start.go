package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
	"github.com/xiaot623/gogo/debatebridge/internal/tools"
)

// Start command flags
var (
	startAgents   int
	startRounds   int
	startTopology string
	startModels   []string
)

var startCmd = &cobra.Command{
	Use:   "start <topic>",
	Short: "Start a debate",
	Long: `Start a multi-agent debate on a topic and print its run id.

Examples:
  debatectl start "Should cities ban cars?"
  debatectl start "Tabs or spaces" --agents 4 --rounds 2
  debatectl start "Best sorting algorithm" --model gpt-4o --model claude`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().IntVarP(&startAgents, "agents", "n", 0, "number of agents (0 lets the service decide)")
	startCmd.Flags().IntVarP(&startRounds, "rounds", "r", 0, "number of rounds (0 lets the service decide)")
	startCmd.Flags().StringVar(&startTopology, "topology", "", "debate topology")
	startCmd.Flags().StringSliceVarP(&startModels, "model", "m", nil, "model to seat on the panel (repeatable)")
}

func runStart(cmd *cobra.Command, args []string) error {
	req := domain.StartRequest{
		Topic:      strings.Join(args, " "),
		AgentCount: startAgents,
		Rounds:     startRounds,
		Topology:   startTopology,
		Models:     startModels,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return invokeAndPrint(cmd, tools.ToolStartDebate, payload)
}

// invokeAndPrint runs one tool and prints its result.
func invokeAndPrint(cmd *cobra.Command, tool string, args json.RawMessage) error {
	if err := validateOutput(); err != nil {
		return err
	}
	client, err := newBridgeClient()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := client.Invoke(ctx, tool, args)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), res)
}

func runIDArgs(runID string) json.RawMessage {
	data, _ := json.Marshal(domain.RunRequest{RunID: runID})
	return data
}
