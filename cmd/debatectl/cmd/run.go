package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/debatebridge/internal/tools"
)

var resultCmd = &cobra.Command{
	Use:   "result <run-id>",
	Short: "Show the final result of a completed debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeAndPrint(cmd, tools.ToolGetResult, runIDArgs(args[0]))
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Show a debate's status without consuming events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeAndPrint(cmd, tools.ToolGetStatus, runIDArgs(args[0]))
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <run-id>",
	Short: "Cancel a running debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeAndPrint(cmd, tools.ToolCancelDebate, runIDArgs(args[0]))
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish <run-id>",
	Short: "Publish a completed debate and print its share URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeAndPrint(cmd, tools.ToolPublishDebate, runIDArgs(args[0]))
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List debates tracked by the bridge",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeAndPrint(cmd, tools.ToolListDebates, nil)
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the bridge routes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutput(); err != nil {
			return err
		}
		client, err := newBridgeClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		list, err := client.ListTools(ctx)
		if err != nil {
			return err
		}
		return printTools(cmd.OutOrStdout(), list)
	},
}

func init() {
	rootCmd.AddCommand(resultCmd, statusCmd, cancelCmd, publishCmd, listCmd, toolsCmd)
}
