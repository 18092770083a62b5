package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"charyscan/internal/app"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <author> <permlink>",
	Short: "Score a single post for charitable intent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		post, err := application.Fetcher.Get(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		analysis, err := application.Orchestrator.Analyze(cmd.Context(), post)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
