package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"charyscan/internal/app"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Publish a curation report post on-chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if application.Report == nil {
			return fmt.Errorf("no database configured")
		}

		res, err := application.Report.Publish(cmd.Context())
		if err != nil {
			return err
		}

		if res.RedirectURL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "authorization required, visit: %s\n", res.RedirectURL)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report published (tx %s)\n", res.TxID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
