package cli

import (
	"github.com/spf13/cobra"

	"charyscan/internal/app"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover new charitable posts and analyze them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.ScanOnce(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
