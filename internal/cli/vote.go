package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"charyscan/internal/app"
	"charyscan/internal/wallet"
)

var voteWeight int

var voteCmd = &cobra.Command{
	Use:   "vote <author> <permlink>",
	Short: "Upvote a post through the configured signing provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if cfg.Wallet.Account == "" {
			return fmt.Errorf("wallet.account is not configured")
		}

		req := wallet.VoteRequest{
			Voter:    cfg.Wallet.Account,
			Author:   args[0],
			Permlink: args[1],
			Weight:   voteWeight,
		}
		if err := application.Wallet.Vote(cmd.Context(), cfg.Wallet.Provider, req); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "voted @%s/%s with weight %d\n", args[0], args[1], voteWeight)
		return nil
	},
}

func init() {
	voteCmd.Flags().IntVar(&voteWeight, "weight", 10000, "vote weight in basis points")
	rootCmd.AddCommand(voteCmd)
}
