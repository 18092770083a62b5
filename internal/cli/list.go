package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"charyscan/internal/app"
	"charyscan/internal/domain"
	"charyscan/internal/normalize"
)

var (
	listFavorites bool
	listArchived  bool
	listChary     bool
	listLimit     uint64
	listOffset    uint64
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup()

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if application.Repository == nil {
			return fmt.Errorf("no database configured")
		}

		filter := domain.ListFilter{Limit: listLimit, Offset: listOffset}
		yes := true
		if cmd.Flags().Changed("favorites") && listFavorites {
			filter.Favorite = &yes
		}
		if cmd.Flags().Changed("archived") && listArchived {
			filter.Archived = &yes
		}
		if cmd.Flags().Changed("chary") && listChary {
			filter.Chary = &yes
		}

		analyses, err := application.Repository.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		for _, a := range analyses {
			score := "  - "
			if a.Score != nil {
				score = fmt.Sprintf("%4.1f", *a.Score)
			}
			marker := " "
			if a.IsMock {
				marker = "~"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s  %s  %s\n",
				score, marker, a.URL, normalize.Truncate(a.Summary, 80))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listFavorites, "favorites", false, "only favorites")
	listCmd.Flags().BoolVar(&listArchived, "archived", false, "only archived")
	listCmd.Flags().BoolVar(&listChary, "chary", false, "only chary-marked")
	listCmd.Flags().Uint64Var(&listLimit, "limit", 20, "page size")
	listCmd.Flags().Uint64Var(&listOffset, "offset", 0, "page offset")
	rootCmd.AddCommand(listCmd)
}
