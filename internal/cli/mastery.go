package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"study-engine/internal/domain"
)

// NewMasteryCmd prints the mastery overview of a deck, or lists tracked decks.
func NewMasteryCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mastery [deck-id]",
		Short: "Show how well the cards of a deck are known",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				keys, err := rt.kv.Keys(cmd.Context(), "mastery:deck/")
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(out, strings.TrimPrefix(k, "mastery:deck/"))
				}
				return nil
			}

			overview, err := rt.svc.DeckMastery(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d cards\n", overview.DeckID, overview.Total)
			for _, s := range []domain.MasteryStatus{domain.NotLearned, domain.Learning, domain.Mastered} {
				fmt.Fprintf(out, "  %-12s %d\n", s, overview.Counts[s])
			}
			return nil
		},
	}
}
