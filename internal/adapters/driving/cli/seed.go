package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo members, tickets and chat rooms",
	Long: `Loads a small demo dataset into the local database so a fresh
install has something to search. Try afterwards:

  deskfind search --as demo@example.com "김철수가 보낸 디자인 시안"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := store.SeedDemo(cmd.Context()); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
		cmd.Println("Demo data loaded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
