package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deskfind/internal/core/domain"
)

var (
	searchAs   string
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one natural-language file search",
	Long: `Runs a single search turn as the given user and prints the answer.

Example:
  deskfind search --as demo@example.com "지난주 디자인팀에서 받은 기획서"`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchAs, "as", "", "principal email to search as (required)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the answer as JSON")
	_ = searchCmd.MarkFlagRequired("as")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	answer, err := searchService.Chat(cmd.Context(), searchAs, domain.ChatRequest{
		UserInput: args[0],
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Message)
	if len(answer.Results) == 0 {
		return nil
	}
	cmd.Println()
	for i, r := range answer.Results {
		cmd.Printf("  [%d] %s (%d bytes)\n", i+1, r.FileName, r.FileSize)
		cmd.Printf("      uuid: %s\n", r.UUID)
		if r.TicketNo != nil {
			cmd.Printf("      ticket #%d: %s\n", *r.TicketNo, r.TicketTitle)
		}
		if !r.CreatedAt.IsZero() {
			cmd.Printf("      uploaded: %s by %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.WriterEmail)
		}
	}
	return nil
}
