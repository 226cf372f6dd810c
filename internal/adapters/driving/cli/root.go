// Package cli implements the deskfind command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/deskfind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/deskfind/internal/adapters/driven/llm"
	"github.com/custodia-labs/deskfind/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
	"github.com/custodia-labs/deskfind/internal/core/ports/driving"
	"github.com/custodia-labs/deskfind/internal/core/services"
	"github.com/custodia-labs/deskfind/internal/korean"
	"github.com/custodia-labs/deskfind/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose   bool
	flagDataDir   string
	flagConfigDir string
)

// Wired services, available to subcommands after PersistentPreRunE.
var (
	cfgStore      *file.ConfigStore
	store         *sqlite.Store
	llmService    driven.LLMService
	searchService driving.FileSearchService
	accessService driving.FileAccessService
)

var rootCmd = &cobra.Command{
	Use:   "deskfind",
	Short: "Natural-language file search over tickets and chat",
	Long: `deskfind answers Korean natural-language questions like
"지난주 디자인팀에서 받은 기획서 찾아줘" with the matching ticket and chat
attachments the asking user is allowed to see.`,
	SilenceUsage:      true,
	PersistentPreRunE: wire,
	PersistentPostRun: unwire,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.deskfind/data)")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.deskfind)")
}

// wire builds the adapter stack and core services shared by subcommands.
func wire(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)

	if cmd.Name() == "version" {
		return nil
	}

	var err error
	cfgStore, err = file.NewConfigStore(flagConfigDir)
	if err != nil {
		return err
	}
	store, err = sqlite.NewStore(flagDataDir)
	if err != nil {
		return err
	}

	// A missing or unreachable model is not fatal: the parser runs
	// rule-based only.
	llmService, err = llm.NewFromConfig(cfgStore)
	if err != nil {
		logger.Warn("LLM disabled: %v", err)
		llmService = nil
	}
	if llmService != nil {
		logger.Info("LLM enabled: %s", llmService.ModelName())
	}

	members := store.MemberStore()
	nicknames := services.NewNicknameCache(members, 0)
	tokenizer := korean.NewTokenizer(nil)
	tokenizer.SetErrorHook(func(err error) {
		logger.Warn("Morpheme analysis failed: %v", err)
	})
	parser := services.NewQueryParser(members, nicknames)

	searchService = services.NewSearchService(
		store.TicketFileStore(), store.ChatFileStore(), members,
		llmService, parser, tokenizer)
	accessService = services.NewFileAccessService(
		store.TicketFileStore(), store.ChatFileStore(), store.BlobStore())
	return nil
}

func unwire(_ *cobra.Command, _ []string) {
	if llmService != nil {
		_ = llmService.Close()
	}
	if store != nil {
		_ = store.Close()
	}
}
