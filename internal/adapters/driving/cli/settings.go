package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/deskfind/internal/adapters/driven/llm"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	RunE:  runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider",
	Long: `Configures the LLM used to parse queries the rules cannot.
Leaving the provider empty keeps deskfind rule-based only.`,
	RunE: runSettingsLLM,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a raw configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfgStore.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", args[0], err)
		}
		cmd.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	provider := cfgStore.GetString("llm.provider")
	if provider == "" {
		cmd.Println("  Provider: (not set, rule-based parsing only)")
	} else {
		cmd.Printf("  Provider: %s\n", provider)
		if model := cfgStore.GetString("llm.model"); model != "" {
			cmd.Printf("  Model: %s\n", model)
		}
		if baseURL := cfgStore.GetString("llm.base_url"); baseURL != "" {
			cmd.Printf("  Base URL: %s\n", baseURL)
		}
		if key := cfgStore.GetString("llm.api_key"); key != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(key))
		}
	}
	cmd.Println()

	cmd.Println("[HTTP]")
	listen := cfgStore.GetString("http.listen")
	if listen == "" {
		listen = ":8080"
	}
	cmd.Printf("  Listen: %s\n", listen)
	if user := cfgStore.GetString("http.user"); user != "" {
		cmd.Printf("  Default user: %s\n", user)
	}
	cmd.Println()

	cmd.Printf("Config file: %s\n", cfgStore.Path())
	cmd.Printf("Database: %s\n", store.Path())
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select LLM Provider")
	cmd.Println("  1. ollama (local, no API key)")
	cmd.Println("  2. openai (hosted, API key required)")
	cmd.Println("  3. none   (disable LLM parsing)")
	cmd.Print("\nEnter choice [1]: ")

	var provider string
	switch readLine(reader) {
	case "", "1":
		provider = "ollama"
	case "2":
		provider = "openai"
	case "3":
		provider = ""
	default:
		return errors.New("invalid selection")
	}

	if provider == "" {
		if err := cfgStore.Set("llm.provider", ""); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		cmd.Println("LLM parsing disabled.")
		return nil
	}

	cmd.Print("Enter model name (empty for provider default): ")
	model := readLine(reader)

	var apiKey string
	if provider == "openai" {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := cfgStore.Set("llm.provider", provider); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := cfgStore.Set("llm.model", model); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := cfgStore.Set("llm.api_key", apiKey); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	// Validate the configuration by pinging the service.
	cmd.Print("Validating configuration... ")
	svc, err := llm.NewFromConfig(cfgStore)
	if err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	defer svc.Close()
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", provider, svc.ModelName())
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
