package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/deskfind/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/deskfind/internal/logger"
)

var (
	serveListen string
	serveTokens []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Starts the HTTP API:

  POST /api/ai/file/chat            natural-language file search
  GET  /api/ai/file/view/{uuid}     stream a file inline
  GET  /api/ai/file/download/{uuid} download a file

Clients authenticate with "Authorization: Bearer <token>". Tokens map to
principal emails via repeated --token flags or the http.token/http.user
config keys.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default :8080 or http.listen config)")
	serveCmd.Flags().StringArrayVar(&serveTokens, "token", nil, "token binding as <token>=<email>, repeatable")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	tokens := make(map[string]string)
	if tok := cfgStore.GetString("http.token"); tok != "" {
		if user := cfgStore.GetString("http.user"); user != "" {
			tokens[tok] = user
		}
	}
	for _, binding := range serveTokens {
		token, email, ok := strings.Cut(binding, "=")
		if !ok || token == "" || email == "" {
			return fmt.Errorf("invalid --token binding %q, want <token>=<email>", binding)
		}
		tokens[token] = email
	}
	if len(tokens) == 0 {
		return errors.New("no auth tokens configured; pass --token or set http.token/http.user")
	}

	listen := serveListen
	if listen == "" {
		listen = cfgStore.GetString("http.listen")
	}
	if listen == "" {
		listen = ":8080"
	}

	api := httpapi.NewServer(searchService, accessService,
		httpapi.NewStaticTokenAuthenticator(tokens))
	srv := &http.Server{
		Addr:              listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Listening on %s with %d token binding(s)", listen, len(tokens))
	cmd.Printf("deskfind API listening on %s\n", listen)
	return srv.ListenAndServe()
}
