package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by schedulers and chat backends.

Routes:
  GET  /healthz
  GET  /api/corpora
  POST /api/corpora                    {name, source_folder_id}
  GET  /api/corpora/{id}
  GET  /api/corpora/{id}/documents
  POST /api/corpora/{id}/sync          {folder_id?, job_id?, batch_size?}
  POST /api/corpora/{id}/retrieve      {query, match_count, match_threshold, profile_id}
  GET  /api/jobs/{id}
  POST /api/profiles
  GET  /api/profiles/{id}`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := httpapi.NewServer(&httpapi.Ports{
		Corpus:    corpusService,
		Sync:      syncOrchestrator,
		Retrieval: retrievalService,
		Profile:   profileService,
	}, httpapi.WithAllowedOrigins(serverSettings.AllowedOrigins))
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = serverSettings.Addr
	}
	if addr == "" {
		addr = ":8080"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on %s\n", addr)
	return server.Run(commandContext(cmd), addr)
}
