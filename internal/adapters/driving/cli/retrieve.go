package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

var (
	retrieveCount     int
	retrieveThreshold float64
	retrieveProfileID string
	retrieveContext   bool
	retrieveJSON      bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [corpus-id] [query]",
	Short: "Retrieve the chunks of a corpus closest to a query",
	Long: `Embeds the query with the configured provider and returns the most similar
chunks whose similarity meets the threshold. Use --context to print the
prompt-ready context block instead of the hit list.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveCount, "count", "n", domain.DefaultMatchCount, "maximum number of chunks")
	retrieveCmd.Flags().Float64VarP(&retrieveThreshold, "threshold", "t", domain.DefaultMatchThreshold, "minimum similarity (0-1)")
	retrieveCmd.Flags().StringVar(&retrieveProfileID, "profile", "", "profile used to frame the context")
	retrieveCmd.Flags().BoolVar(&retrieveContext, "context", false, "print the assembled context")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return fmt.Errorf("retrieval service %w", errNotConfigured)
	}

	assembled, err := retrievalService.AssembleContext(commandContext(cmd), driving.ContextRequest{
		Query: domain.RetrievalQuery{
			CorpusID:       args[0],
			Query:          strings.Join(args[1:], " "),
			MatchCount:     retrieveCount,
			MatchThreshold: domain.Threshold(retrieveThreshold),
		},
		ProfileID: retrieveProfileID,
	})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	result := assembled.Result
	if retrieveJSON {
		if err := printJSON(cmd, assembled); err != nil {
			return err
		}
	} else {
		outputRetrieval(cmd, assembled)
	}

	if !result.Success {
		return errors.New(result.Error)
	}
	return nil
}

func outputRetrieval(cmd *cobra.Command, assembled *driving.AssembledContext) {
	result := assembled.Result
	if !result.Success {
		cmd.Printf("Retrieval failed: %s\n", result.Error)
		return
	}

	if retrieveContext {
		if assembled.ProfileContext != "" {
			cmd.Println(assembled.ProfileContext)
			cmd.Println()
		}
		cmd.Println(assembled.Context)
		return
	}

	if len(result.Chunks) == 0 {
		cmd.Println("No chunks above the threshold.")
		return
	}

	for i, hit := range result.Chunks {
		name := hit.DocumentName
		if name == "" {
			name = hit.Chunk.Metadata.FileName
		}
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, name, hit.Chunk.Index, hit.Similarity)
		cmd.Printf("      %s\n", snippet(hit.Chunk.Content, 160))
	}
}

func snippet(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
