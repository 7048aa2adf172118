package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var (
	corpusFolderID string
	corpusJSON     bool
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage corpora",
	Long:  `Create and inspect corpora. A corpus is bound to one source folder.`,
}

var corpusCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a corpus bound to a source folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorpusCreate,
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List corpora",
	RunE:  runCorpusList,
}

var corpusShowCmd = &cobra.Command{
	Use:   "show [corpus-id]",
	Short: "Show corpus sync status and documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorpusShow,
}

func init() {
	corpusCreateCmd.Flags().StringVar(&corpusFolderID, "folder", "", "source folder ID (Drive folder, S3 prefix or directory)")
	_ = corpusCreateCmd.MarkFlagRequired("folder")
	corpusShowCmd.Flags().BoolVar(&corpusJSON, "json", false, "output as JSON")

	corpusCmd.AddCommand(corpusCreateCmd)
	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusShowCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusCreate(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return fmt.Errorf("corpus service %w", errNotConfigured)
	}

	corpus, err := corpusService.Create(commandContext(cmd), args[0], corpusFolderID)
	if err != nil {
		return fmt.Errorf("failed to create corpus: %w", err)
	}

	cmd.Printf("Created corpus %s (%s)\n", corpus.ID, corpus.Name)
	cmd.Printf("Run 'sercha-ingest sync %s' to ingest it.\n", corpus.ID)
	return nil
}

func runCorpusList(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return fmt.Errorf("corpus service %w", errNotConfigured)
	}

	corpora, err := corpusService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list corpora: %w", err)
	}

	if len(corpora) == 0 {
		cmd.Println("No corpora found.")
		return nil
	}

	for i := range corpora {
		c := &corpora[i]
		cmd.Printf("  %s  %-24s %-10s %s\n", c.ID, c.Name, c.SyncStatus, formatTime(c.LastSyncAt))
	}
	return nil
}

func runCorpusShow(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return fmt.Errorf("corpus service %w", errNotConfigured)
	}

	ctx := commandContext(cmd)
	corpus, err := corpusService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get corpus: %w", err)
	}

	docs, err := corpusService.ListDocuments(ctx, corpus.ID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if corpusJSON {
		return printJSON(cmd, struct {
			Corpus    *domain.Corpus    `json:"corpus"`
			Documents []domain.Document `json:"documents"`
		}{corpus, docs})
	}

	cmd.Printf("Corpus:      %s\n", corpus.Name)
	cmd.Printf("ID:          %s\n", corpus.ID)
	cmd.Printf("Folder:      %s\n", corpus.SourceFolderID)
	cmd.Printf("Status:      %s\n", corpus.SyncStatus)
	if corpus.ActiveJobID != "" {
		cmd.Printf("Job:         %s\n", corpus.ActiveJobID)
	}
	cmd.Printf("Last sync:   %s\n", formatTime(corpus.LastSyncAt))
	if corpus.LastError != "" {
		cmd.Printf("Last error:  %s\n", corpus.LastError)
	}
	printStats(cmd, corpus.LastSyncStats)

	if len(docs) > 0 {
		cmd.Println()
		cmd.Println("Documents:")
		for i := range docs {
			d := &docs[i]
			line := fmt.Sprintf("  %-40s %-10s %3d chunks", d.Path, d.IndexingStatus, d.ChunkCount)
			if d.ErrorMessage != "" {
				line += "  " + d.ErrorMessage
			}
			cmd.Println(line)
		}
	}
	return nil
}

func printStats(cmd *cobra.Command, stats domain.SyncStats) {
	cmd.Printf("Files:       %d processed, %d failed, %d skipped, %d total\n",
		stats.FilesProcessed, stats.FilesFailed, stats.FilesSkipped, stats.TotalFiles)
	cmd.Printf("Chunks:      %d indexed, %d added last tick\n", stats.ChunksIndexed, stats.TotalChunks)
	if stats.Message != "" {
		cmd.Printf("Note:        %s\n", stats.Message)
	}
	if len(stats.Errors) > 0 {
		cmd.Println("Errors:")
		for _, e := range stats.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
