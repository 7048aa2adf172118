package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

var (
	syncJobID     string
	syncFolderID  string
	syncBatchSize int
	syncUntilDone bool
	syncMaxTicks  int
)

var syncCmd = &cobra.Command{
	Use:   "sync [corpus-id]",
	Short: "Run a sync tick for a corpus",
	Long: `Runs one bounded sync tick: lists the corpus folder, processes up to
--batch-size files and records progress on the job and corpus.

Without --job-id a new job is started. Re-run with the printed job ID while
more work remains, or pass --until-done to keep ticking until the corpus
completes.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncJobID, "job-id", "", "continue an existing job")
	syncCmd.Flags().StringVar(&syncFolderID, "folder", "", "override the corpus source folder")
	syncCmd.Flags().IntVarP(&syncBatchSize, "batch-size", "b", 0, "files per tick (0 = configured default)")
	syncCmd.Flags().BoolVar(&syncUntilDone, "until-done", false, "repeat ticks until no work remains")
	syncCmd.Flags().IntVar(&syncMaxTicks, "max-ticks", 1000, "upper bound on ticks with --until-done")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil || corpusService == nil {
		return fmt.Errorf("sync service %w", errNotConfigured)
	}

	ctx := commandContext(cmd)
	corpusID := args[0]

	jobID := syncJobID
	if jobID == "" {
		job, err := corpusService.StartJob(ctx, corpusID)
		if err != nil {
			return fmt.Errorf("failed to start job: %w", err)
		}
		jobID = job.ID
		if job.Status == domain.JobStatusRunning {
			cmd.Printf("Resuming job %s\n", jobID)
		} else {
			cmd.Printf("Started job %s\n", jobID)
		}
	}

	req := driving.SyncRequest{
		CorpusID:  corpusID,
		FolderID:  syncFolderID,
		JobID:     jobID,
		BatchSize: syncBatchSize,
	}

	for tick := 1; ; tick++ {
		result, err := syncOrchestrator.RunSync(ctx, req)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		printTick(cmd, tick, result)

		if !result.MoreRemaining {
			cmd.Printf("Corpus %s is %s.\n", corpusID, result.CorpusStatus)
			return nil
		}
		if !syncUntilDone {
			cmd.Printf("More files remain. Continue with: sercha-ingest sync %s --job-id %s\n", corpusID, jobID)
			return nil
		}
		if tick >= syncMaxTicks {
			return errors.New("stopped after --max-ticks with work remaining")
		}
	}
}

func printTick(cmd *cobra.Command, tick int, result *driving.SyncResult) {
	s := result.Stats
	cmd.Printf("Tick %d: job %s %s, %d/%d files processed (%d skipped, %d failed), %d chunks added\n",
		tick, result.JobID, result.Status, s.FilesProcessed, s.TotalFiles, s.FilesSkipped, s.FilesFailed, s.TotalChunks)
	if s.Message != "" {
		cmd.Printf("  %s\n", s.Message)
	}
	for _, e := range s.Errors {
		cmd.Printf("  error: %s\n", e)
	}
}
