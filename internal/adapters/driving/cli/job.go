package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var jobJSON bool

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect ingestion jobs",
}

var jobShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show job status, progress and stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobShow,
}

func init() {
	jobShowCmd.Flags().BoolVar(&jobJSON, "json", false, "output as JSON")
	jobCmd.AddCommand(jobShowCmd)
	rootCmd.AddCommand(jobCmd)
}

func runJobShow(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return fmt.Errorf("corpus service %w", errNotConfigured)
	}

	job, err := corpusService.GetJob(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	if jobJSON {
		return printJSON(cmd, job)
	}

	cmd.Printf("Job:         %s\n", job.ID)
	cmd.Printf("Corpus:      %s\n", job.CorpusID)
	cmd.Printf("Status:      %s\n", job.Status)
	if job.Progress.Stage != "" {
		cmd.Printf("Progress:    %s %d/%d\n", job.Progress.Stage, job.Progress.Current, job.Progress.Total)
	}
	cmd.Printf("Started:     %s\n", formatTime(job.StartedAt))
	if job.CompletedAt != nil {
		cmd.Printf("Completed:   %s\n", formatTime(job.CompletedAt))
	}
	if job.ErrorMessage != "" {
		cmd.Printf("Error:       %s\n", job.ErrorMessage)
	}
	printStats(cmd, job.Stats)
	return nil
}
