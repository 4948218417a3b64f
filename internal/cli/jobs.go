package cli

import (
	"fmt"

	"github.com/akolanti/smartsort/internal/adapter"
	"github.com/akolanti/smartsort/internal/app"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [inbox-path]",
	Short: "Ingest a file from the inbox and queue its pipeline",
	Long: `Hashes the file, stores an immutable copy under 01_ingested and enqueues
extract_text, chunk_text, embed_chunks and classify_document.

The path is relative to the storage root and must start with 00_inbox/.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var jobCmd = &cobra.Command{
	Use:   "job [job-id]",
	Short: "Show a job record",
	Args:  cobra.ExactArgs(1),
	RunE:  runJob,
}

var requeueCmd = &cobra.Command{
	Use:   "requeue [job-id]",
	Short: "Enqueue a fresh copy of a job",
	Long:  `Creates a new PENDING job with the same type, payload and priority. The original record is untouched.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRequeue,
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Print the number of waiting jobs",
	Args:  cobra.NoArgs,
	RunE:  runQueue,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(requeueCmd)
	rootCmd.AddCommand(queueCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app.App) error {
		res, err := a.Service.IngestDocument(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ingest %s: %w", args[0], err)
		}
		return printJSON(cmd, adapter.ToIngestResponse(res))
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app.App) error {
		job, found, err := a.Service.JobStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("job %s not found", args[0])
		}
		return printJSON(cmd, adapter.ToAPIResponse(job))
	})
}

func runRequeue(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app.App) error {
		newId, err := a.Service.Requeue(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("requeue %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Requeued %s as %s\n", args[0], newId)
		return nil
	})
}

func runQueue(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		n, err := a.Service.QueueLength(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	})
}
