package cli

import (
	"errors"
	"sync"

	"github.com/akolanti/smartsort/internal/app"
	"github.com/akolanti/smartsort/internal/ingest"
	"github.com/akolanti/smartsort/internal/worker"
	"github.com/spf13/cobra"
)

var (
	workerCount int
	watchInbox  bool
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the pipeline workers until interrupted",
	Long: `Starts the worker pool against the configured queue. Each worker takes the
highest priority pending job, runs its stage handler and records the outcome.

With --watch new files dropped in 00_inbox are ingested automatically.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVarP(&workerCount, "workers", "w", 0, "number of workers (0 = config value)")
	workerCmd.Flags().BoolVar(&watchInbox, "watch", false, "ingest new inbox files automatically")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		ctx := cmd.Context()
		workerCfg := a.Config.Worker
		if workerCount > 0 {
			workerCfg.Count = workerCount
		}
		pool := worker.NewPool(a.Queue, a.Handlers(ctx), workerCfg)

		var wg sync.WaitGroup
		var watchErr error
		if watchInbox || a.Config.Inbox.Watch {
			watcher := ingest.NewInboxWatcher(a.Ingest, a.Sandbox, a.Config.Inbox.Debounce)
			wg.Add(1)
			go func() {
				defer wg.Done()
				watchErr = watcher.Run(ctx)
			}()
		}

		err := pool.Run(ctx)
		wg.Wait()
		return errors.Join(err, watchErr)
	})
}
