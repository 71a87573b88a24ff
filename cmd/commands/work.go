package commands

import (
	"errors"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ncobase/searchsync/dispatch"
	"github.com/ncobase/searchsync/queue"
	"github.com/ncobase/searchsync/queue/memory"
)

func newWorkCommand(o *options) *cobra.Command {
	var queueName string

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Process queued search sync jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := o.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Queue == nil {
				return errors.New("queueing is disabled (data.queue.enabled: false)")
			}
			qc := app.Config.Data.Queue
			if queueName == "" {
				queueName = dispatch.ResolveQueueName(qc)
			}
			w := queue.NewWorker(app.Queue, app.Mux,
				queue.WithMaxAttempts(qc.MaxAttempts),
				queue.WithRetryDelay(qc.RetryDelay),
				queue.WithWorkerLogger(app.Logger),
			)
			n := qc.Workers
			if app.Queue.Name() == memory.Name {
				// the memory driver sizes its own pool from data.queue.workers
				n = 1
			}
			return runWorkers(cmd, w, queueName, n)
		},
	}

	cmd.Flags().StringVar(&queueName, "queue", "", "queue to consume (default data.queue.name, else search)")
	return cmd
}

// runWorkers runs n consumers of name and returns the first error.
func runWorkers(cmd *cobra.Command, w *queue.Worker, name string, n int) error {
	if n < 1 {
		n = 1
	}
	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(cmd.Context(), name); err != nil {
				once.Do(func() { first = err })
			}
		}()
	}
	wg.Wait()
	return first
}
