package main

import (
	"fmt"
	"io"

	"balcao/internal/worker"

	"github.com/spf13/cobra"
)

// queues maps the short names accepted on the command line.
var queues = map[string]string{
	"print":       worker.QueuePrint,
	"stock_alert": worker.QueueStockAlert,
	"reconcile":   worker.QueueReconcile,
}

func queueName(short string) (string, error) {
	q, ok := queues[short]
	if !ok {
		return "", fmt.Errorf("unknown queue %q: use print, stock_alert or reconcile", short)
	}
	return q, nil
}

func newDLQCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Filas de mensagens mortas (falhas de impressão, alertas e conciliação)",
	}
	cmd.AddCommand(newDLQListCommand(opts))
	cmd.AddCommand(newDLQRequeueCommand(opts))
	return cmd
}

func newDLQListCommand(opts *rootOptions) *cobra.Command {
	var queue string
	var limit int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista as entradas mais recentes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := queueName(queue)
			if err != nil {
				return err
			}
			rdb, err := opts.redis()
			if err != nil {
				return err
			}
			total, err := worker.DLQLength(cmd.Context(), rdb, q)
			if err != nil {
				return err
			}
			entries, err := worker.DLQList(cmd.Context(), rdb, q, limit)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), entries, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %d entrada(s)\n", q, total)
				for _, e := range entries {
					fmt.Fprintf(w, "%s  %-12s  tentativas=%d  %s\n    %s\n", e.FailedAt, e.JobType, e.Attempts, e.Reason, e.Payload)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&queue, "queue", "q", "reconcile", "print | stock_alert | reconcile")
	cmd.Flags().Int64VarP(&limit, "limit", "n", 20, "máximo de entradas")
	return cmd
}

func newDLQRequeueCommand(opts *rootOptions) *cobra.Command {
	var queue string
	var limit int

	cmd := &cobra.Command{
		Use:   "requeue",
		Short: "Devolve as entradas mais antigas para a fila de origem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := queueName(queue)
			if err != nil {
				return err
			}
			rdb, err := opts.redis()
			if err != nil {
				return err
			}
			moved, err := worker.DLQRequeue(cmd.Context(), rdb, q, limit)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), map[string]int{"requeued": moved}, func(w io.Writer) {
				fmt.Fprintf(w, "%d entrada(s) devolvida(s) para %s\n", moved, q)
			})
		},
	}

	cmd.Flags().StringVarP(&queue, "queue", "q", "print", "print | stock_alert")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "máximo de entradas")
	return cmd
}
