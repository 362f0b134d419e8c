package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var drain bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process pending review jobs from the queue",
	Long: `Process pending review jobs from the queue.

Runs one worker pass over the queue, claiming up to the configured batch
size. With --drain, passes repeat until the queue is empty.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		env, cleanup, err := buildEnv(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		total := 0
		for {
			processed, err := env.worker.RunOnce(ctx)
			total += processed
			if err != nil {
				return fmt.Errorf("worker pass failed: %w", err)
			}
			if !drain || processed == 0 {
				break
			}
		}

		successColor.Printf("Processed %d job(s)\n", total)
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	workerCmd.Flags().BoolVar(&drain, "drain", false, "Keep running passes until the queue is empty")
	rootCmd.AddCommand(workerCmd)
}
