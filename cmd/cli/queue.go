package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/prguard/prguard/internal/core"
)

var (
	outputJSON bool
	queueLimit int
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Shows recent review jobs and their status",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		env, cleanup, err := buildEnv(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		jobs, err := env.jobs.ListRecent(ctx, queueLimit)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(jobs)
		}

		if len(jobs) == 0 {
			fmt.Println("No review jobs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tREPOSITORY\tPR\tSTATUS\tATTEMPTS\tCREATED")
		for _, job := range jobs {
			fmt.Fprintf(w, "%s\t%s\t#%d\t%s\t%d/%d\t%s\n",
				job.ID,
				job.RepoFullName,
				job.PRNumber,
				statusColor(job.Status).Sprint(job.Status),
				job.Attempts,
				job.MaxAttempts,
				job.CreatedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

func statusColor(status core.JobStatus) *color.Color {
	switch status {
	case core.JobCompleted:
		return successColor
	case core.JobFailed:
		return color.New(color.FgRed)
	case core.JobProcessing:
		return titleColor
	case core.JobPending:
		return warnColor
	default:
		return dimColor
	}
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	queueCmd.Flags().BoolVar(&outputJSON, "json", false, "Output jobs as JSON")
	queueCmd.Flags().IntVar(&queueLimit, "limit", 20, "Maximum number of jobs to list")
	rootCmd.AddCommand(queueCmd)
}
