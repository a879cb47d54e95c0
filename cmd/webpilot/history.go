package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"webpilot-go/domain/run"
	"webpilot-go/infrastructure/repository"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recent runs from the journal, or show one run in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Journal.Enabled {
		return errors.New("the run journal is disabled (set journal.enabled)")
	}

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := repository.NewMongoDB(ctx, cfg.MongoDBConfig(), logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = db.Close(closeCtx)
	}()

	service := run.NewService(repository.NewMongoRunRepository(db, logger))
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		r, err := service.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		printRun(out, r)
		return nil
	}

	runs, err := service.ListRecent(ctx, historyLimit)
	if err != nil {
		return err
	}
	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []*run.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tTICKS\tOBJECTIVE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Ticks(), r.Objective)
	}
	_ = tw.Flush()
}

func printRun(w io.Writer, r *run.Run) {
	fmt.Fprintf(w, "Run:       %s\n", r.ID)
	fmt.Fprintf(w, "Agent:     %s\n", r.AgentID)
	fmt.Fprintf(w, "Objective: %s\n", r.Objective)
	fmt.Fprintf(w, "Status:    %s (%s)\n", r.Status, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Outcome:   %s\n", r.Outcome)
	if r.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", r.Error)
	}
	for _, s := range r.Steps {
		fmt.Fprintf(w, "  [%2d] %s", s.Tick, s.Action)
		if s.Target != "" {
			fmt.Fprintf(w, " %q", s.Target)
		}
		if s.Content != "" {
			fmt.Fprintf(w, " <- %q", s.Content)
		}
		fmt.Fprintln(w)
		if s.Result != "" {
			fmt.Fprintf(w, "       %s\n", s.Result)
		}
	}
}
