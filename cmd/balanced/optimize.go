package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/balancelab/balance-core/internal/balance"
	"github.com/balancelab/balance-core/internal/optimizer"
	"github.com/balancelab/balance-core/internal/report"
	"github.com/balancelab/balance-core/internal/sensitivity"
	"github.com/balancelab/balance-core/pkg/config"
	"github.com/balancelab/balance-core/pkg/logger"
)

// newOptimizeCmd builds the one-shot optimization command: load a job
// file, run it to completion, and write the report.
func newOptimizeCmd() *cobra.Command {
	var (
		jobPath     string
		outPath     string
		xlsxPath    string
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run one optimization job and write the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := config.Load(jobPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, err := optimizer.NewEngine(job.Engine)
			if err != nil {
				return err
			}
			sim := balance.NewHeuristicSimulator(job.Bounds, job.Simulation.Seed, job.Simulation.Noise).
				WithWeights(job.EffectiveWeights())

			started := time.Now()
			best, err := engine.Optimize(ctx, job.Initial, job.Bounds, sim,
				func(fraction, bestScore float64) {
					logger.Info("progress", "fraction", fmt.Sprintf("%.0f%%", fraction*100), "best_score", bestScore)
				})
			if err != nil {
				return err
			}
			history := engine.History()

			ranking, err := sensitivity.Analyze(history, job.Bounds)
			if err != nil {
				logger.Warn("sensitivity analysis skipped", "error", err)
				ranking = nil
			}
			rep := report.Build(best, history, ranking, string(engine.State()), time.Since(started))

			if historyPath != "" {
				if err := writeHistory(historyPath, history); err != nil {
					return err
				}
			}
			if xlsxPath != "" {
				if err := writeXLSX(xlsxPath, rep, history); err != nil {
					return err
				}
			}
			return writeReport(outPath, rep)
		},
	}

	cmd.Flags().StringVarP(&jobPath, "file", "f", "", "job file (YAML)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "report output path (default stdout)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also export the report as XLSX")
	cmd.Flags().StringVar(&historyPath, "history", "", "also save the trial history as JSON")
	cmd.MarkFlagRequired("file")
	return cmd
}

func writeReport(path string, rep *report.Report) error {
	if path == "" {
		return rep.WriteJSON(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := rep.WriteJSON(f); err != nil {
		return err
	}
	logger.Info("report written", "path", path)
	return nil
}

func writeXLSX(path string, rep *report.Report, history optimizer.History) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create xlsx file: %w", err)
	}
	defer f.Close()
	if err := rep.WriteXLSX(f, history); err != nil {
		return err
	}
	logger.Info("workbook written", "path", path)
	return nil
}

func writeHistory(path string, history optimizer.History) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(history); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	logger.Info("history written", "path", path, "trials", len(history))
	return nil
}
