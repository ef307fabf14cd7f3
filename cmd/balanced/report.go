package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/balancelab/balance-core/internal/optimizer"
	"github.com/balancelab/balance-core/internal/report"
	"github.com/balancelab/balance-core/internal/sensitivity"
	"github.com/balancelab/balance-core/pkg/config"
	"github.com/balancelab/balance-core/pkg/logger"
)

// newReportCmd rebuilds a report from a saved trial history, without
// re-running the optimization.
func newReportCmd() *cobra.Command {
	var (
		historyPath string
		jobPath     string
		outPath     string
		xlsxPath    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Rebuild a report from a saved trial history",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := config.Load(jobPath)
			if err != nil {
				return err
			}
			history, err := loadHistory(historyPath)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				return fmt.Errorf("history %s holds no trials", historyPath)
			}

			ranking, err := sensitivity.Analyze(history, job.Bounds)
			if err != nil {
				logger.Warn("sensitivity analysis skipped", "error", err)
				ranking = nil
			}

			var elapsed time.Duration
			if last := history[len(history)-1]; last.Elapsed > 0 {
				elapsed = last.Elapsed
			}
			rep := report.Build(history.Best(), history, ranking, "rebuilt", elapsed)

			if xlsxPath != "" {
				if err := writeXLSX(xlsxPath, rep, history); err != nil {
					return err
				}
			}
			return writeReport(outPath, rep)
		},
	}

	cmd.Flags().StringVarP(&historyPath, "file", "f", "", "trial history file (JSON)")
	cmd.Flags().StringVar(&jobPath, "job", "", "job file the history was produced from (YAML)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "report output path (default stdout)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also export the report as XLSX")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("job")
	return cmd
}

func loadHistory(path string) (optimizer.History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	var history optimizer.History
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}
	return history, nil
}
