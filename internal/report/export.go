package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/balancelab/balance-core/internal/optimizer"
)

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteXLSX writes the report as a workbook with a summary sheet, a
// per-trial sheet, and a sensitivity sheet. The history supplies the
// trial rows; pass the history the report was built from.
func (r *Report) WriteXLSX(w io.Writer, history optimizer.History) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("xlsx summary sheet: %w", err)
	}
	if err := r.writeSummarySheet(f); err != nil {
		return err
	}
	if err := r.writeTrialsSheet(f, history); err != nil {
		return err
	}
	if err := r.writeSensitivitySheet(f); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func (r *Report) writeSummarySheet(f *excelize.File) error {
	rows := [][]interface{}{
		{"Status", r.Status},
		{"Best score", r.BestScore},
		{"Iterations run", r.IterationsRun},
		{"Elapsed (ms)", r.ElapsedMs},
		{"Generated at", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
	}
	for _, name := range sortedParamNames(r.BestParams) {
		rows = append(rows, []interface{}{"best." + name, r.BestParams[name]})
	}
	rows = append(rows, []interface{}{"", ""})
	rows = append(rows, []interface{}{"Score bucket", "Count"})
	for _, b := range r.ScoreHistogram {
		rows = append(rows, []interface{}{fmt.Sprintf("[%.0f, %.0f)", b.Lo, b.Hi), b.Count})
	}
	return writeRows(f, "Summary", rows)
}

func (r *Report) writeTrialsSheet(f *excelize.File, history optimizer.History) error {
	if _, err := f.NewSheet("Trials"); err != nil {
		return fmt.Errorf("xlsx trials sheet: %w", err)
	}

	var names []string
	if len(history) > 0 {
		names = sortedParamNames(history[0].Params)
	}

	header := []interface{}{"Trial", "Iteration", "Score", "Failed"}
	for _, name := range names {
		header = append(header, name)
	}
	rows := [][]interface{}{header}
	for _, tr := range history {
		row := []interface{}{tr.Trial, tr.Iteration, tr.Score, tr.Failed}
		for _, name := range names {
			row = append(row, tr.Params[name])
		}
		rows = append(rows, row)
	}
	return writeRows(f, "Trials", rows)
}

func (r *Report) writeSensitivitySheet(f *excelize.File) error {
	if _, err := f.NewSheet("Sensitivity"); err != nil {
		return fmt.Errorf("xlsx sensitivity sheet: %w", err)
	}
	rows := [][]interface{}{{"Parameter", "Influence"}}
	for _, im := range r.SensitivityRanking {
		rows = append(rows, []interface{}{im.Name, im.Influence})
	}
	return writeRows(f, "Sensitivity", rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("xlsx cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx cell %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func sortedParamNames(p map[string]float64) []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
