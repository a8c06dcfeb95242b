package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"tmdbcli/internal/analysis"
)

// Workbook sheet names
const (
	SheetGenres        = "Genres"
	SheetRevenueProfit = "Revenue vs Profit"
	SheetBudgetRevenue = "Budget vs Revenue"
	SheetYearlyRevenue = "Yearly Revenue"
	SheetYearlyRuntime = "Yearly Runtime"
	SheetTopPopularity = "Top Popularity"
	SheetTopProfit     = "Top Profit"
	SheetTopCast       = "Top Cast"
	SheetTopDirectors  = "Top Directors"
	SheetTopCompanies  = "Top Companies"
	SheetSummary       = "Summary"
)

// WorkbookWriter renders an analysis report as an Excel workbook with
// one sheet per query and native charts for the plotted queries
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// Write builds the workbook and writes it to path
func (w *WorkbookWriter) Write(path string, report analysis.Report) error {
	f, err := w.Build(report)
	if err != nil {
		return err
	}
	defer f.Close()

	w.logger.Info("Writing report workbook",
		slog.String("path", path),
		slog.Int("sheets", len(f.GetSheetList())))

	return writeFile(path, func(out io.Writer) error {
		return f.Write(out)
	})
}

// Build assembles the workbook in memory
func (w *WorkbookWriter) Build(report analysis.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetGenres); err != nil {
		f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, analysis.Report) error{
		writeGenres,
		func(f *excelize.File, r analysis.Report) error {
			return writePoints(f, SheetRevenueProfit, "revenue", "profit", r.RevenueProfit)
		},
		func(f *excelize.File, r analysis.Report) error {
			return writePoints(f, SheetBudgetRevenue, "budget", "revenue", r.BudgetRevenue)
		},
		func(f *excelize.File, r analysis.Report) error {
			return writeYearly(f, SheetYearlyRevenue, "mean_revenue", r.YearlyRevenue)
		},
		func(f *excelize.File, r analysis.Report) error {
			return writeYearly(f, SheetYearlyRuntime, "mean_runtime", r.YearlyRuntime)
		},
		func(f *excelize.File, r analysis.Report) error {
			return writeRanked(f, SheetTopPopularity, "popularity", r.TopPopularity)
		},
		func(f *excelize.File, r analysis.Report) error {
			return writeRanked(f, SheetTopProfit, "profit", r.TopProfit)
		},
		func(f *excelize.File, r analysis.Report) error {
			return writeCounts(f, SheetTopCast, "cast", r.TopCast)
		},
		func(f *excelize.File, r analysis.Report) error {
			return writeCounts(f, SheetTopDirectors, "director", r.TopDirectors)
		},
		func(f *excelize.File, r analysis.Report) error {
			return writeCounts(f, SheetTopCompanies, "production_company", r.TopCompanies)
		},
		writeSummary,
	}

	for _, step := range steps {
		if err := step(f, report); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeGenres(f *excelize.File, r analysis.Report) error {
	if err := writeCounts(f, SheetGenres, "genre", r.GenreDistribution); err != nil {
		return err
	}
	return addChart(f, SheetGenres, "E2", excelize.Pie, "Genre distribution", "A", "B", len(r.GenreDistribution))
}

func writePoints(f *excelize.File, sheet, x, y string, points []analysis.Point) error {
	rows := make([][]interface{}, len(points))
	for i, p := range points {
		rows[i] = []interface{}{p.Title, p.X, p.Y}
	}
	if err := writeSheet(f, sheet, []interface{}{"title", x, y}, rows); err != nil {
		return err
	}
	return addChart(f, sheet, "E2", excelize.Scatter, sheet, "B", "C", len(points))
}

func writeYearly(f *excelize.File, sheet, label string, means []analysis.YearMean) error {
	rows := make([][]interface{}, len(means))
	for i, m := range means {
		rows[i] = []interface{}{m.Year, m.Mean, m.Count}
	}
	if err := writeSheet(f, sheet, []interface{}{"release_year", label, "movies"}, rows); err != nil {
		return err
	}
	return addChart(f, sheet, "E2", excelize.Line, sheet, "A", "B", len(means))
}

func writeRanked(f *excelize.File, sheet, label string, ranked []analysis.Ranked) error {
	rows := make([][]interface{}, len(ranked))
	for i, r := range ranked {
		rows[i] = []interface{}{r.Rank, r.ID, r.Title, r.ProductionCompany, r.Value}
	}
	return writeSheet(f, sheet, []interface{}{"rank", "id", "title", "production_company", label}, rows)
}

func writeCounts(f *excelize.File, sheet, label string, counts []analysis.LabeledCount) error {
	rows := make([][]interface{}, len(counts))
	for i, c := range counts {
		rows[i] = []interface{}{c.Label, c.Count, c.Proportion}
	}
	return writeSheet(f, sheet, []interface{}{label, "count", "proportion"}, rows)
}

func writeSummary(f *excelize.File, r analysis.Report) error {
	rows := make([][]interface{}, len(r.Summary))
	for i, s := range r.Summary {
		rows[i] = []interface{}{s.Column, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
	}
	header := []interface{}{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	return writeSheet(f, SheetSummary, header, rows)
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil {
		return err
	} else if idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// addChart plots the data rows of two columns; empty sheets get no chart
func addChart(f *excelize.File, sheet, cell string, kind excelize.ChartType, title, catCol, valCol string, n int) error {
	if n == 0 {
		return nil
	}
	return f.AddChart(sheet, cell, &excelize.Chart{
		Type: kind,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$%s$1", sheet, valCol),
			Categories: columnRange(sheet, catCol, n),
			Values:     columnRange(sheet, valCol, n),
		}},
		Title: []excelize.RichTextRun{{Text: title}},
	})
}

func columnRange(sheet, col string, n int) string {
	return fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, col, col, n+1)
}
