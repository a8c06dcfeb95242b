package exporter

import (
	"encoding/json"
	"io"
	"log/slog"

	"tmdbcli/internal/analysis"
)

// WriteReportJSON writes the analysis report as indented JSON
func WriteReportJSON(path string, report analysis.Report) error {
	slog.Info("Writing report JSON",
		slog.String("path", path),
		slog.Int("movies", report.Movies))

	return writeFile(path, func(out io.Writer) error {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	})
}
