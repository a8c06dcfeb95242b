// Package exporter writes pipeline results to disk.
//
// CSVWriter persists the transformed movie table as comma-delimited text,
// optionally prefixed with a UTF-8 BOM for Excel. WorkbookWriter renders an
// analysis report as an .xlsx workbook with one sheet per query and native
// charts for the genre distribution, the scatter relations and the yearly
// means. WriteReportJSON writes the same report as JSON.
//
// Every writer goes through a temporary file in the target directory that is
// renamed into place, so a failed write leaves no partial output behind.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(true, logger)
//	if err := writer.WriteTable("out/tmdb-movies-clean.csv", transformed); err != nil {
//		return err
//	}
//
//	err = exporter.NewWorkbookWriter(logger).Write("out/insights.xlsx", report)
package exporter
