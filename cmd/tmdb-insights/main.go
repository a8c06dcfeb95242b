package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tmdbcli/internal/analysis"
	"tmdbcli/internal/config"
	apperrors "tmdbcli/internal/errors"
	"tmdbcli/internal/infrastructure"
	"tmdbcli/internal/operations"
	"tmdbcli/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// options holds the command line flags. Empty values keep the configured setting.
type options struct {
	configPath string
	input      string
	sheet      string
	output     string
	report     string
	json       string
	moneyMode  string
	version    bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("tmdb-insights", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file (defaults to tmdb.yaml or configs/tmdb.yaml when present)")
	fs.StringVar(&opts.input, "input", "", "source movie export (.csv or .xlsx)")
	fs.StringVar(&opts.sheet, "sheet", "", "worksheet to read when -input is an .xlsx file")
	fs.StringVar(&opts.output, "output", "", "cleaned CSV output path")
	fs.StringVar(&opts.report, "report", "", "optional .xlsx report path")
	fs.StringVar(&opts.json, "json", "", "optional JSON report path")
	fs.StringVar(&opts.moneyMode, "money-mode", "", "money normalization: magnitude | leading-group | signed")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// apply overrides the pipeline configuration with the flags that were set
// and returns the config fields they touched
func (o options) apply(cfg *config.Config) map[string]bool {
	overridden := make(map[string]bool)
	set := func(field string, dst *string, v string) {
		if v != "" {
			*dst = v
			overridden[field] = true
		}
	}
	set("pipeline.input_path", &cfg.Pipeline.InputPath, o.input)
	set("pipeline.sheet", &cfg.Pipeline.Sheet, o.sheet)
	set("pipeline.output_path", &cfg.Pipeline.OutputPath, o.output)
	set("pipeline.report_path", &cfg.Pipeline.ReportPath, o.report)
	set("pipeline.json_path", &cfg.Pipeline.JSONPath, o.json)
	set("pipeline.money_mode", &cfg.Pipeline.MoneyMode, o.moneyMode)
	return overridden
}

// rejectsFlag reports whether a validation error names a field set on the command line
func rejectsFlag(err error, overridden map[string]bool) bool {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return false
	}
	fields, _ := appErr.Context["fields"].([]string)
	for _, f := range fields {
		name, _, _ := strings.Cut(f, " ")
		if overridden[name] {
			return true
		}
	}
	return false
}

// run executes the pipeline and returns the process exit code
func run(ctx context.Context, args []string, stdout io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		slog.Error("Invalid arguments", slog.String("error", err.Error()))
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		return 1
	}
	overridden := opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		if rejectsFlag(err, overridden) {
			slog.Error("Invalid arguments", slog.String("error", err.Error()))
			return 2
		}
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Starting TMDB insights run",
		slog.String("input", cfg.Pipeline.InputPath),
		slog.String("output", cfg.Pipeline.OutputPath),
		slog.String("report", cfg.Pipeline.ReportPath),
		slog.String("json", cfg.Pipeline.JSONPath),
		slog.String("money_mode", cfg.Pipeline.MoneyMode))

	registry, err := operations.NewPipelineRegistry(cfg.Pipeline, logger)
	if err != nil {
		logger.Error("Failed to build pipeline", slog.String("error", err.Error()))
		return 1
	}

	manager := operations.NewManager(registry, telemetry, nil, logger)
	resp, err := manager.Execute(ctx, operations.OperationRequest{})
	if err != nil {
		logFailure(logger, resp, err)
		return 1
	}

	if resp.Report != nil {
		if err := analysis.Print(stdout, *resp.Report); err != nil {
			logger.Error("Failed to print report", slog.String("error", err.Error()))
			return 1
		}
	}

	logger.Info("TMDB insights run complete",
		slog.String("run_id", resp.ID),
		slog.Duration("duration", resp.Duration),
		slog.Int("rows_out", resp.Cleaning.RowsOut),
		slog.Int("issues", resp.Issues),
		slog.Any("files", resp.Files))
	return 0
}

// logFailure writes one structured record naming the failed step and the
// error context
func logFailure(logger *slog.Logger, resp *operations.OperationResponse, err error) {
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("failed_step", operations.FailedStep(err)),
	}
	if resp != nil {
		attrs = append(attrs, slog.String("run_id", resp.ID), slog.String("status", string(resp.Status)))
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		attrs = append(attrs, slog.String("error_type", string(appErr.Type)))
		for k, v := range appErr.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	logger.Error("TMDB insights run failed", attrs...)
}
