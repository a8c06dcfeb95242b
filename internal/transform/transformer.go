package transform

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tmdbcli/internal/dataset"
	apperrors "tmdbcli/internal/errors"
	"tmdbcli/pkg/contracts/domain"
)

// MoneyMode selects how budget, revenue and profit survive the
// thousands-separator round trip
type MoneyMode string

const (
	// MoneyModeMagnitude drops grouping separators before reading the digit
	// run back: magnitudes survive, a negative sign does not
	MoneyModeMagnitude MoneyMode = "magnitude"
	// MoneyModeLeadingGroup reads only the first digit run of the formatted
	// text, so "1,500,000" comes back as 1 and "-250" as 250
	MoneyModeLeadingGroup MoneyMode = "leading-group"
	// MoneyModeSigned skips the round trip and keeps the exact signed value
	MoneyModeSigned MoneyMode = "signed"
)

// ParseMoneyMode validates a configured money mode
func ParseMoneyMode(s string) (MoneyMode, error) {
	switch MoneyMode(strings.ToLower(strings.TrimSpace(s))) {
	case MoneyModeMagnitude, "":
		return MoneyModeMagnitude, nil
	case MoneyModeLeadingGroup:
		return MoneyModeLeadingGroup, nil
	case MoneyModeSigned:
		return MoneyModeSigned, nil
	}
	return "", apperrors.NewConfigError(fmt.Sprintf("unknown money mode %q", s), nil)
}

// Options configures a transform pass
type Options struct {
	MoneyMode MoneyMode
}

// DefaultOptions returns the default transform options
func DefaultOptions() Options {
	return Options{MoneyMode: MoneyModeMagnitude}
}

var (
	thousands = message.NewPrinter(language.English)
	digitRun  = regexp.MustCompile(`\d+`)
)

// Transformer turns a cleaned table into the fourteen-column movie table
type Transformer struct {
	opts   Options
	logger *slog.Logger
}

// NewTransformer creates a transformer
func NewTransformer(opts Options, logger *slog.Logger) *Transformer {
	if opts.MoneyMode == "" {
		opts.MoneyMode = MoneyModeMagnitude
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{opts: opts, logger: logger}
}

// Transform splits multi-value fields, derives profit, projects onto
// domain.MovieColumns and normalizes the money columns. The input is not modified.
func (t *Transformer) Transform(cleaned dataset.Table) (dataset.Table, error) {
	out := cleaned
	var err error

	for _, col := range domain.MultiValueColumns {
		if out, err = SplitFirst(out, col); err != nil {
			return dataset.Table{}, err
		}
	}

	if out, err = DeriveProfit(out); err != nil {
		return dataset.Table{}, err
	}

	if out, err = Project(out); err != nil {
		return dataset.Table{}, err
	}

	negative := countNegative(out, domain.ColumnProfit)

	for _, col := range domain.MoneyColumns {
		if out, err = NormalizeMoney(out, col, t.opts.MoneyMode); err != nil {
			return dataset.Table{}, err
		}
	}

	t.logger.Info("Transformed movie table",
		slog.Int("rows", out.Len()),
		slog.Int("columns", out.Width()),
		slog.String("money_mode", string(t.opts.MoneyMode)),
		slog.Int("negative_profits", negative))

	if negative > 0 && t.opts.MoneyMode != MoneyModeSigned {
		t.logger.Warn("Negative profits lose their sign in money normalization",
			slog.Int("rows", negative),
			slog.String("money_mode", string(t.opts.MoneyMode)))
	}

	return out, nil
}

// FirstName returns the first element of a pipe-delimited list
func FirstName(value string) string {
	first, _, _ := strings.Cut(value, domain.MultiValueSeparator)
	return first
}

// SplitFirst replaces each cell of a multi-value column with its first element
func SplitFirst(table dataset.Table, column string) (dataset.Table, error) {
	return table.MapColumn(column, func(c dataset.Cell) (dataset.Cell, error) {
		if c.Null {
			return c, nil
		}
		return dataset.Text(FirstName(c.Value)), nil
	})
}

// DeriveProfit adds profit = revenue - budget; negative results are kept
func DeriveProfit(table dataset.Table) (dataset.Table, error) {
	budgetIdx, err := table.ColumnIndex(domain.ColumnBudget)
	if err != nil {
		return dataset.Table{}, err
	}
	revenueIdx, err := table.ColumnIndex(domain.ColumnRevenue)
	if err != nil {
		return dataset.Table{}, err
	}

	return table.WithColumn(domain.ColumnProfit, func(_ int, row dataset.Row) (dataset.Cell, error) {
		budget, err := parseInt(row[budgetIdx], domain.ColumnBudget)
		if err != nil {
			return dataset.Cell{}, err
		}
		revenue, err := parseInt(row[revenueIdx], domain.ColumnRevenue)
		if err != nil {
			return dataset.Cell{}, err
		}
		return dataset.Text(strconv.FormatInt(revenue-budget, 10)), nil
	})
}

// Project selects and orders exactly domain.MovieColumns
func Project(table dataset.Table) (dataset.Table, error) {
	return table.Select(domain.MovieColumns...)
}

// FormatThousands renders an integer with English thousands separators
func FormatThousands(v int64) string {
	return thousands.Sprintf("%d", v)
}

// RoundTripMoney formats v with thousands separators and reads it back
// according to mode
func RoundTripMoney(v int64, mode MoneyMode) (int64, error) {
	if mode == MoneyModeSigned {
		return v, nil
	}

	formatted := FormatThousands(v)
	if mode == MoneyModeMagnitude {
		formatted = stripGrouping(formatted)
	}

	run := digitRun.FindString(formatted)
	if run == "" {
		return 0, fmt.Errorf("no digits in %q", formatted)
	}
	return strconv.ParseInt(run, 10, 64)
}

// NormalizeMoney applies RoundTripMoney to every cell of a column
func NormalizeMoney(table dataset.Table, column string, mode MoneyMode) (dataset.Table, error) {
	return table.MapColumn(column, func(c dataset.Cell) (dataset.Cell, error) {
		v, err := parseInt(c, column)
		if err != nil {
			return dataset.Cell{}, err
		}
		n, err := RoundTripMoney(v, mode)
		if err != nil {
			return dataset.Cell{}, apperrors.NewSchemaError(column, err.Error())
		}
		return dataset.Text(strconv.FormatInt(n, 10)), nil
	})
}

func stripGrouping(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
}

// parseInt reads an integer cell. Integral float text such as "1500.0" is accepted.
func parseInt(c dataset.Cell, column string) (int64, error) {
	if c.Null {
		return 0, apperrors.NewSchemaError(column, "missing value")
	}
	s := strings.TrimSpace(c.Value)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, apperrors.NewSchemaError(column, fmt.Sprintf("value %q is not an integer", c.Value))
	}
	return int64(f), nil
}

func countNegative(table dataset.Table, column string) int {
	values, err := table.Values(column)
	if err != nil {
		return 0
	}
	n := 0
	for _, v := range values {
		if strings.HasPrefix(v, "-") {
			n++
		}
	}
	return n
}
