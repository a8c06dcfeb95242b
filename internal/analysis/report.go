package analysis

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"tmdbcli/pkg/contracts/domain"
)

// Options configures the report queries
type Options struct {
	TopN      int
	FrequentN int
}

// DefaultOptions returns the report sizes used by the insights run
func DefaultOptions() Options {
	return Options{TopN: 10, FrequentN: 15}
}

// Report collects the results of every query over one movie table
type Report struct {
	Movies            int            `json:"movies"`
	GenreDistribution []LabeledCount `json:"genre_distribution"`
	RevenueProfit     []Point        `json:"revenue_profit"`
	BudgetRevenue     []Point        `json:"budget_revenue"`
	YearlyRevenue     []YearMean     `json:"yearly_revenue"`
	YearlyRuntime     []YearMean     `json:"yearly_runtime"`
	TopPopularity     []Ranked       `json:"top_popularity"`
	TopProfit         []Ranked       `json:"top_profit"`
	TopCast           []LabeledCount `json:"top_cast"`
	TopDirectors      []LabeledCount `json:"top_directors"`
	TopCompanies      []LabeledCount `json:"top_production_companies"`
	Summary           []Summary      `json:"summary"`
}

// Run executes every query. Queries are independent of each other.
func Run(records []domain.MovieRecord, opts Options) (Report, error) {
	if opts.TopN <= 0 {
		opts.TopN = DefaultOptions().TopN
	}
	if opts.FrequentN <= 0 {
		opts.FrequentN = DefaultOptions().FrequentN
	}

	report := Report{
		Movies:            len(records),
		GenreDistribution: GenreDistribution(records),
		Summary:           Describe(records),
	}

	var err error
	if report.RevenueProfit, err = Pairs(records, domain.ColumnRevenue, domain.ColumnProfit); err != nil {
		return Report{}, err
	}
	if report.BudgetRevenue, err = Pairs(records, domain.ColumnBudget, domain.ColumnRevenue); err != nil {
		return Report{}, err
	}
	if report.YearlyRevenue, err = YearlyMean(records, domain.ColumnRevenue); err != nil {
		return Report{}, err
	}
	if report.YearlyRuntime, err = YearlyMean(records, domain.ColumnRuntime); err != nil {
		return Report{}, err
	}
	if report.TopPopularity, err = TopN(records, domain.ColumnPopularity, opts.TopN); err != nil {
		return Report{}, err
	}
	if report.TopProfit, err = TopN(records, domain.ColumnProfit, opts.TopN); err != nil {
		return Report{}, err
	}
	if report.TopCast, err = MostFrequent(records, domain.ColumnCast, opts.FrequentN); err != nil {
		return Report{}, err
	}
	if report.TopDirectors, err = MostFrequent(records, domain.ColumnDirector, opts.FrequentN); err != nil {
		return Report{}, err
	}
	if report.TopCompanies, err = MostFrequent(records, domain.ColumnProductionCompanies, opts.FrequentN); err != nil {
		return Report{}, err
	}

	return report, nil
}

// Print renders the printed tables of a report. Point sets are only counted;
// they are plotted in the workbook.
func Print(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Movies analyzed: %d\n", r.Movies)
	fmt.Fprintf(tw, "Revenue/profit pairs: %d\tBudget/revenue pairs: %d\n", len(r.RevenueProfit), len(r.BudgetRevenue))

	printCounts(tw, "Genre distribution", "genre", r.GenreDistribution)
	printYearly(tw, "Mean revenue by year", r.YearlyRevenue)
	printYearly(tw, "Mean runtime by year", r.YearlyRuntime)
	printRanked(tw, "Top movies by popularity", "popularity", r.TopPopularity)
	printRanked(tw, "Top movies by profit", "profit", r.TopProfit)
	printCounts(tw, "Most frequent cast", "cast", r.TopCast)
	printCounts(tw, "Most frequent directors", "director", r.TopDirectors)
	printCounts(tw, "Most frequent production companies", "production_company", r.TopCompanies)

	if len(r.Summary) > 0 {
		fmt.Fprintf(tw, "\nSummary statistics\n")
		fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax")
		for _, s := range r.Summary {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Column, s.Count, num(s.Mean), num(s.Std), num(s.Min),
				num(s.Q25), num(s.Q50), num(s.Q75), num(s.Max))
		}
	}

	return tw.Flush()
}

func printCounts(w io.Writer, title, label string, counts []LabeledCount) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(counts) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	fmt.Fprintf(w, "%s\tcount\tshare\n", label)
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", c.Label, c.Count, c.Proportion*100)
	}
}

func printYearly(w io.Writer, title string, means []YearMean) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(means) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	fmt.Fprintln(w, "year\tmean\tmovies")
	for _, m := range means {
		fmt.Fprintf(w, "%d\t%s\t%d\n", m.Year, num(m.Mean), m.Count)
	}
}

func printRanked(w io.Writer, title, label string, ranked []Ranked) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(ranked) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	fmt.Fprintf(w, "rank\ttitle\tproduction_company\t%s\n", label)
	for _, r := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.Rank, r.Title, r.ProductionCompany, num(r.Value))
	}
}

func num(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
