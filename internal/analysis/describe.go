package analysis

import (
	"math"
	"sort"

	"tmdbcli/pkg/contracts/domain"
)

// Summary holds descriptive statistics of one numeric column.
// Std is the sample standard deviation and is 0 when fewer than two values exist.
type Summary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"p25"`
	Q50    float64 `json:"p50"`
	Q75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// Describe summarizes every numeric movie column. Empty input yields no summaries.
func Describe(records []domain.MovieRecord) []Summary {
	if len(records) == 0 {
		return nil
	}

	summaries := make([]Summary, 0, len(domain.NumericColumns))
	for _, column := range domain.NumericColumns {
		values := make([]float64, len(records))
		for i, r := range records {
			values[i], _ = r.Number(column)
		}
		summaries = append(summaries, summarize(column, values))
	}
	return summaries
}

func summarize(column string, values []float64) Summary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	return Summary{
		Column: column,
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q25:    quantile(sorted, 0.25),
		Q50:    quantile(sorted, 0.50),
		Q75:    quantile(sorted, 0.75),
		Max:    sorted[n-1],
	}
}

// quantile interpolates linearly between the closest ranks of a sorted slice
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
