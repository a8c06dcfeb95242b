package analysis

import (
	"fmt"
	"sort"

	apperrors "tmdbcli/internal/errors"
	"tmdbcli/pkg/contracts/domain"
)

// LabeledCount is one entry of a value-count query
type LabeledCount struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// Point is one paired observation for a scatter plot
type Point struct {
	Title string  `json:"title"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// YearMean is the mean of a field over the movies released in one year
type YearMean struct {
	Year  int     `json:"year"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Ranked is one entry of a top-N query
type Ranked struct {
	Rank              int     `json:"rank"`
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	ProductionCompany string  `json:"production_company"`
	Value             float64 `json:"value"`
}

// GenreDistribution counts movies per genre
func GenreDistribution(records []domain.MovieRecord) []LabeledCount {
	counts, _ := valueCounts(records, domain.ColumnGenres)
	return counts
}

// MostFrequent returns the n most common values of a text column.
// Ties keep the order in which values were first encountered.
func MostFrequent(records []domain.MovieRecord, column string, n int) ([]LabeledCount, error) {
	counts, err := valueCounts(records, column)
	if err != nil {
		return nil, err
	}
	return head(counts, n), nil
}

// Pairs extracts (x, y) observations of two numeric columns in row order
func Pairs(records []domain.MovieRecord, x, y string) ([]Point, error) {
	if err := numericColumn(x); err != nil {
		return nil, err
	}
	if err := numericColumn(y); err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(records))
	for _, r := range records {
		xv, _ := r.Number(x)
		yv, _ := r.Number(y)
		points = append(points, Point{Title: r.OriginalTitle, X: xv, Y: yv})
	}
	return points, nil
}

// YearlyMean groups records by release year and averages column, years ascending
func YearlyMean(records []domain.MovieRecord, column string) ([]YearMean, error) {
	if err := numericColumn(column); err != nil {
		return nil, err
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range records {
		v, _ := r.Number(column)
		sums[r.ReleaseYear] += v
		counts[r.ReleaseYear]++
	}

	years := make([]int, 0, len(counts))
	for year := range counts {
		years = append(years, year)
	}
	sort.Ints(years)

	means := make([]YearMean, 0, len(years))
	for _, year := range years {
		means = append(means, YearMean{
			Year:  year,
			Mean:  sums[year] / float64(counts[year]),
			Count: counts[year],
		})
	}
	return means, nil
}

// TopN sorts records by a numeric column descending and returns the first n.
// Equal values keep their original row order.
func TopN(records []domain.MovieRecord, column string, n int) ([]Ranked, error) {
	if err := numericColumn(column); err != nil {
		return nil, err
	}

	ranked := make([]Ranked, 0, len(records))
	for _, r := range records {
		v, _ := r.Number(column)
		ranked = append(ranked, Ranked{
			ID:                r.ID,
			Title:             r.OriginalTitle,
			ProductionCompany: r.ProductionCompanies,
			Value:             v,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})

	ranked = head(ranked, n)
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

func valueCounts(records []domain.MovieRecord, column string) ([]LabeledCount, error) {
	if !isTextColumn(column) {
		return nil, apperrors.NewSchemaError(column, fmt.Sprintf("column %q is not a text column", column))
	}

	index := make(map[string]int)
	var counts []LabeledCount
	for _, r := range records {
		label := r.Text(column)
		i, seen := index[label]
		if !seen {
			i = len(counts)
			index[label] = i
			counts = append(counts, LabeledCount{Label: label})
		}
		counts[i].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	for i := range counts {
		counts[i].Proportion = float64(counts[i].Count) / float64(len(records))
	}
	return counts, nil
}

func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func numericColumn(column string) error {
	if _, ok := (domain.MovieRecord{}).Number(column); !ok {
		return apperrors.NewSchemaError(column, fmt.Sprintf("column %q is not numeric", column))
	}
	return nil
}

func isTextColumn(column string) bool {
	switch column {
	case domain.ColumnOriginalTitle, domain.ColumnCast, domain.ColumnProductionCompanies,
		domain.ColumnDirector, domain.ColumnGenres:
		return true
	}
	return false
}
