package domain

import (
	"strconv"
)

// Column names of the TMDB movie dataset
const (
	ColumnID                  = "id"
	ColumnOriginalTitle       = "original_title"
	ColumnCast                = "cast"
	ColumnProductionCompanies = "production_companies"
	ColumnDirector            = "director"
	ColumnGenres              = "genres"
	ColumnPopularity          = "popularity"
	ColumnRuntime             = "runtime"
	ColumnVoteCount           = "vote_count"
	ColumnVoteAverage         = "vote_average"
	ColumnReleaseYear         = "release_year"
	ColumnBudget              = "budget"
	ColumnRevenue             = "revenue"
	ColumnProfit              = "profit"

	ColumnIMDBID      = "imdb_id"
	ColumnHomepage    = "homepage"
	ColumnTagline     = "tagline"
	ColumnOverview    = "overview"
	ColumnReleaseDate = "release_date"
	ColumnBudgetAdj   = "budget_adj"
	ColumnRevenueAdj  = "revenue_adj"
	ColumnKeywords    = "keywords"
)

// MovieColumns is the column order of a cleaned movie table and of the exported file
var MovieColumns = []string{
	ColumnID,
	ColumnOriginalTitle,
	ColumnCast,
	ColumnProductionCompanies,
	ColumnDirector,
	ColumnGenres,
	ColumnPopularity,
	ColumnRuntime,
	ColumnVoteCount,
	ColumnVoteAverage,
	ColumnReleaseYear,
	ColumnBudget,
	ColumnRevenue,
	ColumnProfit,
}

// DroppedColumns are removed by the cleaner before any row is inspected
var DroppedColumns = []string{
	ColumnIMDBID,
	ColumnHomepage,
	ColumnTagline,
	ColumnOverview,
	ColumnReleaseDate,
	ColumnBudgetAdj,
	ColumnRevenueAdj,
	ColumnKeywords,
}

// MultiValueColumns hold pipe-delimited name lists in the source file
var MultiValueColumns = []string{
	ColumnGenres,
	ColumnProductionCompanies,
	ColumnCast,
}

// MoneyColumns are normalized through the thousands-separator round trip
var MoneyColumns = []string{
	ColumnBudget,
	ColumnRevenue,
	ColumnProfit,
}

// MultiValueSeparator separates names inside a multi-value cell
const MultiValueSeparator = "|"

// MovieRecord represents one cleaned and transformed movie row
type MovieRecord struct {
	ID                  int64   `json:"id" csv:"id" validate:"required"`
	OriginalTitle       string  `json:"original_title" csv:"original_title"`
	Cast                string  `json:"cast" csv:"cast"`
	ProductionCompanies string  `json:"production_companies" csv:"production_companies"`
	Director            string  `json:"director" csv:"director"`
	Genres              string  `json:"genres" csv:"genres"`
	Popularity          float64 `json:"popularity" csv:"popularity" validate:"min=0"`
	Runtime             int64   `json:"runtime" csv:"runtime" validate:"min=0"`
	VoteCount           int64   `json:"vote_count" csv:"vote_count" validate:"min=0"`
	VoteAverage         float64 `json:"vote_average" csv:"vote_average" validate:"min=0,max=10"`
	ReleaseYear         int     `json:"release_year" csv:"release_year"`
	Budget              int64   `json:"budget" csv:"budget" validate:"min=0"`
	Revenue             int64   `json:"revenue" csv:"revenue" validate:"min=0"`
	Profit              int64   `json:"profit" csv:"profit"`
}

// Row renders the record in MovieColumns order
func (m MovieRecord) Row() []string {
	return []string{
		strconv.FormatInt(m.ID, 10),
		m.OriginalTitle,
		m.Cast,
		m.ProductionCompanies,
		m.Director,
		m.Genres,
		strconv.FormatFloat(m.Popularity, 'f', -1, 64),
		strconv.FormatInt(m.Runtime, 10),
		strconv.FormatInt(m.VoteCount, 10),
		strconv.FormatFloat(m.VoteAverage, 'f', -1, 64),
		strconv.Itoa(m.ReleaseYear),
		strconv.FormatInt(m.Budget, 10),
		strconv.FormatInt(m.Revenue, 10),
		strconv.FormatInt(m.Profit, 10),
	}
}

// Text returns the value of a text column, or "" for numeric and unknown columns
func (m MovieRecord) Text(column string) string {
	switch column {
	case ColumnOriginalTitle:
		return m.OriginalTitle
	case ColumnCast:
		return m.Cast
	case ColumnProductionCompanies:
		return m.ProductionCompanies
	case ColumnDirector:
		return m.Director
	case ColumnGenres:
		return m.Genres
	}
	return ""
}

// Number returns the value of a numeric column as float64
func (m MovieRecord) Number(column string) (float64, bool) {
	switch column {
	case ColumnID:
		return float64(m.ID), true
	case ColumnPopularity:
		return m.Popularity, true
	case ColumnRuntime:
		return float64(m.Runtime), true
	case ColumnVoteCount:
		return float64(m.VoteCount), true
	case ColumnVoteAverage:
		return m.VoteAverage, true
	case ColumnReleaseYear:
		return float64(m.ReleaseYear), true
	case ColumnBudget:
		return float64(m.Budget), true
	case ColumnRevenue:
		return float64(m.Revenue), true
	case ColumnProfit:
		return float64(m.Profit), true
	}
	return 0, false
}

// NumericColumns lists the MovieColumns that hold numbers
var NumericColumns = []string{
	ColumnID,
	ColumnPopularity,
	ColumnRuntime,
	ColumnVoteCount,
	ColumnVoteAverage,
	ColumnReleaseYear,
	ColumnBudget,
	ColumnRevenue,
	ColumnProfit,
}
