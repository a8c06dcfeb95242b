package testutil

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// RawHeader is the column layout of the source TMDB export
var RawHeader = []string{
	"id", "imdb_id", "popularity", "budget", "revenue", "original_title", "cast",
	"homepage", "director", "tagline", "keywords", "overview", "runtime", "genres",
	"production_companies", "release_date", "vote_count", "vote_average",
	"release_year", "budget_adj", "revenue_adj",
}

// RawMovie is one row of the source export. Empty strings are written as empty fields.
type RawMovie struct {
	ID                  int
	IMDBID              string
	Popularity          string
	Budget              string
	Revenue             string
	Title               string
	Cast                string
	Homepage            string
	Director            string
	Tagline             string
	Keywords            string
	Overview            string
	Runtime             string
	Genres              string
	ProductionCompanies string
	ReleaseDate         string
	VoteCount           string
	VoteAverage         string
	ReleaseYear         string
}

// Fields renders the movie in RawHeader order
func (m RawMovie) Fields() []string {
	return []string{
		strconv.Itoa(m.ID), m.IMDBID, m.Popularity, m.Budget, m.Revenue, m.Title, m.Cast,
		m.Homepage, m.Director, m.Tagline, m.Keywords, m.Overview, m.Runtime, m.Genres,
		m.ProductionCompanies, m.ReleaseDate, m.VoteCount, m.VoteAverage,
		m.ReleaseYear, m.Budget, m.Revenue,
	}
}

// NewRawMovie returns a fully populated movie row
func NewRawMovie(id int, title string) RawMovie {
	return RawMovie{
		ID:                  id,
		IMDBID:              "tt" + strconv.Itoa(1000000+id),
		Popularity:          "1.5",
		Budget:              "1000000",
		Revenue:             "3000000",
		Title:               title,
		Cast:                "Actor One|Actor Two",
		Homepage:            "http://example.com/" + strconv.Itoa(id),
		Director:            "Some Director",
		Tagline:             "A tagline",
		Keywords:            "keyword|other",
		Overview:            "An overview",
		Runtime:             "100",
		Genres:              "Drama|Comedy",
		ProductionCompanies: "Studio A|Studio B",
		ReleaseDate:         "6/9/15",
		VoteCount:           "100",
		VoteAverage:         "6.5",
		ReleaseYear:         "2015",
	}
}

// SampleMovies returns a small source export with one duplicate row and one
// row missing its cast
func SampleMovies() []RawMovie {
	jurassic := NewRawMovie(135397, "Jurassic World")
	jurassic.Popularity = "32.985763"
	jurassic.Budget = "150000000"
	jurassic.Revenue = "1513528810"
	jurassic.Cast = "Chris Pratt|Bryce Dallas Howard|Irrfan Khan"
	jurassic.Director = "Colin Trevorrow"
	jurassic.Genres = "Action|Adventure|Science Fiction|Thriller"
	jurassic.ProductionCompanies = "Universal Studios|Amblin Entertainment"
	jurassic.Runtime = "124"
	jurassic.VoteCount = "5562"

	madMax := NewRawMovie(76341, "Mad Max: Fury Road")
	madMax.Popularity = "28.419936"
	madMax.Budget = "150000000"
	madMax.Revenue = "378436354"
	madMax.Cast = "Tom Hardy|Charlize Theron"
	madMax.Director = "George Miller"
	madMax.Genres = "Action|Adventure"
	madMax.ProductionCompanies = "Village Roadshow Pictures|Kennedy Miller Productions"
	madMax.Runtime = "120"

	flop := NewRawMovie(42, "Expensive Flop")
	flop.Popularity = "0.5"
	flop.Budget = "2000000"
	flop.Revenue = "500000"
	flop.ReleaseYear = "2014"
	flop.Runtime = "90"
	flop.Genres = "Drama"

	noCast := NewRawMovie(7, "Missing Cast")
	noCast.Cast = ""

	return []RawMovie{jurassic, madMax, jurassic, flop, noCast}
}

// RawMoviesCSV renders movies as a source export with header
func RawMoviesCSV(movies ...RawMovie) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(RawHeader)
	for _, m := range movies {
		_ = w.Write(m.Fields())
	}
	w.Flush()
	return buf.Bytes()
}

// WriteRawMovies writes a source export into dir and returns its path
func WriteRawMovies(t *testing.T, dir string, movies ...RawMovie) string {
	t.Helper()

	path := filepath.Join(dir, "tmdb-movies.csv")
	if err := os.WriteFile(path, RawMoviesCSV(movies...), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
