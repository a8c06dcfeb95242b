// Package shared holds helpers used by more than one package of the
// pipeline. It contains no pipeline logic of its own.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler for asserting on structured log output
//   - RawMovie fixtures that render a source TMDB export as CSV
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//		logger, handler := testutil.NewTestLogger(t)
//		path := testutil.WriteRawMovies(t, t.TempDir(), testutil.SampleMovies()...)
//		// run code with logger and path
//		assert.True(t, handler.ContainsMessage("Loaded movie table"))
//	}
package shared
