package fetcher

import "errors"

// ErrFetchFailure is returned when a page does not answer with a success status
var ErrFetchFailure = errors.New("fetch failed")

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch retrieves the page at url and returns its body decoded as UTF-8
	Fetch(url string) (string, error)
}
