// Package urlrange expands reference pages that are split by code ranges,
// such as "system-error-codes--500-999-", into one URL per page.
package urlrange

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minPlaceholder = "{min}"
	maxPlaceholder = "{max}"
)

// RangeURL is one page of a split reference
type RangeURL struct {
	URL   string
	Label string // codes covered, e.g. "500-999"
}

// Generate fills pattern's {min} and {max} placeholders for each pair of
// consecutive bounds. Each bound is the first code of a page; the last bound
// is one past the final code.
func Generate(pattern string, bounds []int) ([]RangeURL, error) {
	if !strings.Contains(pattern, minPlaceholder) || !strings.Contains(pattern, maxPlaceholder) {
		return nil, fmt.Errorf("pattern %q must contain %s and %s", pattern, minPlaceholder, maxPlaceholder)
	}
	if len(bounds) < 2 {
		return nil, fmt.Errorf("need at least two bounds, got %d", len(bounds))
	}

	ranges := make([]RangeURL, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		rangeMin, rangeMax := bounds[i], bounds[i+1]-1
		if rangeMax < rangeMin {
			return nil, fmt.Errorf("bounds must increase: %d then %d", bounds[i], bounds[i+1])
		}

		u := strings.NewReplacer(
			minPlaceholder, strconv.Itoa(rangeMin),
			maxPlaceholder, strconv.Itoa(rangeMax),
		).Replace(pattern)

		ranges = append(ranges, RangeURL{
			URL:   u,
			Label: fmt.Sprintf("%d-%d", rangeMin, rangeMax),
		})
	}

	return ranges, nil
}

