package filter

import (
	"strings"

	"doctables/models"

	"golang.org/x/text/unicode/norm"
)

// Normalizer cleans scraped rows and drops the ones a table cannot use
type Normalizer struct {
	prefix          string
	trimValuePrefix string
	valid           func(models.Row) bool
}

// NewNormalizer creates a Normalizer for the rows of one source.
// valid may be nil; it runs after cleaning.
func NewNormalizer(src models.Source, valid func(models.Row) bool) *Normalizer {
	return &Normalizer{
		prefix:          src.Prefix,
		trimValuePrefix: src.TrimValuePrefix,
		valid:           valid,
	}
}

// Apply normalizes rows, keeping their order
func (n *Normalizer) Apply(rows []models.Row) []models.Row {
	var kept []models.Row
	for _, row := range rows {
		if r, ok := n.Normalize(row); ok {
			kept = append(kept, r)
		}
	}
	return kept
}

// Normalize cleans a single row. The second result is false when the row
// must be dropped.
func (n *Normalizer) Normalize(row models.Row) (models.Row, bool) {
	name := clean(row.Name)
	value := clean(firstLine(row.Value))
	if n.trimValuePrefix != "" {
		value = strings.TrimSpace(strings.TrimPrefix(value, n.trimValuePrefix))
	}

	if name == "" || value == "" {
		return models.Row{}, false
	}

	// Shared lists also link unrelated identifiers
	if n.prefix != "" && !strings.HasPrefix(name, n.prefix) {
		return models.Row{}, false
	}

	r := models.Row{Name: name, Value: value}
	if n.valid != nil && !n.valid(r) {
		return models.Row{}, false
	}
	return r, true
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// firstLine keeps the text before the first line break of s, ignoring
// leading blank lines
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
