// Package lookup folds normalized rows into an ordered table with unique keys.
package lookup

import (
	"fmt"
	"strconv"

	"doctables/models"
)

// Merge selects how rows sharing a key are combined
type Merge int

const (
	// FirstWins keys rows by name; later rows with a known name are ignored.
	FirstWins Merge = iota
	// LastWins keys rows by value, the constant several names may alias.
	// A later row replaces the display name of an earlier one in place.
	LastWins
)

// ParseMerge converts a config value into a Merge
func ParseMerge(s string) (Merge, error) {
	switch s {
	case "", "first":
		return FirstWins, nil
	case "last":
		return LastWins, nil
	}
	return 0, fmt.Errorf("unknown merge policy %q", s)
}

func (m Merge) String() string {
	if m == LastWins {
		return "last"
	}
	return "first"
}

// Entry is one line of a lookup table: Key maps to Value
type Entry struct {
	Key   string
	Value string
}

// Table is an insertion-ordered mapping with unique keys
type Table struct {
	entries []Entry
	index   map[string]int    // canonical key -> position
	labels  map[string]string // display name -> canonical key
}

// NewTable creates an empty Table
func NewTable() *Table {
	return &Table{
		index:  make(map[string]int),
		labels: make(map[string]string),
	}
}

// Fold builds a table from rows
func Fold(rows []models.Row, merge Merge) *Table {
	t := NewTable()
	t.Add(rows, merge)
	return t
}

// Add folds more rows into t. Sources feeding the same table are added in
// traversal order.
func (t *Table) Add(rows []models.Row, merge Merge) {
	for _, row := range rows {
		switch merge {
		case LastWins:
			t.putLast(row)
		default:
			t.putFirst(row.Name, row.Value)
		}
	}
}

func (t *Table) putFirst(key, value string) {
	ck := Canonical(key)
	if _, ok := t.index[ck]; ok {
		return
	}
	t.insert(ck, Entry{Key: key, Value: value})
}

func (t *Table) putLast(row models.Row) {
	// An identifier row names a constant directly; if a numeric row already
	// carries that name the arm would be duplicated.
	if row.Name == row.Value {
		if _, labelled := t.labels[row.Name]; labelled {
			return
		}
	}

	ck := Canonical(row.Value)
	if row.Name != row.Value && t.labels[row.Name] == Canonical(row.Name) {
		// The name was first seen as a bare identifier. Give that entry its
		// code, or drop it when the code already has an entry.
		bare := t.labels[row.Name]
		if _, taken := t.index[ck]; !taken {
			i := t.index[bare]
			delete(t.index, bare)
			t.entries[i].Key = row.Value
			t.index[ck] = i
			t.labels[row.Name] = ck
			return
		}
		t.remove(bare)
	}

	i, ok := t.index[ck]
	if !ok {
		t.insert(ck, Entry{Key: row.Value, Value: row.Name})
		return
	}
	old := t.entries[i].Value
	if t.labels[old] == ck {
		delete(t.labels, old)
	}
	t.entries[i].Value = row.Name
	t.labels[row.Name] = ck
}

func (t *Table) insert(ck string, e Entry) {
	t.index[ck] = len(t.entries)
	t.entries = append(t.entries, e)
	t.labels[e.Value] = ck
}

func (t *Table) remove(ck string) {
	i := t.index[ck]
	delete(t.labels, t.entries[i].Value)
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	delete(t.index, ck)
	for j := i; j < len(t.entries); j++ {
		t.index[Canonical(t.entries[j].Key)] = j
	}
}

// Entries returns a copy of the table in insertion order
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Canonical returns the comparison form of a key: numeric literals in any
// base compare by value, everything else verbatim.
func Canonical(key string) string {
	if n, err := strconv.ParseUint(key, 0, 64); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return key
}
