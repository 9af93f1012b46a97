package models

import "fmt"

// Shape is the structural pattern of a source page
type Shape string

const (
	ShapeTable          Shape = "table"
	ShapeDefinitionList Shape = "deflist"
	ShapeAnchorList     Shape = "anchorlist"
)

// ParseShape converts a config value into a Shape
func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeTable, ShapeDefinitionList, ShapeAnchorList:
		return Shape(s), nil
	}
	return "", fmt.Errorf("unknown shape %q", s)
}

// Source describes one page feeding a generated table
type Source struct {
	URL   string
	Shape Shape

	// Containers are the positions of the tbody/dl/ul elements to read.
	// Empty means the shape's default.
	Containers []int

	// Element is the inline element holding the text (code, dt, a, strong...).
	// Empty means the shape's default.
	Element string

	// Identity makes every element yield a row whose name and value are the
	// same identifier.
	Identity bool

	Prefix          string // keep only rows whose name starts with Prefix
	TrimValuePrefix string // marker stripped from the value, e.g. "#"

	// Label names the code range of a page split by ranges
	Label string
}

// Row is one name/value pair scraped from a page
type Row struct {
	Name  string
	Value string
}
