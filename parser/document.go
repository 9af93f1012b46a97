package parser

import (
	"fmt"
	"io"
	"strings"
)

// Node is a read-only view of an element (or of the whole page) in a parsed
// HTML document. The extractor only talks to pages through this interface.
type Node interface {
	// FindAll returns every descendant element with the given tag, in document order
	FindAll(tag string) []Node
	// First returns the first descendant element with the given tag
	First(tag string) (Node, bool)
	// Attr returns the value of an attribute and whether it is present
	Attr(name string) (string, bool)
	// Text returns the concatenated text content of the element
	Text() string
}

// ParseFunc turns page text into a document tree
type ParseFunc func(r io.Reader) (Node, error)

// ParseString parses an HTML page held in memory
func (p ParseFunc) ParseString(html string) (Node, error) {
	return p(strings.NewReader(html))
}

// ByName returns the tree implementation registered under name
func ByName(name string) (ParseFunc, error) {
	switch name {
	case "", "goquery":
		return ParseGoquery, nil
	case "xpath":
		return ParseXPath, nil
	}
	return nil, fmt.Errorf("unknown parser %q", name)
}
