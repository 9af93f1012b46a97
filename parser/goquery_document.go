package parser

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

type goqueryNode struct {
	sel *goquery.Selection
}

// ParseGoquery builds a Node tree with goquery
var ParseGoquery ParseFunc = func(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return goqueryNode{sel: doc.Selection}, nil
}

func (n goqueryNode) FindAll(tag string) []Node {
	var nodes []Node
	n.sel.Find(tag).Each(func(i int, s *goquery.Selection) {
		nodes = append(nodes, goqueryNode{sel: s})
	})
	return nodes
}

func (n goqueryNode) First(tag string) (Node, bool) {
	s := n.sel.Find(tag).First()
	if s.Length() == 0 {
		return nil, false
	}
	return goqueryNode{sel: s}, true
}

func (n goqueryNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n goqueryNode) Text() string {
	return n.sel.Text()
}
