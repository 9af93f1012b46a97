package parser

import (
	"fmt"
	"io"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

type xpathNode struct {
	node *html.Node
}

// ParseXPath builds a Node tree with htmlquery; tag lookups are XPath
// descendant queries.
var ParseXPath ParseFunc = func(r io.Reader) (Node, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return xpathNode{node: doc}, nil
}

func (n xpathNode) query(tag string) []*html.Node {
	found, err := htmlquery.QueryAll(n.node, "descendant::"+tag)
	if err != nil {
		// Only reachable with a malformed tag name, which never matches.
		return nil
	}
	return found
}

func (n xpathNode) FindAll(tag string) []Node {
	var nodes []Node
	for _, h := range n.query(tag) {
		nodes = append(nodes, xpathNode{node: h})
	}
	return nodes
}

func (n xpathNode) First(tag string) (Node, bool) {
	found := n.query(tag)
	if len(found) == 0 {
		return nil, false
	}
	return xpathNode{node: found[0]}, true
}

func (n xpathNode) Attr(name string) (string, bool) {
	for _, a := range n.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (n xpathNode) Text() string {
	return htmlquery.InnerText(n.node)
}
