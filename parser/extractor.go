package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"doctables/fetcher"
	"doctables/models"

	"go.uber.org/zap"
)

// ErrStructureMismatch is returned when a page lacks the tables or lists a
// source expects. Individual malformed rows are dropped instead.
var ErrStructureMismatch = errors.New("page structure mismatch")

// Extractor turns parsed pages into raw rows
type Extractor struct {
	fetcher fetcher.Fetcher
	parse   ParseFunc
	logger  *zap.Logger
}

// NewExtractor creates a new Extractor. The fetcher and parse function are
// used for the sub-pages of anchor lists.
func NewExtractor(f fetcher.Fetcher, parse ParseFunc, logger *zap.Logger) *Extractor {
	return &Extractor{
		fetcher: f,
		parse:   parse,
		logger:  logger,
	}
}

// Extract reads the rows of doc, a parsed copy of src.URL, according to src.Shape
func (e *Extractor) Extract(doc Node, src models.Source) ([]models.Row, error) {
	switch src.Shape {
	case models.ShapeTable:
		return e.extractTable(doc, src)
	case models.ShapeDefinitionList:
		return e.extractDefinitionList(doc, src)
	case models.ShapeAnchorList:
		return e.extractAnchorList(doc, src)
	}
	return nil, fmt.Errorf("unknown shape %q", src.Shape)
}

// containers picks the elements at the configured positions
func containers(doc Node, tag string, positions []int, defaults ...int) ([]Node, error) {
	if len(positions) == 0 {
		positions = defaults
	}
	all := doc.FindAll(tag)
	picked := make([]Node, 0, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(all) {
			return nil, fmt.Errorf("%w: want %s #%d, page has %d", ErrStructureMismatch, tag, p, len(all))
		}
		picked = append(picked, all[p])
	}
	return picked, nil
}

func elementOr(src models.Source, def string) string {
	if src.Element != "" {
		return src.Element
	}
	return def
}

// identityRows yields one (text, text) row per element
func identityRows(nodes []Node, tag string) []models.Row {
	var rows []models.Row
	for _, n := range nodes {
		for _, el := range n.FindAll(tag) {
			text := strings.TrimSpace(el.Text())
			if text == "" {
				continue
			}
			rows = append(rows, models.Row{Name: text, Value: text})
		}
	}
	return rows
}

// extractTable reads tbody rows holding exactly two inline elements
func (e *Extractor) extractTable(doc Node, src models.Source) ([]models.Row, error) {
	bodies, err := containers(doc, "tbody", src.Containers, 0)
	if err != nil {
		return nil, err
	}
	tag := elementOr(src, "code")

	if src.Identity {
		return identityRows(bodies, tag), nil
	}

	var rows []models.Row
	for _, body := range bodies {
		for _, tr := range body.FindAll("tr") {
			cells := tr.FindAll(tag)
			if len(cells) != 2 {
				// Section headers and notes
				e.logger.Debug("dropping table row", zap.Int("elements", len(cells)))
				continue
			}
			rows = append(rows, models.Row{
				Name:  strings.TrimSpace(cells[0].Text()),
				Value: strings.TrimSpace(cells[1].Text()),
			})
		}
	}
	return rows, nil
}

// extractDefinitionList reads dd blocks whose first term starts with the key
// and whose second term is the value
func (e *Extractor) extractDefinitionList(doc Node, src models.Source) ([]models.Row, error) {
	lists, err := containers(doc, "dl", src.Containers, 0)
	if err != nil {
		return nil, err
	}

	if src.Identity {
		return identityRows(lists, elementOr(src, "strong")), nil
	}

	tag := elementOr(src, "dt")
	var rows []models.Row
	for _, dl := range lists {
		for _, dd := range dl.FindAll("dd") {
			terms := dd.FindAll(tag)
			if len(terms) < 2 {
				e.logger.Debug("dropping definition block", zap.Int("terms", len(terms)))
				continue
			}
			key := strings.Fields(terms[0].Text())
			if len(key) == 0 {
				continue
			}
			rows = append(rows, models.Row{
				Name:  key[0],
				Value: strings.TrimSpace(terms[1].Text()),
			})
		}
	}
	return rows, nil
}

// extractAnchorList follows the anchors of a list. In identity mode the text
// of an element inside each anchor is used directly; otherwise every linked
// page is fetched and its first pre block gives the row.
func (e *Extractor) extractAnchorList(doc Node, src models.Source) ([]models.Row, error) {
	// The first list on these pages is the navigation menu
	lists, err := containers(doc, "ul", src.Containers, 1)
	if err != nil {
		return nil, err
	}

	var rows []models.Row
	for _, ul := range lists {
		for _, a := range ul.FindAll("a") {
			if src.Identity {
				el, ok := a.First(elementOr(src, "strong"))
				if !ok {
					continue
				}
				if text := strings.TrimSpace(el.Text()); text != "" {
					rows = append(rows, models.Row{Name: text, Value: text})
				}
				continue
			}

			href, _ := a.Attr("href")
			if !followable(href) {
				continue
			}
			target, err := resolve(src.URL, href)
			if err != nil {
				e.logger.Debug("dropping anchor", zap.String("href", href), zap.Error(err))
				continue
			}
			row, ok, err := e.subPageRow(target)
			if err != nil {
				return nil, err
			}
			if ok {
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

// followable reports whether an anchor points to a sibling reference page
func followable(href string) bool {
	return href != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "/")
}

// resolve joins a relative link to the directory of the page it was found on
func resolve(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page URL: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("failed to parse link: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// subPageRow fetches a reference page and reads the declaration in its first
// pre block, e.g. "#define WM_LBUTTONDOWN 0x0201".
func (e *Extractor) subPageRow(pageURL string) (models.Row, bool, error) {
	body, err := e.fetcher.Fetch(pageURL)
	if err != nil {
		return models.Row{}, false, err
	}
	page, err := e.parse.ParseString(body)
	if err != nil {
		return models.Row{}, false, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	row, ok := declarationRow(page)
	if !ok {
		e.logger.Debug("no declaration on page", zap.String("url", pageURL))
	}
	return row, ok, nil
}

func declarationRow(page Node) (models.Row, bool) {
	pre, ok := page.First("pre")
	if !ok {
		return models.Row{}, false
	}
	tokens := strings.Fields(pre.Text())
	if len(tokens) < 3 {
		return models.Row{}, false
	}
	return models.Row{Name: tokens[1], Value: tokens[2]}, true
}
