package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"doctables/config"
	"doctables/fetcher"
	"doctables/lookup"
	"doctables/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(url string) (string, error) {
	f.fetched = append(f.fetched, url)
	body, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("%w: %s: status 404", fetcher.ErrFetchFailure, url)
	}
	return body, nil
}

type recordingSink struct {
	saved map[string]int
	err   error
}

func (s *recordingSink) SaveTable(ctx context.Context, target string, table *lookup.Table) error {
	if s.saved == nil {
		s.saved = make(map[string]int)
	}
	s.saved[target] = table.Len()
	return s.err
}

const colorsURL = "https://docs.example.com/en-US/named-color"

const colorsPage = `<html><body>
<table><tbody>
<tr><th>Keyword</th><th>RGB hex value</th></tr>
<tr><td><code>AliceBlue</code></td><td><code>#F0F8FF</code></td></tr>
<tr><td><code>AntiqueWhite</code></td><td><code>#FAEBD7</code></td></tr>
<tr><td><code>currentcolor</code></td><td><code>currentcolor</code></td></tr>
</tbody></table>
<table><tbody></tbody></table>
</body></html>`

func testConfig(root string) *config.Config {
	return &config.Config{
		Generator: "doctables",
		Language:  "zh-cn",
		Targets: []config.Target{
			{
				Name:        "colors",
				Output:      "color/const_color.go",
				Package:     "color",
				Kind:        "colors",
				Merge:       "first",
				Constructor: "New",
				Sources: []config.SourceConfig{{
					URL:             colorsURL,
					Shape:           "table",
					Containers:      []int{0, 1},
					TrimValuePrefix: "#",
				}},
			},
			{
				Name:     "messages",
				Output:   "gen/msg_translate.go",
				Package:  "gen",
				Kind:     "switch",
				Merge:    "last",
				Func:     "TranslateMsg",
				Param:    "uint32",
				Fallback: "UNDEFINED",
				Sources: []config.SourceConfig{
					{URL: "https://docs.example.com/{lang}/winmsg/window-messages", Shape: "anchorlist", Prefix: "WM_"},
					{URL: "https://docs.example.com/{lang}/intl/ime-messages", Shape: "deflist", Element: "strong", Identity: true, Prefix: "WM_"},
				},
			},
		},
	}
}

func messagePages() map[string]string {
	const base = "https://docs.example.com/zh-cn/winmsg/"
	return map[string]string{
		base + "window-messages": `<ul><li><a href="/">Home</a></li></ul><ul>
<li><a href="wm-create">WM_CREATE</a></li>
<li><a href="wm-null">WM_NULL</a></li>
<li><a href="em-undo">EM_UNDO</a></li>
<li><a href="wm-null-alias">WM_NULL alias</a></li>
<li><a href="#remarks">Remarks</a></li>
</ul>`,
		base + "wm-create":     `<pre>#define WM_CREATE 0x0001</pre>`,
		base + "wm-null":       `<pre>#define WM_NULL 0x0000</pre>`,
		base + "em-undo":       `<pre>#define EM_UNDO 0x00C7</pre>`,
		base + "wm-null-alias": `<pre>#define WM_NOTHING 0x0000</pre>`,
		"https://docs.example.com/zh-cn/intl/ime-messages": `<dl>
<dt><strong>WM_IME_CHAR</strong></dt><dd>Sent on a character</dd>
<dt><strong>WM_CREATE</strong></dt><dd>Already known</dd>
<dt><strong>IMN_OPENSTATUSWINDOW</strong></dt><dd>Notification</dd>
</dl>`,
	}
}

func TestGenerateColors(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{pages: map[string]string{colorsURL: colorsPage}}
	sink := &recordingSink{}

	g := NewGenerator(testConfig(root), f, parser.ParseGoquery, zap.NewNop(), root, sink)
	require.NoError(t, g.Run(context.Background(), "colors"))

	src, err := os.ReadFile(filepath.Join(root, "color", "const_color.go"))
	require.NoError(t, err)

	out := string(src)
	assert.True(t, strings.HasPrefix(out, "// Code generated by doctables (colors). DO NOT EDIT."))
	assert.Regexp(t, regexp.MustCompile(`ALICEBLUE\s+= New\(0xF0, 0xF8, 0xFF\)`), out)
	assert.Regexp(t, regexp.MustCompile(`ANTIQUEWHITE\s+= New\(0xFA, 0xEB, 0xD7\)`), out)
	assert.NotContains(t, out, "CURRENTCOLOR")
	assert.Equal(t, map[string]int{"colors": 2}, sink.saved)
}

func TestGenerateMessages(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{pages: messagePages()}

	g := NewGenerator(testConfig(root), f, parser.ParseXPath, zap.NewNop(), root)
	require.NoError(t, g.Run(context.Background(), "messages"))

	src, err := os.ReadFile(filepath.Join(root, "gen", "msg_translate.go"))
	require.NoError(t, err)

	want := `// Code generated by doctables (messages). DO NOT EDIT.

package gen

// TranslateMsg returns the name of code, or "UNDEFINED" if it is unknown.
func TranslateMsg(code uint32) string {
	switch code {
	case 0x0001:
		return "WM_CREATE"
	case 0x0000:
		return "WM_NOTHING"
	case WM_IME_CHAR:
		return "WM_IME_CHAR"
	default:
		return "UNDEFINED"
	}
}
`
	assert.Equal(t, want, string(src))
}

func TestBuildIsRepeatable(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	g := NewGenerator(cfg, &fakeFetcher{pages: messagePages()}, parser.ParseGoquery, zap.NewNop(), root)

	first, err := g.Build(cfg.Targets[1])
	require.NoError(t, err)
	second, err := g.Build(cfg.Targets[1])
	require.NoError(t, err)
	assert.Equal(t, first.Entries(), second.Entries())
}

func TestRunAbortsBeforeWriting(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "gen", "msg_translate.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0755))
	require.NoError(t, os.WriteFile(out, []byte("previous"), 0644))

	pages := messagePages()
	delete(pages, "https://docs.example.com/zh-cn/intl/ime-messages")
	f := &fakeFetcher{pages: pages}
	sink := &recordingSink{}

	g := NewGenerator(testConfig(root), f, parser.ParseGoquery, zap.NewNop(), root, sink)
	err := g.Run(context.Background(), "messages")
	require.Error(t, err)
	assert.ErrorIs(t, err, fetcher.ErrFetchFailure)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	assert.Empty(t, sink.saved)
}

func TestRunAbortsOnStructureMismatch(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{pages: map[string]string{colorsURL: `<table><tbody></tbody></table>`}}

	g := NewGenerator(testConfig(root), f, parser.ParseGoquery, zap.NewNop(), root)
	err := g.Run(context.Background(), "colors")
	assert.ErrorIs(t, err, parser.ErrStructureMismatch)

	_, statErr := os.Stat(filepath.Join(root, "color", "const_color.go"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunStopsAtFirstFailingTarget(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{pages: messagePages()}

	g := NewGenerator(testConfig(root), f, parser.ParseGoquery, zap.NewNop(), root)
	err := g.Run(context.Background())
	require.ErrorIs(t, err, fetcher.ErrFetchFailure)

	assert.Equal(t, []string{colorsURL}, f.fetched)
	_, statErr := os.Stat(filepath.Join(root, "gen", "msg_translate.go"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSinkFailureIsNotFatal(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{pages: map[string]string{colorsURL: colorsPage}}
	sink := &recordingSink{err: errors.New("database unavailable")}

	g := NewGenerator(testConfig(root), f, parser.ParseGoquery, zap.NewNop(), root, sink)
	require.NoError(t, g.Run(context.Background(), "colors"))
	assert.Equal(t, 2, sink.saved["colors"])
}

func TestRunUnknownTarget(t *testing.T) {
	root := t.TempDir()
	g := NewGenerator(testConfig(root), &fakeFetcher{}, parser.ParseGoquery, zap.NewNop(), root)
	assert.Error(t, g.Run(context.Background(), "fonts"))
}

func TestColorTargetNeedsFirstMerge(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(root)
	cfg.Targets[0].Merge = "last"

	g := NewGenerator(cfg, &fakeFetcher{}, parser.ParseGoquery, zap.NewNop(), root)
	_, err := g.Build(cfg.Targets[0])
	assert.Error(t, err)
}

func TestBuildLogsCodeRanges(t *testing.T) {
	const pattern = "https://docs.example.com/{lang}/debug/system-error-codes--{min}-{max}-"
	cfg := &config.Config{
		Generator: "doctables",
		Language:  "zh-cn",
		Targets: []config.Target{{
			Name:     "errors",
			Output:   "gen/error_translate.go",
			Package:  "gen",
			Kind:     "switch",
			Fallback: "未知错误",
			Sources: []config.SourceConfig{{
				URL:    pattern,
				Shape:  "deflist",
				Ranges: []int{0, 500, 1000},
			}},
		}},
	}

	const base = "https://docs.example.com/zh-cn/debug/system-error-codes--"
	f := &fakeFetcher{pages: map[string]string{
		base + "0-499-":   `<dl><dd><dl><dt>0 (0x0)</dt><dt>操作成功完成。</dt></dl></dd></dl>`,
		base + "500-999-": `<dl><dd><dl><dt>500 (0x1F4)</dt><dt>未找到用户配置文件。</dt></dl></dd></dl>`,
	}}

	core, logs := observer.New(zap.InfoLevel)
	g := NewGenerator(cfg, f, parser.ParseGoquery, zap.New(core), t.TempDir())

	table, err := g.Build(cfg.Targets[0])
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	var ranges []string
	for _, entry := range logs.FilterMessage("rows extracted").All() {
		ranges = append(ranges, entry.ContextMap()["range"].(string))
	}
	assert.Equal(t, []string{"0-499", "500-999"}, ranges)
}
