package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"doctables/lookup"
	"doctables/models"
	"doctables/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"colors", "errors", "messages"}, cfg.Names())

	errorsTarget, ok := cfg.Target("errors")
	require.True(t, ok)
	sources, err := errorsTarget.ExpandSources(cfg.Language)
	require.NoError(t, err)
	require.Len(t, sources, 10)
	assert.Equal(t, "https://learn.microsoft.com/zh-cn/windows/win32/debug/system-error-codes--0-499-", sources[0].URL)
	assert.Equal(t, "https://learn.microsoft.com/zh-cn/windows/win32/debug/system-error-codes--12000-15999-", sources[9].URL)
	assert.Equal(t, models.ShapeDefinitionList, sources[0].Shape)
	assert.Equal(t, "0-499", sources[0].Label)
	assert.Equal(t, "12000-15999", sources[9].Label)

	messages, ok := cfg.Target("messages")
	require.True(t, ok)
	merge, err := messages.MergePolicy()
	require.NoError(t, err)
	assert.Equal(t, lookup.LastWins, merge)

	sources, err = messages.ExpandSources(cfg.Language)
	require.NoError(t, err)
	assert.Len(t, sources, 20)
	for _, s := range sources {
		assert.Equal(t, "WM_", s.Prefix, s.URL)
	}

	meta, err := messages.Meta(cfg.Generator)
	require.NoError(t, err)
	assert.Equal(t, render.KindSwitch, meta.Kind)
	assert.Equal(t, "UNDEFINED", meta.Fallback)
	assert.Equal(t, "win", meta.Qualifier)
	assert.Equal(t, []string{"github.com/lxn/win"}, meta.Imports)

	_, ok = cfg.Target("fonts")
	assert.False(t, ok)
}

func TestLoadOverridesTargets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DOCTABLES_SPREADSHEET_ID", "")

	path := filepath.Join(t.TempDir(), "doctables.yaml")
	err := os.WriteFile(path, []byte(`
language: en-us
parser: xpath
request_delay: 2s
targets:
  - name: colors
    output: out/colors.go
    package: palette
    kind: colors
    sources:
      - url: https://example.com/{lang}/colors
        shape: table
        containers: [0, 1]
        trim_value_prefix: "#"
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "xpath", cfg.Parser)
	assert.Equal(t, "colly", cfg.Fetcher)
	assert.Equal(t, 2*time.Second, cfg.RequestDelay)
	assert.Equal(t, []string{"colors"}, cfg.Names())
	assert.False(t, cfg.Snapshot.Enabled)

	sources, err := cfg.Targets[0].ExpandSources(cfg.Language)
	require.NoError(t, err)
	assert.Equal(t, []models.Source{{
		URL:             "https://example.com/en-us/colors",
		Shape:           models.ShapeTable,
		Containers:      []int{0, 1},
		TrimValuePrefix: "#",
	}}, sources)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/doctables")
	t.Setenv("DOCTABLES_SPREADSHEET_ID", "sheet-123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Snapshot.Enabled)
	assert.Equal(t, "postgres://localhost/doctables", cfg.Snapshot.DatabaseURL)
	assert.Equal(t, "sheet-123", cfg.Sheets.SpreadsheetID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no targets", func(c *Config) { c.Targets = nil }},
		{"duplicate name", func(c *Config) { c.Targets[1].Name = "colors" }},
		{"missing output", func(c *Config) { c.Targets[0].Output = "" }},
		{"unknown kind", func(c *Config) { c.Targets[0].Kind = "enum" }},
		{"unknown merge", func(c *Config) { c.Targets[0].Merge = "random" }},
		{"unknown shape", func(c *Config) { c.Targets[0].Sources[0].Shape = "grid" }},
		{"bad ranges", func(c *Config) { c.Targets[1].Sources[0].Ranges = []int{5} }},
		{"missing package", func(c *Config) { c.Targets[2].Package = "" }},
		{"unknown fetcher", func(c *Config) { c.Fetcher = "curl" }},
		{"unknown parser", func(c *Config) { c.Parser = "regex" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
