package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"doctables/lookup"
	"doctables/models"
	"doctables/parser"
	"doctables/render"
	"doctables/urlrange"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config describes every table the generator knows how to build
type Config struct {
	Generator    string        `yaml:"generator"`
	Language     string        `yaml:"language"`
	Fetcher      string        `yaml:"fetcher"` // colly or rod
	Parser       string        `yaml:"parser"`  // goquery or xpath
	RequestDelay time.Duration `yaml:"request_delay"`
	PageTimeout  time.Duration `yaml:"page_timeout"`
	Targets      []Target      `yaml:"targets"`
	Snapshot     Snapshot      `yaml:"snapshot"`
	Sheets       Sheets        `yaml:"sheets"`
}

// Target is one generated file and the pages feeding it
type Target struct {
	Name        string         `yaml:"name"`
	Output      string         `yaml:"output"`
	Package     string         `yaml:"package"`
	Kind        string         `yaml:"kind"`  // colors or switch
	Merge       string         `yaml:"merge"` // first or last
	Constructor string         `yaml:"constructor"`
	Func        string         `yaml:"func"`
	Param       string         `yaml:"param"`
	Qualifier   string         `yaml:"qualifier"`
	Imports     []string       `yaml:"imports"`
	Fallback    string         `yaml:"fallback"`
	Sources     []SourceConfig `yaml:"sources"`
}

// SourceConfig is the YAML form of models.Source. URL may contain {lang};
// when Ranges is set it must also contain {min} and {max}.
type SourceConfig struct {
	URL             string `yaml:"url"`
	Shape           string `yaml:"shape"`
	Containers      []int  `yaml:"containers"`
	Element         string `yaml:"element"`
	Identity        bool   `yaml:"identity"`
	Prefix          string `yaml:"prefix"`
	TrimValuePrefix string `yaml:"trim_value_prefix"`
	Ranges          []int  `yaml:"ranges"`
}

// Snapshot configures the optional Postgres record of generated tables
type Snapshot struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url"`
}

// Sheets configures the optional Google Sheets export
type Sheets struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Credentials   string `yaml:"credentials"`
}

// Load returns the built-in configuration, overridden by the YAML file at
// path when path is not empty. Values from a .env file and the environment
// are applied last.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := GetDefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		cfg.Snapshot.DatabaseURL = dsn
		cfg.Snapshot.Enabled = true
	}
	if id := strings.TrimSpace(os.Getenv("DOCTABLES_SPREADSHEET_ID")); id != "" {
		cfg.Sheets.SpreadsheetID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every target can be built
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return errors.New("no targets configured")
	}
	switch c.Fetcher {
	case "", "colly", "rod":
	default:
		return fmt.Errorf("unknown fetcher %q", c.Fetcher)
	}
	if _, err := parser.ByName(c.Parser); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, t := range c.Targets {
		if t.Name == "" {
			return errors.New("target without name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate target %q", t.Name)
		}
		seen[t.Name] = true

		if t.Output == "" {
			return fmt.Errorf("target %s: missing output path", t.Name)
		}
		if _, err := t.Meta(c.Generator); err != nil {
			return fmt.Errorf("target %s: %w", t.Name, err)
		}
		if _, err := t.MergePolicy(); err != nil {
			return fmt.Errorf("target %s: %w", t.Name, err)
		}
		if _, err := t.ExpandSources(c.Language); err != nil {
			return fmt.Errorf("target %s: %w", t.Name, err)
		}
	}
	return nil
}

// Target looks a target up by name
func (c *Config) Target(name string) (*Target, bool) {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i], true
		}
	}
	return nil, false
}

// Names returns the target names in configuration order
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		names = append(names, t.Name)
	}
	return names
}

// Meta returns the render settings of the target
func (t Target) Meta(generator string) (render.Meta, error) {
	kind, err := render.ParseKind(t.Kind)
	if err != nil {
		return render.Meta{}, err
	}
	if t.Package == "" {
		return render.Meta{}, errors.New("missing package name")
	}
	return render.Meta{
		Generator:   generator,
		Target:      t.Name,
		Package:     t.Package,
		Imports:     t.Imports,
		Kind:        kind,
		Constructor: t.Constructor,
		Func:        t.Func,
		Param:       t.Param,
		Qualifier:   t.Qualifier,
		Fallback:    t.Fallback,
	}, nil
}

// MergePolicy returns how duplicate rows of the target are merged
func (t Target) MergePolicy() (lookup.Merge, error) {
	return lookup.ParseMerge(t.Merge)
}

// ExpandSources resolves language placeholders and code ranges into the
// ordered list of pages to read
func (t Target) ExpandSources(lang string) ([]models.Source, error) {
	if len(t.Sources) == 0 {
		return nil, errors.New("no sources")
	}

	var sources []models.Source
	for _, sc := range t.Sources {
		shape, err := models.ParseShape(sc.Shape)
		if err != nil {
			return nil, err
		}
		if sc.URL == "" {
			return nil, errors.New("source without url")
		}

		pattern := strings.ReplaceAll(sc.URL, "{lang}", lang)
		pages := []urlrange.RangeURL{{URL: pattern}}
		if len(sc.Ranges) > 0 {
			pages, err = urlrange.Generate(pattern, sc.Ranges)
			if err != nil {
				return nil, err
			}
		}

		for _, page := range pages {
			sources = append(sources, models.Source{
				URL:             page.URL,
				Label:           page.Label,
				Shape:           shape,
				Containers:      sc.Containers,
				Element:         sc.Element,
				Identity:        sc.Identity,
				Prefix:          sc.Prefix,
				TrimValuePrefix: sc.TrimValuePrefix,
			})
		}
	}
	return sources, nil
}
