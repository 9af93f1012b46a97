package config

import "time"

const learnBase = "https://learn.microsoft.com/{lang}/windows/win32/"

// messagePages list window messages as links to one reference page each
var messagePages = []string{
	"inputdev/keyboard-input-notifications",
	"inputdev/keyboard-input-messages",
	"inputdev/mouse-input-notifications",
	"winmsg/window-notifications",
	"winmsg/window-messages",
	"winmsg/timer-notifications",
	"winmsg/hook-notifications",
	"dataxchg/clipboard-messages",
	"dataxchg/clipboard-notifications",
	"dataxchg/data-copy-reference",
	"dataxchg/dynamic-data-exchange-messages",
	"dataxchg/dynamic-data-exchange-notifications",
	"menurc/keyboard-accelerator-notifications",
	"menurc/menu-notifications",
	"dlgbox/dialog-box-notifications",
	"menurc/keyboard-accelerator-messages",
	"menurc/cursor-notifications",
}

// errorCodeBounds are the first codes of the system error code pages
var errorCodeBounds = []int{0, 500, 1000, 1300, 1700, 4000, 6000, 8200, 9000, 12000, 16000}

// GetDefaultConfig returns the built-in configuration
func GetDefaultConfig() *Config {
	return &Config{
		Generator:    "doctables",
		Language:     "zh-cn",
		Fetcher:      "colly",
		Parser:       "goquery",
		RequestDelay: 500 * time.Millisecond,
		PageTimeout:  30 * time.Second,
		Targets: []Target{
			colorsTarget(),
			errorsTarget(),
			messagesTarget(),
		},
	}
}

func colorsTarget() Target {
	return Target{
		Name:        "colors",
		Output:      "color/const_color.go",
		Package:     "color",
		Kind:        "colors",
		Merge:       "first",
		Constructor: "New",
		Sources: []SourceConfig{{
			URL:             "https://developer.mozilla.org/en-US/docs/Web/CSS/named-color",
			Shape:           "table",
			Containers:      []int{0, 1},
			Element:         "code",
			TrimValuePrefix: "#",
		}},
	}
}

func errorsTarget() Target {
	return Target{
		Name:     "errors",
		Output:   "winsafe/gen/error_translate.go",
		Package:  "gen",
		Kind:     "switch",
		Merge:    "first",
		Func:     "TranslateError",
		Param:    "uint32",
		Fallback: "未知错误",
		Sources: []SourceConfig{{
			URL:    learnBase + "debug/system-error-codes--{min}-{max}-",
			Shape:  "deflist",
			Ranges: errorCodeBounds,
		}},
	}
}

// messagesTarget switches over message codes. Identifier-only rows render
// as win.WM_X, so the generated file builds only on Windows and only for
// names github.com/lxn/win declares; YAML can clear Qualifier and Imports
// for a package that declares the constants itself.
func messagesTarget() Target {
	t := Target{
		Name:      "messages",
		Output:    "winsafe/gen/msg_translate.go",
		Package:   "gen",
		Kind:      "switch",
		Merge:     "last",
		Func:      "TranslateMsg",
		Param:     "uint32",
		Qualifier: "win",
		Imports:   []string{"github.com/lxn/win"},
		Fallback:  "UNDEFINED",
	}
	for _, page := range messagePages {
		t.Sources = append(t.Sources, SourceConfig{
			URL:    learnBase + page,
			Shape:  "anchorlist",
			Prefix: "WM_",
		})
	}
	t.Sources = append(t.Sources,
		SourceConfig{
			URL:      learnBase + "intl/input-method-manager-messages",
			Shape:    "deflist",
			Element:  "strong",
			Identity: true,
			Prefix:   "WM_",
		},
		SourceConfig{
			URL:      learnBase + "dwm/dwm-messages",
			Shape:    "table",
			Element:  "a",
			Identity: true,
			Prefix:   "WM_",
		},
		SourceConfig{
			URL:      learnBase + "gdi/painting-and-drawing-messages",
			Shape:    "anchorlist",
			Element:  "strong",
			Identity: true,
			Prefix:   "WM_",
		},
	)
	return t
}
