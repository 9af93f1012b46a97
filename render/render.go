// Package render writes lookup tables out as Go source.
package render

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"

	"doctables/lookup"
)

// Kind selects the shape of the generated code
type Kind string

const (
	// KindColors renders one named color variable per entry; entry keys are
	// color names and values six hex digits.
	KindColors Kind = "colors"
	// KindSwitch renders a single function switching over the entry keys.
	KindSwitch Kind = "switch"
)

// ParseKind converts a config value into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindColors, KindSwitch:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown output kind %q", s)
}

// Meta describes the file generated for one table
type Meta struct {
	Generator string // tool named in the header
	Target    string
	Package   string
	Imports   []string
	Kind      Kind

	// KindColors
	Constructor string // e.g. "New", called with three uint8 components

	// KindSwitch
	Func      string // function name
	Param     string // parameter type, e.g. "uint32"
	Qualifier string // package qualifier for symbolic keys
	Fallback  string // returned by the default arm
}

// Render produces gofmt-ed source for t
func Render(t *lookup.Table, meta Meta) ([]byte, error) {
	if meta.Package == "" {
		return nil, fmt.Errorf("missing package name")
	}

	var buf bytes.Buffer
	buf.WriteString(Header(meta.Generator, meta.Target))
	fmt.Fprintf(&buf, "\npackage %s\n\n", meta.Package)

	if len(meta.Imports) > 0 {
		buf.WriteString("import (\n")
		for _, imp := range meta.Imports {
			fmt.Fprintf(&buf, "\t%q\n", imp)
		}
		buf.WriteString(")\n\n")
	}

	var err error
	switch meta.Kind {
	case KindColors:
		err = writeColors(&buf, t, meta)
	case KindSwitch:
		err = writeSwitch(&buf, t, meta)
	default:
		err = fmt.Errorf("unknown output kind %q", meta.Kind)
	}
	if err != nil {
		return nil, err
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}
	return src, nil
}

// Header returns the provenance line of a generated file
func Header(generator, target string) string {
	if generator == "" {
		generator = "doctables"
	}
	if target == "" {
		return fmt.Sprintf("// Code generated by %s. DO NOT EDIT.\n", generator)
	}
	return fmt.Sprintf("// Code generated by %s (%s). DO NOT EDIT.\n", generator, target)
}

func writeColors(buf *bytes.Buffer, t *lookup.Table, meta Meta) error {
	ctor := meta.Constructor
	if ctor == "" {
		ctor = "New"
	}

	buf.WriteString("// Named colors.\nvar (\n")
	for _, e := range t.Entries() {
		name, ok := ColorName(e.Key)
		if !ok {
			return fmt.Errorf("invalid color name %q", e.Key)
		}
		c, err := ParseColor(e.Value)
		if err != nil {
			return fmt.Errorf("color %s: %w", e.Key, err)
		}
		fmt.Fprintf(buf, "\t%s = %s(0x%02X, 0x%02X, 0x%02X)\n", name, ctor, c[0], c[1], c[2])
	}
	buf.WriteString(")\n")
	return nil
}

func writeSwitch(buf *bytes.Buffer, t *lookup.Table, meta Meta) error {
	fn := meta.Func
	if fn == "" {
		fn = "Translate"
	}
	param := meta.Param
	if param == "" {
		param = "uint32"
	}

	fmt.Fprintf(buf, "// %s returns the name of code, or %s if it is unknown.\n", fn, strconv.Quote(meta.Fallback))
	fmt.Fprintf(buf, "func %s(code %s) string {\n\tswitch code {\n", fn, param)
	for _, e := range t.Entries() {
		pattern, err := casePattern(e.Key, meta.Qualifier)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "\tcase %s:\n\t\treturn %s\n", pattern, strconv.Quote(e.Value))
	}
	fmt.Fprintf(buf, "\tdefault:\n\t\treturn %s\n\t}\n}\n", strconv.Quote(meta.Fallback))
	return nil
}

func casePattern(key, qualifier string) (string, error) {
	if isNumber(key) {
		return key, nil
	}
	if !token.IsIdentifier(key) {
		return "", fmt.Errorf("invalid case key %q", key)
	}
	if qualifier != "" {
		return qualifier + "." + key, nil
	}
	return key, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseUint(s, 0, 64)
	return err == nil
}

// IsCaseKey reports whether key can be written as a switch case: a numeric
// literal or an identifier.
func IsCaseKey(key string) bool {
	return isNumber(key) || token.IsIdentifier(key)
}

// ColorName returns the exported identifier used for a color
func ColorName(name string) (string, bool) {
	upper := strings.ToUpper(name)
	return upper, token.IsIdentifier(upper)
}

// ParseColor splits six hex digits into red, green and blue components
func ParseColor(hex string) ([3]uint8, error) {
	var c [3]uint8
	if len(hex) != 6 {
		return c, fmt.Errorf("invalid hex color %q", hex)
	}
	for i := range c {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return c, fmt.Errorf("invalid hex color %q", hex)
		}
		c[i] = uint8(v)
	}
	return c, nil
}
