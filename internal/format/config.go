// Package format implements the ROM container writers: each target
// platform's output format concatenates a compilation's stored banks
// and stamps a platform-specific header onto the result.
package format

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/diag"
	"github.com/wiz-lang/wiz/internal/numeric"
)

// ConfigType tags the shape an output format expects a config entry's
// already-folded value to have.
type ConfigType int

const (
	ConfigString ConfigType = iota
	ConfigFixedString
	ConfigInteger
	ConfigBoolean
)

// ConfigKey describes one entry an OutputFormat or DebugFormat is
// willing to read out of a `config { ... }` block.
type ConfigKey struct {
	Type     ConfigType
	Required bool
	Default  ast.Expression
}

// ConfigSchema is the full set of keys a single format recognizes.
// No accessor of Config consults a schema: each format reads the
// handful of keys relevant to it directly, and keys that no format
// reads are ignored rather than diagnosed.
type ConfigSchema map[string]ConfigKey

// Config holds the folded config entries of a single compilation, each
// already reduced to a literal by the pass-2 constant folder before it
// ever reaches a formatter.
type Config struct {
	values map[string]ast.Expression
	locs   map[string]ast.Location
}

// NewConfig builds a Config from a program's `config { key: expr }`
// entries. Callers are expected to have already run each entry's Value
// through the constant folder; the typed accessors' checks assume
// they are looking at literals, not arbitrary expressions.
func NewConfig(entries []ast.ConfigEntry) *Config {
	c := &Config{values: make(map[string]ast.Expression), locs: make(map[string]ast.Location)}
	for _, e := range entries {
		c.values[e.Key] = e.Value
		c.locs[e.Key] = e.Loc
	}
	return c
}

func (c *Config) has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// String checks a string-typed entry, diagnosing a type mismatch; a
// missing or mistyped entry returns "" and false.
func (c *Config) String(report *diag.Report, key string, required bool) (string, bool) {
	expr, loc, ok := c.lookup(report, key, required)
	if !ok {
		return "", false
	}
	lit, ok := expr.(*ast.StringLit)
	if !ok {
		report.Errorf(loc, "`%s` must be a string", key)
		return "", false
	}
	return lit.Value, true
}

// FixedString is String plus a maximum-length check, used by headers
// with a fixed-width text field (title, maker code, ...).
func (c *Config) FixedString(report *diag.Report, key string, maxLen int, required bool) (string, bool) {
	s, ok := c.String(report, key, required)
	if !ok {
		return "", false
	}
	if len(s) > maxLen {
		report.Errorf(c.locs[key], "`%s` of \"%s\" is too long (max %d characters)", key, s, maxLen)
		return "", false
	}
	return s, true
}

// Integer checks an integer-typed entry.
func (c *Config) Integer(report *diag.Report, key string, required bool) (numeric.Int128, bool) {
	expr, loc, ok := c.lookup(report, key, required)
	if !ok {
		return numeric.Int128{}, false
	}
	lit, ok := expr.(*ast.IntegerLit)
	if !ok {
		report.Errorf(loc, "`%s` must be an integer", key)
		return numeric.Int128{}, false
	}
	return lit.Value, true
}

// Boolean checks a boolean-typed entry.
func (c *Config) Boolean(report *diag.Report, key string, required bool) (bool, bool) {
	expr, loc, ok := c.lookup(report, key, required)
	if !ok {
		return false, false
	}
	lit, ok := expr.(*ast.BooleanLit)
	if !ok {
		report.Errorf(loc, "`%s` must be a boolean", key)
		return false, false
	}
	return lit.Value, true
}

func (c *Config) lookup(report *diag.Report, key string, required bool) (ast.Expression, ast.Location, bool) {
	if expr, ok := c.values[key]; ok {
		return expr, c.locs[key], true
	}
	if required {
		report.Errorf(ast.Builtin, "missing required config entry `%s`", key)
	}
	return nil, ast.Location{}, false
}
