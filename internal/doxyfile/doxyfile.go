// Package doxyfile reads and writes Doxygen configuration files.
//
// The format is line-oriented: `KEY = value ...` assignments, `KEY += value`
// appends, double-quoted values with escaped quotes, backslash line
// continuations, and `#` comment lines. Every option value is a list of
// strings; single-valued options are one-element lists.
package doxyfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Config is an ordered Doxygen configuration.
type Config struct {
	keys   []string
	values map[string][]string
}

// New returns an empty configuration.
func New() *Config {
	return &Config{values: make(map[string][]string)}
}

// Set replaces the values of an option, recording first-seen key order.
func (c *Config) Set(key string, values ...string) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = values
}

// Append adds values to an option (the `+=` form).
func (c *Config) Append(key string, values ...string) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = append(c.values[key], values...)
}

// Get returns the option's values, or nil if unset.
func (c *Config) Get(key string) []string {
	return c.values[key]
}

// GetOne returns the first value of an option, or "" if unset.
func (c *Config) GetOne(key string) string {
	if vs := c.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether the option is set.
func (c *Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Keys returns option names in first-seen order.
func (c *Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Merge overlays other onto c: every option set in other replaces the
// corresponding option in c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	for _, key := range other.keys {
		c.Set(key, other.values[key]...)
	}
}

// Parse reads a Doxyfile from r.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Join continuation lines before interpreting the statement.
		for strings.HasSuffix(line, "\\") {
			line = strings.TrimSpace(strings.TrimSuffix(line, "\\"))
			if !scanner.Scan() {
				break
			}
			lineNo++
			line += " " + strings.TrimSpace(scanner.Text())
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, rest, appendOp, err := splitStatement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		values := splitValues(rest)
		if appendOp {
			cfg.Append(key, values...)
		} else {
			cfg.Set(key, values...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read doxyfile: %w", err)
	}
	return cfg, nil
}

// ParseFile reads a Doxyfile from disk.
func ParseFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open doxyfile: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// splitStatement separates `KEY = rest` or `KEY += rest`. Only an operator
// before the first quote counts: values may legally contain `=` and `+=`
// (ALIASES, PREDEFINED).
func splitStatement(line string) (key, rest string, appendOp bool, err error) {
	limit := len(line)
	if q := strings.IndexByte(line, '"'); q >= 0 {
		limit = q
	}
	idx := strings.IndexByte(line[:limit], '=')
	if idx < 0 {
		return "", "", false, fmt.Errorf("malformed statement: %q", line)
	}

	keyEnd := idx
	if idx > 0 && line[idx-1] == '+' {
		appendOp = true
		keyEnd = idx - 1
	}
	key = strings.TrimSpace(line[:keyEnd])
	rest = strings.TrimSpace(line[idx+1:])

	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false, fmt.Errorf("malformed option name: %q", line)
	}
	return key, rest, appendOp, nil
}

// splitValues tokenizes a value list, honoring double quotes and `\"` escapes.
func splitValues(s string) []string {
	var values []string
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			break
		}
		if s[i] == '"' {
			i++
			var sb strings.Builder
			for i < len(s) {
				if s[i] == '\\' && i+1 < len(s) && s[i+1] == '"' {
					sb.WriteByte('"')
					i += 2
					continue
				}
				if s[i] == '"' {
					i++
					break
				}
				sb.WriteByte(s[i])
				i++
			}
			values = append(values, sb.String())
			continue
		}
		start := i
		for i < len(s) && s[i] != ' ' && s[i] != '\t' {
			i++
		}
		values = append(values, s[start:i])
	}
	return values
}

// Write renders the configuration in first-seen key order. Every value is
// double-quoted with embedded quotes escaped, which doxygen accepts for all
// option types.
func (c *Config) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, key := range c.keys {
		quoted := make([]string, 0, len(c.values[key]))
		for _, v := range c.values[key] {
			quoted = append(quoted, quote(v))
		}
		if _, err := fmt.Fprintf(bw, "%s = %s\n", key, strings.Join(quoted, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile renders the configuration to disk.
func (c *Config) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create doxyfile: %w", err)
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write doxyfile: %w", err)
	}
	return f.Close()
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
