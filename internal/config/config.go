// Package config implements ConfigMap: a typed key -> list-of-string
// store with file import and required-key validation, used to wire
// every component the Builder constructs (§4.9, §6).
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cuemby/prognose/internal/errs"
)

// SearchPath is the process-wide ordered list of directories importConfig
// directives are resolved against. It mirrors the original's global
// search-path list (§6) without needing package-level mutable state to be
// touched by anything other than explicit setup code.
type SearchPath struct {
	dirs []string
}

// NewSearchPath builds a SearchPath from an ordered directory list.
func NewSearchPath(dirs ...string) *SearchPath {
	return &SearchPath{dirs: append([]string(nil), dirs...)}
}

func (s *SearchPath) resolve(name string) (string, bool) {
	if s == nil || len(s.dirs) == 0 {
		if _, err := os.Stat(name); err == nil {
			return name, true
		}
		return "", false
	}
	for _, dir := range s.dirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// ConfigMap is a mapping from string key to an ordered list of string
// values. Keys are unique and lookups are case-sensitive.
type ConfigMap struct {
	values map[string][]string
	search *SearchPath
}

// New returns an empty ConfigMap resolving imports against search (nil
// means "current directory only").
func New(search *SearchPath) *ConfigMap {
	return &ConfigMap{values: make(map[string][]string), search: search}
}

// Set replaces the value list for key.
func (c *ConfigMap) Set(key string, values ...string) {
	c.values[key] = append([]string(nil), values...)
}

// Has reports whether key is present.
func (c *ConfigMap) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Keys returns every key currently set, in no particular order.
func (c *ConfigMap) Keys() []string {
	out := make([]string, 0, len(c.values))
	for k := range c.values {
		out = append(out, k)
	}
	return out
}

// GetList returns the raw value list for key.
func (c *ConfigMap) GetList(key string) ([]string, error) {
	v, ok := c.values[key]
	if !ok {
		return nil, errs.New(errs.ConfigMissing, "ConfigMap.GetList", "missing required key %q", key)
	}
	return v, nil
}

// GetString returns the single string value for key. Fails with
// ConfigMissing if the key is absent or does not hold exactly one value.
func (c *ConfigMap) GetString(key string) (string, error) {
	v, err := c.GetList(key)
	if err != nil {
		return "", err
	}
	if len(v) != 1 {
		return "", errs.New(errs.ConfigMissing, "ConfigMap.GetString", "key %q has %d values, want 1", key, len(v))
	}
	return v[0], nil
}

// GetDouble returns key parsed as a single float64.
func (c *ConfigMap) GetDouble(key string) (float64, error) {
	s, err := c.GetString(key)
	if err != nil {
		return 0, err
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if perr != nil {
		return 0, errs.New(errs.ConfigMissing, "ConfigMap.GetDouble", "key %q value %q is not a float: %v", key, s, perr)
	}
	return f, nil
}

// GetU64 returns key parsed as a single uint64.
func (c *ConfigMap) GetU64(key string) (uint64, error) {
	s, err := c.GetString(key)
	if err != nil {
		return 0, err
	}
	u, perr := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if perr != nil {
		return 0, errs.New(errs.ConfigMissing, "ConfigMap.GetU64", "key %q value %q is not a uint64: %v", key, s, perr)
	}
	return u, nil
}

// GetInt returns key parsed as a single int.
func (c *ConfigMap) GetInt(key string) (int, error) {
	u, err := c.GetU64(key)
	if err != nil {
		return 0, err
	}
	return int(u), nil
}

// GetDoubleVector returns key's value list parsed element-wise as
// float64. If wantLen >= 0, fails with ConfigMissing when the parsed
// length does not match.
func (c *ConfigMap) GetDoubleVector(key string, wantLen int) ([]float64, error) {
	list, err := c.GetList(key)
	if err != nil {
		return nil, err
	}
	if wantLen >= 0 && len(list) != wantLen {
		return nil, errs.New(errs.ConfigMissing, "ConfigMap.GetDoubleVector", "key %q has %d values, want %d", key, len(list), wantLen)
	}
	out := make([]float64, len(list))
	for i, s := range list {
		f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if perr != nil {
			return nil, errs.New(errs.ConfigMissing, "ConfigMap.GetDoubleVector", "key %q element %d value %q is not a float: %v", key, i, s, perr)
		}
		out[i] = f
	}
	return out, nil
}

// RequireKeys fails with ConfigMissing naming the first absent key.
func (c *ConfigMap) RequireKeys(keys ...string) error {
	for _, k := range keys {
		if !c.Has(k) {
			return errs.New(errs.ConfigMissing, "ConfigMap.RequireKeys", "missing required key %q", k)
		}
	}
	return nil
}

// LoadFile parses a config file's line-oriented grammar (§6) into c,
// resolving any importConfig directives transitively against c's search
// path. Later imports and later lines override earlier bindings for the
// same key.
func (c *ConfigMap) LoadFile(path string) error {
	return c.loadFile(path, make(map[string]bool))
}

func (c *ConfigMap) loadFile(path string, seen map[string]bool) error {
	resolved := path
	if r, ok := c.search.resolve(path); ok {
		resolved = r
	}
	if seen[resolved] {
		return errs.New(errs.Unreachable, "ConfigMap.loadFile", "cyclic importConfig on %q", path)
	}
	seen[resolved] = true

	f, err := os.Open(resolved)
	if err != nil {
		return errs.Wrap(errs.ConfigMissing, "ConfigMap.loadFile", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "/") {
			continue
		}
		key, values, ok := parseLine(line)
		if !ok {
			continue
		}
		if key == "importConfig" {
			for _, imp := range values {
				if err := c.loadFile(imp, seen); err != nil {
					return err
				}
			}
			continue
		}
		c.Set(key, values...)
	}
	if err := scanner.Err(); err != nil {
		return errs.Wrap(errs.ConfigMissing, "ConfigMap.loadFile", err)
	}
	return nil
}

func parseLine(line string) (key string, values []string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", nil, false
	}
	key = strings.TrimSpace(line[:idx])
	if key == "" {
		return "", nil, false
	}
	for _, raw := range strings.Split(line[idx+1:], ",") {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	return key, values, true
}
