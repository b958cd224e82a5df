// Package config reads the optional Makegen.toml next to the sources being
// scanned. Sections may contain conditional sub-tables keyed by boolean
// expressions over the host environment, and string values may interpolate
// {{...}} expressions.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
)

const Filename = "Makegen.toml"

type Config struct {
	Toolchain ToolchainSection `toml:"toolchain"`
	Flags     FlagsSection     `toml:"flags"`
	Scan      ScanSection      `toml:"scan"`
}

// ToolchainSection overrides the tool variable definitions emitted into the
// Makefile.
type ToolchainSection struct {
	CC  string `toml:"cc"`
	CXX string `toml:"cxx"`
	AR  string `toml:"ar"`
	RM  string `toml:"rm"`
}

// FlagsSection replaces the default flag block. A header.txt file in the
// scanned directory still takes precedence over this section.
type FlagsSection struct {
	Cxxflags   string `toml:"cxxflags"`
	Cflags     string `toml:"cflags"`
	Clibflags  string `toml:"clibflags"`
	Cclibflags string `toml:"cclibflags"`
}

// ScanSection tunes directory classification.
type ScanSection struct {
	// Exclude lists doublestar patterns of file names to skip.
	Exclude []string `toml:"exclude"`
}

func Default() *Config {
	return &Config{
		Toolchain: ToolchainSection{CC: "gcc", CXX: "g++", AR: "ar", RM: "rm -f"},
		Flags:     FlagsSection{Cxxflags: "-ggdb", Cflags: "-ggdb", Clibflags: "-lm", Cclibflags: ""},
	}
}

// Load reads dir/Makegen.toml, falling back to defaults when absent.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, Filename)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(bufio.NewReader(f), NewEnv(dir))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Filename, err)
	}
	return cfg, nil
}

// Parse decodes a config on top of the defaults.
func Parse(rdr io.Reader, env Env) (*Config, error) {
	var raw map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}

	expanded, err := expandTree(raw, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}
	raw = expanded.(map[string]any)

	cfg := Default()
	if err := decodeSection(raw, "toolchain", &cfg.Toolchain, env); err != nil {
		return nil, err
	}
	if err := decodeSection(raw, "flags", &cfg.Flags, env); err != nil {
		return nil, err
	}
	if err := decodeSection(raw, "scan", &cfg.Scan, env); err != nil {
		return nil, err
	}

	for _, pat := range cfg.Scan.Exclude {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pat)
		}
	}
	return cfg, nil
}

// decodeSection parses one [name] table into dst. Sub-tables whose keys
// compile as expressions are treated as conditional blocks and merged into
// dst only when the expression evaluates to true.
func decodeSection[T any](raw map[string]any, name string, dst *T, env Env) error {
	sectionData, ok := raw[name]
	if !ok {
		return nil
	}
	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range sectionMap {
		if subMap, ok := val.(map[string]any); ok {
			if _, err := expr.Compile(key, expr.Env(env)); err == nil {
				conditionalFields[key] = subMap
				continue
			}
		}
		baseFields[key] = val
	}

	if len(baseFields) > 0 {
		if err := toml.Unmarshal(mustMarshal(baseFields), dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}

	for expression, condMap := range conditionalFields {
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal(mustMarshal(condMap), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeSections(dst, condSection); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

func mustMarshal(v any) []byte {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// mergeSections merges the non-zero fields of the src struct into dst.
func mergeSections(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return errors.New("dst must be a pointer to a struct")
	}
	dstElem := dstVal.Elem()

	srcVal := reflect.ValueOf(src)
	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}
	if srcVal.Kind() != reflect.Struct {
		return errors.New("src must be a struct or a pointer to a struct")
	}
	if dstElem.Type() != srcVal.Type() {
		return errors.New("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)
		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Map:
			if !srcField.IsNil() {
				if dstField.IsNil() {
					dstField.Set(reflect.MakeMap(dstField.Type()))
				}
				for _, key := range srcField.MapKeys() {
					dstField.SetMapIndex(key, srcField.MapIndex(key))
				}
			}
		case reflect.Bool:
			dstField.SetBool(dstField.Bool() || srcField.Bool())
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}

	return nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// expandString evaluates all {{...}} expressions in a string.
func expandString(s string, env Env) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, m := range matches {
		builder.WriteString(s[lastIndex:m[0]])

		expression := strings.TrimSpace(s[m[2]:m[3]])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		fmt.Fprintf(&builder, "%v", result)
		lastIndex = m[1]
	}
	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// expandTree walks the decoded TOML data and evaluates expressions in every
// string value.
func expandTree(data any, env Env) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			expanded, err := expandTree(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = expanded
		}
		return v, nil
	case []any:
		for i, item := range v {
			expanded, err := expandTree(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = expanded
		}
		return v, nil
	case string:
		return expandString(v, env)
	default:
		return data, nil
	}
}

// Env is the evaluation environment for config expressions.
type Env struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

func NewEnv(basedir string) Env {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return Env{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		basedir:    basedir,
	}
}

// ReadFile lets expressions pull in a file relative to the config directory.
func (env Env) ReadFile(path string) (string, error) {
	fullPath := filepath.Join(env.basedir, path)
	if _, err := filepath.Rel(env.basedir, fullPath); err != nil {
		return "", fmt.Errorf("path %q is outside of directory %q", path, env.basedir)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
