/*
loader.go - Goal, assumptions and constants files

PURPOSE:
  Reads configuration documents from disk. JSON (.json) and YAML (.yaml, .yml)
  are both accepted; YAML is decoded into the same generic tree as JSON so the
  schema types only carry json tags.

PIPELINE:
  file -> generic tree (JSON numbers kept exact) -> ${constant} resolution
       -> GoalJSON / AssumptionsJSON -> engine values

DISCOVERY:
  DiscoverGoalFiles(dir) lists every config file in dir except the constants
  and assumptions documents, sorted by name.

SEE ALSO:
  - constants.go: placeholder resolution
  - goal.go, assumptions.go: schema conversion
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/goal-engine/engine"
)

// Reserved file stems skipped by DiscoverGoalFiles.
const (
	ConstantsStem   = "constants"
	AssumptionsStem = "assumptions"
)

// GoalFile is a goal loaded from disk with its optional strategy override.
type GoalFile struct {
	Path     string
	Goal     engine.Goal
	Strategy engine.AllocationStrategy // nil = use the run's default
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// LoadDocument reads a JSON or YAML file into a generic tree.
func LoadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(data, filepath.Ext(path))
}

// DecodeDocument decodes data according to the file extension. Anything that
// is not .yaml/.yml is treated as JSON.
func DecodeDocument(data []byte, ext string) (any, error) {
	var doc any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return normalize(doc), nil
}

// normalize makes a YAML tree look like a JSON one: string keys, dates as
// YYYY-MM-DD strings.
func normalize(doc any) any {
	switch v := doc.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = normalize(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	case time.Time:
		return v.Format(engine.DateFormat)
	}
	return doc
}

// decodeInto converts a generic tree into a schema struct.
func decodeInto(doc any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// =============================================================================
// TYPED LOADERS
// =============================================================================

// LoadConstants reads a constants document. A missing file yields no constants.
func LoadConstants(path string) (Constants, error) {
	if path == "" {
		return Constants{}, nil
	}
	doc, err := LoadDocument(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Constants{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load constants %s: %w", path, err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("load constants %s: top level must be an object", path)
	}
	return Constants(m), nil
}

// LoadGoalFile reads, resolves and converts one goal file.
func LoadGoalFile(path string, constants Constants) (*GoalFile, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("load goal %s: %w", path, err)
	}
	return GoalFromDocument(path, constants.Resolve(doc))
}

// GoalFromDocument converts an already decoded and resolved goal tree.
func GoalFromDocument(path string, doc any) (*GoalFile, error) {
	var gj GoalJSON
	if err := decodeInto(doc, &gj); err != nil {
		return nil, fmt.Errorf("load goal %s: %w", path, err)
	}
	goal, strategy, err := NewGoalFactory().FromJSON(gj)
	if err != nil {
		return nil, err
	}
	return &GoalFile{Path: path, Goal: *goal, Strategy: strategy}, nil
}

// LoadAssumptionsFile reads an assumptions file. today is used when the file
// does not set its own.
func LoadAssumptionsFile(path string, constants Constants, today engine.Date) (engine.Assumptions, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return engine.Assumptions{}, fmt.Errorf("load assumptions %s: %w", path, err)
	}
	var aj AssumptionsJSON
	if err := decodeInto(constants.Resolve(doc), &aj); err != nil {
		return engine.Assumptions{}, fmt.Errorf("load assumptions %s: %w", path, err)
	}
	return aj.ToAssumptions(today)
}

// =============================================================================
// DISCOVERY
// =============================================================================

// DiscoverGoalFiles lists the goal files of dir (non-recursive).
func DiscoverGoalFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsConfigFile(e.Name()) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if stem == ConstantsStem || stem == AssumptionsStem {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// IsConfigFile reports whether name has a JSON or YAML extension.
func IsConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
