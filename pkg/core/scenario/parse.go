package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v2"

	"pe_modeller/pkg/core/investment"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Parse reads a scenario document. Fields it does not mention keep their
// Default values. Strategies, in order:
//
//  1. Documents starting with '{': strict JSON, then repaired JSON (single
//     quotes, trailing commas, comments, code fences), then Hjson.
//  2. Anything else: YAML, then Hjson.
//
// Parse does not range-check; call Validate on the result.
func Parse(data []byte) (Input, error) {
	trimmed := bytes.TrimSpace(stripFence(data))

	if bytes.HasPrefix(trimmed, []byte("{")) {
		if in, err := parseJSON(trimmed); err == nil {
			return in, nil
		}
		if in, err := parseRepairedJSON(trimmed); err == nil {
			return in, nil
		}
		if in, err := parseHJSON(trimmed); err == nil {
			return in, nil
		}
		return Input{}, fmt.Errorf("%w: scenario is not valid JSON, repaired JSON or Hjson", investment.ErrInvalidInput)
	}

	if in, err := parseYAML(trimmed); err == nil {
		return in, nil
	}
	if in, err := parseHJSON(trimmed); err == nil {
		return in, nil
	}
	return Input{}, fmt.Errorf("%w: scenario is not valid YAML or Hjson", investment.ErrInvalidInput)
}

// Load reads a scenario file. The extension picks the parser (.json, .yaml,
// .yml, .hjson); other extensions go through Parse.
func Load(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}

	var in Input
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		in, err = parseYAML(data)
	case ".hjson":
		in, err = parseHJSON(data)
	default:
		in, err = Parse(data)
	}
	if err != nil {
		return Input{}, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	return in, nil
}

// Marshal renders in as YAML, the format Load reads back most readably.
func Marshal(in Input) ([]byte, error) {
	return yaml.Marshal(in)
}

func parseJSON(data []byte) (Input, error) {
	in := Default()
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("%w: %v", investment.ErrInvalidInput, err)
	}
	return in, nil
}

func parseRepairedJSON(data []byte) (Input, error) {
	repaired, err := jsonrepair.RepairJSON(string(data))
	if err != nil {
		return Input{}, fmt.Errorf("%w: json repair: %v", investment.ErrInvalidInput, err)
	}
	return parseJSON([]byte(repaired))
}

// parseHJSON goes through a generic value and standard JSON so the json
// tags stay the single source of field names.
func parseHJSON(data []byte) (Input, error) {
	var generic interface{}
	if err := hjson.Unmarshal(data, &generic); err != nil {
		return Input{}, fmt.Errorf("%w: hjson: %v", investment.ErrInvalidInput, err)
	}
	if _, ok := generic.(map[string]interface{}); !ok {
		return Input{}, fmt.Errorf("%w: hjson: scenario must be an object", investment.ErrInvalidInput)
	}
	normalized, err := json.Marshal(generic)
	if err != nil {
		return Input{}, fmt.Errorf("%w: hjson: %v", investment.ErrInvalidInput, err)
	}
	return parseJSON(normalized)
}

func parseYAML(data []byte) (Input, error) {
	in := Default()
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("%w: yaml: %v", investment.ErrInvalidInput, err)
	}
	return in, nil
}

// stripFence removes an outer ``` block, as scenarios are often pasted from
// chat or markdown notes.
func stripFence(data []byte) []byte {
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return data
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{:") {
		s = s[i+1:] // language tag such as "json" or "yaml"
	}
	return []byte(s)
}
