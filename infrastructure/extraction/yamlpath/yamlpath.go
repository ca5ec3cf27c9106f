// Package yamlpath implements placeholder extraction over YAML documents
// using an ordered list of dot-path candidates.
package yamlpath

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/bulkedit/domain"
)

// Strategy implements domain.ExtractionStrategy for YAML dot-paths.
type Strategy struct{}

// New creates the YAML path extraction strategy.
func New() domain.ExtractionStrategy {
	return &Strategy{}
}

func (s *Strategy) Kind() domain.ExtractionStrategyKind { return domain.StrategyYAMLPath }

// Extract parses the document as YAML and tries each candidate path in
// order. The first candidate whose full segment chain resolves wins — an
// explicit null counts as resolved and short-circuits the list. When no
// candidate resolves, the result is NotFound.
func (s *Strategy) Extract(document string, config domain.StrategyConfig) (*string, error) {
	var root any
	if err := yaml.Unmarshal([]byte(document), &root); err != nil {
		return nil, domain.NewMalformedDocument("invalid YAML: %v", err)
	}

	for _, candidate := range config.CandidatePaths {
		value, found := descend(root, candidate)
		if !found {
			continue
		}
		if value == nil {
			return nil, nil // explicit null resolves to null
		}
		if text, ok := scalarText(value); ok {
			return &text, nil
		}
		// A candidate landing on a mapping or sequence has no substitution
		// text; treat it as unresolved and keep trying.
	}

	return nil, domain.NewExtractionNotFound(
		"no candidate path resolved (tried %s)", strings.Join(config.CandidatePaths, ", "),
	)
}

// descend walks the decoded document by dot-separated segments. It reports
// whether the full chain resolved; an explicit null resolves to (nil, true).
func descend(root any, path string) (any, bool) {
	current := root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}
	return current, true
}

// scalarText renders a decoded YAML scalar as substitution text.
func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}
