// Package jsonpath implements placeholder extraction over JSON documents
// using a restricted dot-path expression (e.g. "spec.containers.0.image").
package jsonpath

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rios0rios0/bulkedit/domain"
)

// Strategy implements domain.ExtractionStrategy for JSON dot-paths.
type Strategy struct{}

// New creates the JSON path extraction strategy.
func New() domain.ExtractionStrategy {
	return &Strategy{}
}

func (s *Strategy) Kind() domain.ExtractionStrategyKind { return domain.StrategyJSONPath }

// Extract parses the document as JSON and descends the dot-separated
// expression. An absent node resolves to null (nil value, no error); a
// type-incompatible expression — indexing a scalar, or a non-numeric
// segment against an array — reports NotFound.
func (s *Strategy) Extract(document string, config domain.StrategyConfig) (*string, error) {
	decoder := json.NewDecoder(strings.NewReader(document))
	decoder.UseNumber()

	var root any
	if err := decoder.Decode(&root); err != nil {
		return nil, domain.NewMalformedDocument("invalid JSON: %v", err)
	}

	current := root
	for _, segment := range strings.Split(config.Expression, ".") {
		switch node := current.(type) {
		case map[string]any:
			value, ok := lookupKey(node, segment)
			if !ok {
				return nil, nil // absent node resolves to null
			}
			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil {
				return nil, domain.NewExtractionNotFound(
					"segment %q is not a valid array index", segment,
				)
			}
			if index < 0 || index >= len(node) {
				return nil, nil // out-of-range index is an absent node
			}
			current = node[index]
		default:
			return nil, domain.NewExtractionNotFound(
				"segment %q descends into a scalar", segment,
			)
		}
	}

	return scalarText(current, config.Expression)
}

// lookupKey fetches a map key with a case-insensitive fallback, matching
// the tolerant behavior users expect from loosely specified documents.
func lookupKey(node map[string]any, key string) (any, bool) {
	if value, ok := node[key]; ok {
		return value, true
	}
	for k, value := range node {
		if strings.EqualFold(k, key) {
			return value, true
		}
	}
	return nil, false
}

// scalarText renders the resolved node as substitution text. Only scalars
// have a text form; objects and arrays report NotFound.
func scalarText(value any, expression string) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case bool:
		text := strconv.FormatBool(v)
		return &text, nil
	case json.Number:
		text := v.String()
		return &text, nil
	default:
		// Objects and arrays have no substitution text.
		return nil, domain.NewExtractionNotFound(
			"expression %q does not resolve to a scalar", expression,
		)
	}
}
