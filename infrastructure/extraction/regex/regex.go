// Package regex implements placeholder extraction through regular
// expression capture groups.
package regex

import (
	"regexp"

	"github.com/rios0rios0/bulkedit/domain"
)

// Strategy implements domain.ExtractionStrategy for regex capture.
type Strategy struct{}

// New creates the regex extraction strategy.
func New() domain.ExtractionStrategy {
	return &Strategy{}
}

func (s *Strategy) Kind() domain.ExtractionStrategyKind { return domain.StrategyRegex }

// Extract runs the configured pattern against the whole document and
// returns the requested capture group. An unset group index selects group
// 1; index 0 selects the whole match. A pattern that does not match, or a
// group that did not participate in the match, reports NotFound.
func (s *Strategy) Extract(document string, config domain.StrategyConfig) (*string, error) {
	pattern, err := regexp.Compile(config.Pattern)
	if err != nil {
		// Definitions are validated before a batch starts, so this only
		// happens when the strategy is called directly with a bad config.
		return nil, domain.NewExtractionNotFound("invalid pattern %q: %v", config.Pattern, err)
	}

	match := pattern.FindStringSubmatchIndex(document)
	if match == nil {
		return nil, domain.NewExtractionNotFound("pattern %q did not match", config.Pattern)
	}

	group := 1
	if config.GroupIndex != nil {
		group = *config.GroupIndex
	}
	if group*2+1 >= len(match) {
		return nil, domain.NewExtractionNotFound(
			"pattern %q has no capture group %d", config.Pattern, group,
		)
	}

	start, end := match[group*2], match[group*2+1]
	if start < 0 {
		// The group exists in the pattern but did not participate.
		return nil, domain.NewExtractionNotFound(
			"capture group %d did not participate in the match", group,
		)
	}

	value := document[start:end]
	return &value, nil
}
