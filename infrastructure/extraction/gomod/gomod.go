// Package gomod implements placeholder extraction over go.mod files: the
// version of a required module, or the go directive itself.
package gomod

import (
	"golang.org/x/mod/modfile"

	"github.com/rios0rios0/bulkedit/domain"
)

// Strategy implements domain.ExtractionStrategy for go.mod documents.
type Strategy struct{}

// New creates the go.mod extraction strategy.
func New() domain.ExtractionStrategy {
	return &Strategy{}
}

func (s *Strategy) Kind() domain.ExtractionStrategyKind { return domain.StrategyGoMod }

// Extract parses the document as a go.mod file. With Module set it returns
// the version of the matching require; with Module empty it returns the go
// directive version.
func (s *Strategy) Extract(document string, config domain.StrategyConfig) (*string, error) {
	file, err := modfile.Parse("go.mod", []byte(document), nil)
	if err != nil {
		return nil, domain.NewMalformedDocument("invalid go.mod: %v", err)
	}

	if config.Module == "" {
		if file.Go == nil || file.Go.Version == "" {
			return nil, domain.NewExtractionNotFound("no go directive found")
		}
		version := file.Go.Version
		return &version, nil
	}

	for _, require := range file.Require {
		if require.Mod.Path == config.Module {
			version := require.Mod.Version
			return &version, nil
		}
	}

	return nil, domain.NewExtractionNotFound("module %q not required", config.Module)
}
