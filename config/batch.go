package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/bulkedit/domain"
)

// LoadBatchSpec reads and validates a batch file. Everything a batch run
// needs apart from credentials lives here: the target forge, the repository
// selection, the placeholder definitions and the action.
func LoadBatchSpec(path string) (*domain.BatchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %q: %w", path, err)
	}

	var spec domain.BatchSpec
	if unmarshalErr := yaml.Unmarshal(data, &spec); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", unmarshalErr)
	}

	if validateErr := spec.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid batch file %q: %w", path, validateErr)
	}

	return &spec, nil
}
