package domain

// ExtractionStrategy maps a source document to a scalar placeholder value.
// Implementations are pure: they never fetch content themselves — the file
// is fetched once by the resolver and handed in as text.
type ExtractionStrategy interface {
	// Kind returns the strategy identifier this implementation handles.
	Kind() ExtractionStrategyKind

	// Extract evaluates the document with the kind-specific config. A nil
	// result with a nil error means the value resolved to null (substituted
	// as the empty string). Failures are reported as *ExtractionError.
	Extract(document string, config StrategyConfig) (*string, error)
}
