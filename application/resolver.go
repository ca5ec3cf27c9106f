package application

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bulkedit/domain"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction"
)

// PlaceholderResolver evaluates the batch's placeholder definitions against
// one repository's content. Resolution is recomputed per repository and
// shares no state across repositories.
type PlaceholderResolver struct {
	content    domain.ContentGateway
	strategies *extraction.Registry
	timeout    time.Duration
}

// NewPlaceholderResolver creates a resolver reading through the given
// content gateway.
func NewPlaceholderResolver(
	content domain.ContentGateway,
	strategies *extraction.Registry,
) *PlaceholderResolver {
	return &PlaceholderResolver{
		content:    content,
		strategies: strategies,
		timeout:    defaultCallTimeout,
	}
}

// Resolve evaluates definitions in declaration order for one repository.
// Built-in placeholders are injected first; user definitions with the same
// name take precedence. Each definition fetches its source file at the
// definition's branch hint, falling back to branch and then the repository
// default branch (an empty ref lets the gateway use the forge default).
//
// A failed fetch or a malformed source document aborts the whole resolution
// with a domain.HardFailure — fatal for this repository, never for the
// batch. An extraction that finds nothing (or an explicit null) records the
// placeholder as null, which substitutes as the empty string.
func (r *PlaceholderResolver) Resolve(
	ctx context.Context,
	repo domain.Repository,
	branch string,
	definitions []domain.PlaceholderDefinition,
) (domain.ResolvedPlaceholders, error) {
	resolved := domain.ResolvedPlaceholders{}
	resolved.Set(domain.PlaceholderRepoName, repo.Name)
	resolved.Set(domain.PlaceholderRepoFullName, repo.FullName())
	resolved.Set(domain.PlaceholderRepoDefaultBranch, repo.DefaultBranch)
	resolved.Set(domain.PlaceholderTimestamp, time.Now().Format(domain.TimestampLayout))

	for _, def := range definitions {
		ref := def.BranchHint
		if ref == "" {
			ref = branch
		}
		if ref == "" {
			ref = repo.DefaultBranch
		}

		var file *domain.FileContent
		err := withBackoff(ctx, r.timeout, "fetch "+def.SourceFilePath, func(callCtx context.Context) error {
			var fetchErr error
			file, fetchErr = r.content.FetchFile(callCtx, repo, def.SourceFilePath, ref)
			return fetchErr
		})
		if err != nil {
			return nil, &domain.HardFailure{
				Placeholder: def.Name,
				Err:         fmt.Errorf("failed to fetch %q at %q: %w", def.SourceFilePath, ref, err),
			}
		}

		strategy, err := r.strategies.Get(def.Strategy)
		if err != nil {
			return nil, &domain.HardFailure{Placeholder: def.Name, Err: err}
		}

		value, err := strategy.Extract(file.Content, def.Config)
		switch {
		case err == nil && value != nil:
			resolved.Set(def.Name, *value)
		case err == nil:
			logger.Debugf("[resolve] %s: placeholder %q resolved to null", repo.FullName(), def.Name)
			resolved.SetNull(def.Name)
		case domain.IsExtractionNotFound(err):
			// Deliberately non-fatal: a value the document does not hold
			// substitutes as the empty string.
			logger.Debugf("[resolve] %s: placeholder %q not found: %v", repo.FullName(), def.Name, err)
			resolved.SetNull(def.Name)
		default:
			return nil, &domain.HardFailure{Placeholder: def.Name, Err: err}
		}
	}

	return resolved, nil
}
