package application

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/bulkedit/config"
	"github.com/rios0rios0/bulkedit/domain"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction"
	forgePkg "github.com/rios0rios0/bulkedit/infrastructure/forge"
)

// BatchService orchestrates one batch: select repositories, run each one
// through the mutation pipeline, report one outcome per repository.
type BatchService struct {
	forges     *forgePkg.Registry
	strategies *extraction.Registry
}

// NewBatchService creates a new service with the given registries.
func NewBatchService(
	forges *forgePkg.Registry,
	strategies *extraction.Registry,
) *BatchService {
	return &BatchService{
		forges:     forges,
		strategies: strategies,
	}
}

// ProgressFunc is invoked once per finished repository. Invocations are
// serialized; done counts finished repositories, total the selected set.
type ProgressFunc func(done, total int, outcome domain.RepositoryOutcome)

// RunOptions holds runtime options for a single batch run.
type RunOptions struct {
	DryRun    bool
	Verbose   bool
	Workers   int    // <=1 is the sequential baseline
	ForgeName string // If set, overrides the batch spec's forge (CLI override)
	Progress  ProgressFunc
}

// Run executes the batch and returns exactly one outcome per selected
// repository, in selection order. An error is returned only for batch-level
// problems (bad spec, unknown forge); per-repository trouble lands in the
// outcome list instead.
func (s *BatchService) Run(
	ctx context.Context,
	cfg *config.Config,
	spec domain.BatchSpec,
	opts RunOptions,
) ([]domain.RepositoryOutcome, error) {
	forge, selected, err := s.prepare(ctx, cfg, spec, opts)
	if err != nil {
		return nil, err
	}

	logger.Infof("Processing batch on forge: %s", forge.Name())
	if len(selected) == 0 {
		logger.Warnf("No repositories selected, nothing to do")
		return []domain.RepositoryOutcome{}, nil
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger.Infof("Processing %d repositories with %d worker(s)", len(selected), workers)

	outcomes := s.processAll(ctx, forge, selected, spec, opts, workers)

	success, skipped, failed := 0, 0, 0
	for _, outcome := range outcomes {
		switch outcome.Status {
		case domain.StatusSuccess:
			success++
		case domain.StatusSkipped:
			skipped++
		case domain.StatusFailed:
			failed++
		}
	}
	logger.Infof(
		"Batch complete: %d repos processed, %d succeeded, %d skipped, %d failed",
		len(outcomes), success, skipped, failed,
	)
	return outcomes, nil
}

// Select resolves the repositories the batch would target, in selection
// order, without processing any of them.
func (s *BatchService) Select(
	ctx context.Context,
	cfg *config.Config,
	spec domain.BatchSpec,
	opts RunOptions,
) ([]domain.Repository, error) {
	_, selected, err := s.prepare(ctx, cfg, spec, opts)
	if err != nil {
		return nil, err
	}
	return selected, nil
}

// prepare validates the batch spec, initializes the forge, and resolves the
// selected repository set shared by Run and Select.
func (s *BatchService) prepare(
	ctx context.Context,
	cfg *config.Config,
	spec domain.BatchSpec,
	opts RunOptions,
) (domain.Forge, []domain.Repository, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	if err := spec.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid batch spec: %w", err)
	}

	forgeName := spec.Forge
	if opts.ForgeName != "" {
		forgeName = opts.ForgeName
	}
	forgeCfg, ok := cfg.Forge(forgeName)
	if !ok {
		return nil, nil, fmt.Errorf("forge %q is not configured", forgeName)
	}
	forge, err := s.forges.Get(forgeName, forgeCfg.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize forge %q: %w", forgeName, err)
	}

	candidates := s.collectCandidates(ctx, forge, spec)
	return forge, s.filterCandidates(ctx, forge, candidates, spec.Selector), nil
}

// collectCandidates merges explicitly named repositories with organization
// discovery, deduplicated by full name in first-seen order. Discovery
// trouble for one organization is logged and never aborts the batch.
func (s *BatchService) collectCandidates(
	ctx context.Context,
	forge domain.Forge,
	spec domain.BatchSpec,
) []domain.Repository {
	var candidates []domain.Repository
	seen := make(map[string]bool)

	add := func(repo domain.Repository) {
		if seen[repo.FullName()] {
			return
		}
		seen[repo.FullName()] = true
		candidates = append(candidates, repo)
	}

	for _, full := range spec.Repositories {
		org, name, ok := strings.Cut(full, "/")
		if !ok {
			// Validate rejected these already; guard against direct calls.
			logger.Errorf("Ignoring repository %q: not in org/name form", full)
			continue
		}
		add(domain.Repository{
			Name:         name,
			Organization: org,
			ForgeName:    forge.Name(),
		})
	}

	for _, owner := range spec.Organizations {
		logger.Infof("Discovering repositories in %q...", owner)
		discovered, err := forge.ListRepositories(ctx, owner)
		if err != nil {
			logger.Errorf("Failed to discover repositories in %q: %v", owner, err)
			continue
		}
		logger.Infof("Found %d repositories in %q", len(discovered), owner)
		for _, repo := range discovered {
			add(repo)
		}
	}

	return candidates
}

// filterCandidates applies the batch selector. A repository whose check
// errors is logged and treated as not matching — selection never fails the
// batch.
func (s *BatchService) filterCandidates(
	ctx context.Context,
	forge domain.Forge,
	candidates []domain.Repository,
	selector *domain.RepositorySelector,
) []domain.Repository {
	if selector == nil {
		return candidates
	}

	kept := make([]domain.Repository, 0, len(candidates))
	for _, repo := range candidates {
		match, err := s.selectorMatches(ctx, forge, repo, selector)
		if err != nil {
			logger.Errorf("Selector check failed for %s: %v", repo.FullName(), err)
			continue
		}
		if match {
			kept = append(kept, repo)
		}
	}
	logger.Infof("Selector kept %d of %d repositories", len(kept), len(candidates))
	return kept
}

func (s *BatchService) selectorMatches(
	ctx context.Context,
	forge domain.Forge,
	repo domain.Repository,
	selector *domain.RepositorySelector,
) (bool, error) {
	switch selector.Kind {
	case domain.SelectorPath:
		var matched bool
		err := withBackoff(ctx, defaultCallTimeout, "selector fetch", func(callCtx context.Context) error {
			_, fetchErr := forge.FetchFile(callCtx, repo, selector.Value, "")
			if domain.IsGatewayNotFound(fetchErr) {
				matched = false
				return nil
			}
			matched = fetchErr == nil
			return fetchErr
		})
		return matched, err

	case domain.SelectorGlob:
		var files []domain.File
		err := withBackoff(ctx, defaultCallTimeout, "selector tree", func(callCtx context.Context) error {
			var listErr error
			files, listErr = forge.ListFiles(callCtx, repo, "")
			return listErr
		})
		if err != nil {
			return false, err
		}
		for _, file := range files {
			if file.IsDir {
				continue
			}
			target := file.Path
			if !strings.Contains(selector.Value, "/") {
				target = path.Base(file.Path)
			}
			if ok, _ := path.Match(selector.Value, target); ok {
				return true, nil
			}
		}
		return false, nil

	case domain.SelectorQuery:
		var paths []string
		err := withBackoff(ctx, defaultCallTimeout, "selector search", func(callCtx context.Context) error {
			var searchErr error
			paths, searchErr = forge.SearchCode(callCtx, repo, selector.Value)
			return searchErr
		})
		if err != nil {
			return false, err
		}
		return len(paths) > 0, nil

	default:
		return false, fmt.Errorf("unknown selector kind %q", selector.Kind)
	}
}

// processAll runs every selected repository through the pipeline. Outcomes
// land at each repository's input index, so the reported order is input
// order regardless of completion order.
func (s *BatchService) processAll(
	ctx context.Context,
	forge domain.Forge,
	repos []domain.Repository,
	spec domain.BatchSpec,
	opts RunOptions,
	workers int,
) []domain.RepositoryOutcome {
	resolver := NewPlaceholderResolver(forge, s.strategies)
	pipeline := NewMutationPipeline(forge, resolver)

	outcomes := make([]domain.RepositoryOutcome, len(repos))
	total := len(repos)

	var mu sync.Mutex
	done := 0
	report := func(index int, outcome domain.RepositoryOutcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes[index] = outcome
		done++
		if opts.Progress != nil {
			opts.Progress(done, total, outcome)
		}
	}

	if workers == 1 {
		for i, repo := range repos {
			report(i, s.processOne(ctx, pipeline, repo, spec, opts))
		}
		return outcomes
	}

	var group errgroup.Group
	group.SetLimit(workers)
	for i, repo := range repos {
		group.Go(func() error {
			report(i, s.processOne(ctx, pipeline, repo, spec, opts))
			return nil
		})
	}
	_ = group.Wait()
	return outcomes
}

// processOne is the per-repository isolation boundary: a panic inside the
// pipeline becomes a Failed outcome with no stage attribution, and a batch
// cancellation before the repository starts becomes a Skipped outcome.
// In-flight repositories are allowed to finish.
func (s *BatchService) processOne(
	ctx context.Context,
	pipeline *MutationPipeline,
	repo domain.Repository,
	spec domain.BatchSpec,
	opts RunOptions,
) (outcome domain.RepositoryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[batch] %s: pipeline panicked: %v", repo.FullName(), r)
			outcome = domain.RepositoryOutcome{
				Repository:  repo.FullName(),
				Status:      domain.StatusFailed,
				ErrorDetail: fmt.Sprintf("pipeline panicked: %v", r),
			}
		}
	}()

	if ctx.Err() != nil {
		return domain.RepositoryOutcome{
			Repository:  repo.FullName(),
			Status:      domain.StatusSkipped,
			ErrorDetail: "batch canceled before this repository started",
		}
	}

	return pipeline.Process(ctx, repo, spec.Placeholders, spec.Action, opts.DryRun)
}
