package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Repository represents a Git repository on any hosting forge.
type Repository struct {
	ID            string
	Name          string
	Organization  string
	DefaultBranch string
	WebURL        string
	ForgeName     string
}

// FullName returns the "organization/name" form used in reports and logs.
func (r Repository) FullName() string {
	if r.Organization == "" {
		return r.Name
	}
	return r.Organization + "/" + r.Name
}

// File represents a file entry within a repository tree.
type File struct {
	Path     string
	ObjectID string
	IsDir    bool
}

// ExtractionStrategyKind identifies how a placeholder value is extracted
// from a source document.
type ExtractionStrategyKind string

const (
	StrategyRegex    ExtractionStrategyKind = "regex"
	StrategyJSONPath ExtractionStrategyKind = "jsonpath"
	StrategyYAMLPath ExtractionStrategyKind = "yamlpath"
	StrategyHCLAttr  ExtractionStrategyKind = "hclattr"
	StrategyGoMod    ExtractionStrategyKind = "gomod"
)

// StringList unmarshals from either a single YAML scalar or a sequence of
// scalars, so batch files may write `candidate_paths: appVersion` as well
// as the list form.
type StringList []string

// UnmarshalYAML implements scalar-or-sequence decoding.
func (s *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = StringList{single}
		return nil
	}

	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}
	*s = many
	return nil
}

// StrategyConfig carries the kind-specific extraction settings. Only the
// fields belonging to the definition's strategy kind are consulted; the
// rest stay at their zero values. Validate enforces that per kind before
// a batch starts.
type StrategyConfig struct {
	// Regex
	Pattern    string `yaml:"pattern,omitempty"`
	GroupIndex *int   `yaml:"group_index,omitempty"` // nil = 1; 0 selects the whole match

	// JSONPath
	Expression string `yaml:"expression,omitempty"`

	// YAMLPath
	CandidatePaths StringList `yaml:"candidate_paths,omitempty"`

	// HCLAttr
	BlockType   string   `yaml:"block_type,omitempty"`
	BlockLabels []string `yaml:"block_labels,omitempty"`
	Attribute   string   `yaml:"attribute,omitempty"`

	// GoMod
	Module string `yaml:"module,omitempty"`
}

// placeholderNamePattern restricts placeholder names to the token charset
// recognized by the template engine.
var placeholderNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// PlaceholderDefinition describes one named value to extract per repository
// before rendering the action. Immutable once the batch starts.
type PlaceholderDefinition struct {
	Name           string                 `yaml:"name"`
	SourceFilePath string                 `yaml:"source_file"`
	BranchHint     string                 `yaml:"branch,omitempty"` // empty = repository default branch
	Strategy       ExtractionStrategyKind `yaml:"strategy"`
	Config         StrategyConfig         `yaml:",inline"`
}

// Validate checks the definition shape, including the strategy config for
// the declared kind, so malformed definitions fail before any repository
// is touched.
func (d PlaceholderDefinition) Validate() error {
	if !placeholderNamePattern.MatchString(d.Name) {
		return fmt.Errorf("placeholder name %q must match [A-Za-z0-9_]+", d.Name)
	}
	if d.SourceFilePath == "" {
		return fmt.Errorf("placeholder %q: source_file is required", d.Name)
	}

	switch d.Strategy {
	case StrategyRegex:
		if d.Config.Pattern == "" {
			return fmt.Errorf("placeholder %q: regex strategy requires a pattern", d.Name)
		}
		if _, err := regexp.Compile(d.Config.Pattern); err != nil {
			return fmt.Errorf("placeholder %q: invalid pattern: %w", d.Name, err)
		}
		if d.Config.GroupIndex != nil && *d.Config.GroupIndex < 0 {
			return fmt.Errorf("placeholder %q: group_index must be >= 0", d.Name)
		}
	case StrategyJSONPath:
		if d.Config.Expression == "" {
			return fmt.Errorf("placeholder %q: jsonpath strategy requires an expression", d.Name)
		}
	case StrategyYAMLPath:
		if len(d.Config.CandidatePaths) == 0 {
			return fmt.Errorf("placeholder %q: yamlpath strategy requires candidate_paths", d.Name)
		}
	case StrategyHCLAttr:
		if d.Config.Attribute == "" {
			return fmt.Errorf("placeholder %q: hclattr strategy requires an attribute", d.Name)
		}
	case StrategyGoMod:
		// Module may be empty — that selects the go directive.
	default:
		return fmt.Errorf("placeholder %q: unknown strategy %q", d.Name, d.Strategy)
	}

	return nil
}

// Built-in placeholder names injected for every repository. User-defined
// placeholders with the same name take precedence.
const (
	PlaceholderRepoName          = "repo_name"
	PlaceholderRepoFullName      = "repo_full_name"
	PlaceholderRepoDefaultBranch = "repo_default_branch"
	PlaceholderTimestamp         = "timestamp"

	// PlaceholderFilePath is set to the rendered file path between the two
	// render phases, so branch names and PR text can reference it.
	PlaceholderFilePath = "file_path"

	// TimestampLayout is the format of the timestamp built-in.
	TimestampLayout = "20060102-150405"
)

// ResolvedPlaceholders maps placeholder names to their extracted values for
// one repository. A nil value records a placeholder that resolved to null;
// it substitutes as the empty string.
type ResolvedPlaceholders map[string]*string

// Set stores a concrete value.
func (p ResolvedPlaceholders) Set(name, value string) {
	p[name] = &value
}

// SetNull records a placeholder that resolved to null.
func (p ResolvedPlaceholders) SetNull(name string) {
	p[name] = nil
}

// Value returns the substitution text for a name and whether the name is
// known at all. Null values substitute as the empty string.
func (p ResolvedPlaceholders) Value(name string) (string, bool) {
	v, ok := p[name]
	if !ok {
		return "", false
	}
	if v == nil {
		return "", true
	}
	return *v, true
}

// Clone returns an independent copy, used when a render phase needs to
// extend the mapping without touching the repository's snapshot.
func (p ResolvedPlaceholders) Clone() ResolvedPlaceholders {
	out := make(ResolvedPlaceholders, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ActionKind selects the file operation performed per repository.
type ActionKind string

const (
	ActionRemove ActionKind = "remove"
	ActionUpdate ActionKind = "update"
	ActionAdd    ActionKind = "add"
)

// SearchReplace switches an update action from whole-file overwrite to
// in-place rewriting of the existing content.
type SearchReplace struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	UseRegex    bool   `yaml:"use_regex,omitempty"`
	ReplaceAll  bool   `yaml:"replace_all,omitempty"`
}

// ActionSpec is the templated description of the change applied to every
// selected repository. Each field is rendered fresh per repository.
type ActionSpec struct {
	Kind          ActionKind     `yaml:"kind"`
	FilePath      string         `yaml:"file_path"`
	Content       string         `yaml:"content,omitempty"` // unused for remove
	BranchName    string         `yaml:"branch_name"`
	BaseBranch    string         `yaml:"base_branch,omitempty"` // empty = repository default branch
	PRTitle       string         `yaml:"pr_title"`
	PRBody        string         `yaml:"pr_body,omitempty"`
	CommitMessage string         `yaml:"commit_message"`
	Search        *SearchReplace `yaml:"search,omitempty"` // update only
}

// Validate checks the action shape before a batch starts.
func (a ActionSpec) Validate() error {
	switch a.Kind {
	case ActionRemove, ActionUpdate, ActionAdd:
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	if a.FilePath == "" {
		return fmt.Errorf("action %q: file_path is required", a.Kind)
	}
	if a.BranchName == "" {
		return fmt.Errorf("action %q: branch_name is required", a.Kind)
	}
	if a.CommitMessage == "" {
		return fmt.Errorf("action %q: commit_message is required", a.Kind)
	}
	if a.PRTitle == "" {
		return fmt.Errorf("action %q: pr_title is required", a.Kind)
	}
	if a.Kind != ActionRemove && a.Content == "" && a.Search == nil {
		return fmt.Errorf("action %q: content (or search) is required", a.Kind)
	}
	if a.Search != nil {
		if a.Kind != ActionUpdate {
			return fmt.Errorf("action %q: search mode is only valid for update", a.Kind)
		}
		if a.Search.Pattern == "" {
			return fmt.Errorf("action %q: search pattern is required", a.Kind)
		}
		if a.Search.UseRegex {
			if _, err := regexp.Compile(a.Search.Pattern); err != nil {
				return fmt.Errorf("action %q: invalid search pattern: %w", a.Kind, err)
			}
		}
	}
	return nil
}

// RenderedAction is an ActionSpec with every template field substituted for
// one specific repository. Never shared or mutated after creation.
type RenderedAction struct {
	Kind          ActionKind
	FilePath      string
	Content       string
	BranchName    string
	BaseBranch    string
	PRTitle       string
	PRBody        string
	CommitMessage string
	Search        *SearchReplace
}

// OutcomeStatus is the terminal state of one repository's pipeline run.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusSkipped OutcomeStatus = "skipped"
	StatusFailed  OutcomeStatus = "failed"
)

// PipelineStage names where in the pipeline a repository run ended.
type PipelineStage string

const (
	StagePlaceholderExtraction PipelineStage = "placeholder_extraction"
	StageRender                PipelineStage = "render"
	StageBranchCreation        PipelineStage = "branch_creation"
	StageFileOperation         PipelineStage = "file_operation"
	StagePullRequestCreation   PipelineStage = "pull_request_creation"
)

// RepositoryOutcome is the authoritative per-repository record of a batch.
// Exactly one is produced per selected repository.
type RepositoryOutcome struct {
	Repository     string
	Status         OutcomeStatus
	PullRequestURL string
	ErrorDetail    string
	Stage          PipelineStage // empty when not attributable to a stage
}

// BatchSpec is the declarative description of one batch: which forge,
// which repositories, which placeholders to resolve, and the action to
// apply. Loaded from YAML and validated before any repository is touched.
type BatchSpec struct {
	Forge         string                  `yaml:"forge"`
	Organizations []string                `yaml:"organizations,omitempty"`
	Repositories  []string                `yaml:"repositories,omitempty"` // "org/name"
	Selector      *RepositorySelector     `yaml:"selector,omitempty"`
	Placeholders  []PlaceholderDefinition `yaml:"placeholders,omitempty"`
	Action        ActionSpec              `yaml:"action"`
}

// Validate checks the whole batch: at least one repository source, unique
// well-formed placeholder definitions and a valid action, so a bad batch
// fails before the first gateway call.
func (b BatchSpec) Validate() error {
	if len(b.Organizations) == 0 && len(b.Repositories) == 0 {
		return fmt.Errorf("batch needs at least one organization or repository")
	}
	for _, full := range b.Repositories {
		org, name, ok := strings.Cut(full, "/")
		if !ok || org == "" || name == "" {
			return fmt.Errorf("repository %q must be in org/name form", full)
		}
	}

	seen := make(map[string]bool, len(b.Placeholders))
	for _, def := range b.Placeholders {
		if seen[def.Name] {
			return fmt.Errorf("duplicate placeholder name %q", def.Name)
		}
		seen[def.Name] = true
		if err := def.Validate(); err != nil {
			return err
		}
	}

	if b.Selector != nil {
		if err := b.Selector.Validate(); err != nil {
			return err
		}
	}
	return b.Action.Validate()
}

// SelectorKind identifies how candidate repositories are filtered before
// the batch runs.
type SelectorKind string

const (
	SelectorPath  SelectorKind = "path"  // exact file path exists
	SelectorGlob  SelectorKind = "glob"  // file name glob anywhere in the tree
	SelectorQuery SelectorKind = "query" // forge code search
)

// RepositorySelector filters the candidate repository set. A nil selector
// keeps every candidate.
type RepositorySelector struct {
	Kind  SelectorKind `yaml:"kind"`
	Value string       `yaml:"value"`
}

// Validate checks the selector shape.
func (s RepositorySelector) Validate() error {
	switch s.Kind {
	case SelectorPath, SelectorGlob, SelectorQuery:
	default:
		return fmt.Errorf("unknown selector kind %q", s.Kind)
	}
	if s.Value == "" {
		return fmt.Errorf("selector %q: value is required", s.Kind)
	}
	return nil
}
