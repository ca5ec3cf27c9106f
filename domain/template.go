package domain

import "regexp"

// placeholderToken matches {{name}} with optional inner spaces. The name
// charset mirrors placeholderNamePattern, so literal double braces around
// anything else pass through untouched.
var placeholderToken = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Render substitutes {{name}} tokens in template using the resolved
// mapping. Known names are replaced by their value (null substitutes as the
// empty string); unknown names stay verbatim, since a user may legitimately
// type literal double braces. Substitution is single-pass: a value inserted
// by one substitution is never itself re-scanned for further tokens.
func Render(template string, placeholders ResolvedPlaceholders) string {
	return placeholderToken.ReplaceAllStringFunc(template, func(token string) string {
		name := placeholderToken.FindStringSubmatch(token)[1]
		value, ok := placeholders.Value(name)
		if !ok {
			return token
		}
		return value
	})
}

// RenderAction instantiates an ActionSpec for one repository using a single
// placeholder snapshot. Rendering is two-phase: the file path and content
// are rendered first, then the rendered path is exposed as {{file_path}}
// for the branch name, base branch, commit message, and PR fields. The
// given snapshot is not modified.
func RenderAction(spec ActionSpec, placeholders ResolvedPlaceholders) RenderedAction {
	rendered := RenderedAction{
		Kind:     spec.Kind,
		FilePath: Render(spec.FilePath, placeholders),
		Content:  Render(spec.Content, placeholders),
	}

	if spec.Search != nil {
		rendered.Search = &SearchReplace{
			Pattern:     Render(spec.Search.Pattern, placeholders),
			Replacement: Render(spec.Search.Replacement, placeholders),
			UseRegex:    spec.Search.UseRegex,
			ReplaceAll:  spec.Search.ReplaceAll,
		}
	}

	extended := placeholders.Clone()
	extended.Set(PlaceholderFilePath, rendered.FilePath)

	rendered.BranchName = Render(spec.BranchName, extended)
	rendered.BaseBranch = Render(spec.BaseBranch, extended)
	rendered.PRTitle = Render(spec.PRTitle, extended)
	rendered.PRBody = Render(spec.PRBody, extended)
	rendered.CommitMessage = Render(spec.CommitMessage, extended)

	return rendered
}
