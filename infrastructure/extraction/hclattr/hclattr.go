// Package hclattr implements placeholder extraction over HCL documents
// (Terraform and friends), targeting a single attribute inside an optional
// labeled block.
package hclattr

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/rios0rios0/bulkedit/domain"
)

// Strategy implements domain.ExtractionStrategy for HCL attributes.
type Strategy struct{}

// New creates the HCL attribute extraction strategy.
func New() domain.ExtractionStrategy {
	return &Strategy{}
}

func (s *Strategy) Kind() domain.ExtractionStrategyKind { return domain.StrategyHCLAttr }

// Extract parses the document as HCL and returns the configured attribute.
// With an empty BlockType the attribute is read from the top level;
// otherwise the first block matching BlockType and BlockLabels is used.
// Only literal primitive values can be extracted — expressions referencing
// variables report NotFound.
func (s *Strategy) Extract(document string, config domain.StrategyConfig) (*string, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL([]byte(document), "source.tf")
	if diags.HasErrors() {
		return nil, domain.NewMalformedDocument("invalid HCL: %s", diags.Error())
	}
	if file.Body == nil {
		return nil, domain.NewExtractionNotFound("empty HCL document")
	}

	body, err := locateBody(file.Body, config)
	if err != nil {
		return nil, err
	}

	attrs, _ := body.JustAttributes()
	attr, ok := attrs[config.Attribute]
	if !ok {
		return nil, domain.NewExtractionNotFound("attribute %q not found", config.Attribute)
	}

	value, valueDiags := attr.Expr.Value(&hcl.EvalContext{})
	if valueDiags.HasErrors() {
		return nil, domain.NewExtractionNotFound(
			"attribute %q is not a literal value", config.Attribute,
		)
	}

	return primitiveText(value, config.Attribute)
}

// locateBody returns the body holding the target attribute: the document
// root, or the first block matching the configured type and labels.
func locateBody(root hcl.Body, config domain.StrategyConfig) (hcl.Body, error) {
	if config.BlockType == "" {
		return root, nil
	}

	labelNames := make([]string, len(config.BlockLabels))
	for i := range config.BlockLabels {
		labelNames[i] = "label"
	}

	content, _, diags := root.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: config.BlockType, LabelNames: labelNames},
		},
	})
	if diags.HasErrors() {
		return nil, domain.NewExtractionNotFound(
			"block %q not readable: %s", config.BlockType, diags.Error(),
		)
	}

	for _, block := range content.Blocks {
		if block.Type != config.BlockType {
			continue
		}
		if labelsMatch(block.Labels, config.BlockLabels) {
			return block.Body, nil
		}
	}

	return nil, domain.NewExtractionNotFound(
		"no %q block with labels [%s]", config.BlockType, strings.Join(config.BlockLabels, ", "),
	)
}

func labelsMatch(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// primitiveText renders a literal cty value as substitution text.
func primitiveText(value cty.Value, attribute string) (*string, error) {
	if value.IsNull() {
		return nil, nil
	}

	switch value.Type() {
	case cty.String:
		text := value.AsString()
		return &text, nil
	case cty.Number:
		text := value.AsBigFloat().Text('f', -1)
		return &text, nil
	case cty.Bool:
		text := "false"
		if value.True() {
			text = "true"
		}
		return &text, nil
	default:
		return nil, domain.NewExtractionNotFound(
			"attribute %q is not a primitive value", attribute,
		)
	}
}
