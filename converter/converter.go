// Package converter renders HTML trees as Markdown through an ordered set of
// rules.
//
// Every node is rendered by the first registered rule that matches it. The
// catch-all text rule is registered last, so custom rules added with AddRule
// take precedence over it while built-in structural rules keep theirs.
// Rule registration must finish before the converter is used concurrently;
// conversions themselves share no mutable state.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rgonek/html2md/dom"
)

// Converter converts HTML to Markdown.
type Converter struct {
	user     Options
	opts     Options
	registry *Registry
	notices  []Warning
}

// New creates a converter. The dialect preset is merged under opts and the
// remaining unset values get built-in defaults.
func New(opts Options) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c := &Converter{
		user:     opts.clone(),
		registry: defaultRegistry(),
	}
	c.resolve()
	return c, nil
}

func (c *Converter) resolve() {
	resolved, known := resolveOptions(c.user)
	c.notices = nil
	if !known {
		message := fmt.Sprintf("unknown dialect %q; falling back to custom", c.user.Dialect)
		resolved.Logger.Warn("unknown dialect", "dialect", string(c.user.Dialect))
		c.notices = append(c.notices, Warning{Type: WarningUnknownDialect, Message: message})
		resolved.Dialect = DialectCustom
	}
	c.opts = resolved
}

func defaultRegistry() *Registry {
	r := NewRegistry()
	for _, entry := range defaultRules() {
		// Names are unique by construction.
		_ = r.Add(entry.Name, entry.Rule)
	}
	return r
}

func defaultRules() []NamedRule {
	return []NamedRule{
		{Name: "paragraph", Rule: paragraphRule{}},
		{Name: "heading", Rule: headingRule{}},
		{Name: "blockquote", Rule: blockquoteRule{}},
		{Name: "code-block", Rule: codeBlockRule{}},
		{Name: "unordered-list", Rule: listRule{ordered: false}},
		{Name: "ordered-list", Rule: listRule{ordered: true}},
		{Name: "task-list", Rule: taskListRule{}},
		{Name: "list-item", Rule: listItemRule{}},
		{Name: "horizontal-rule", Rule: horizontalRuleRule{}},
		{Name: "table", Rule: tableRule{}},
		{Name: "table-section", Rule: tableSectionRule{}},
		{Name: "table-row", Rule: tableRowRule{}},
		{Name: "table-cell", Rule: tableCellRule{}},
		{Name: "definition-list", Rule: definitionListRule{}},
		{Name: "definition-term", Rule: definitionTermRule{}},
		{Name: "definition-description", Rule: definitionDescriptionRule{}},
		{Name: "strong", Rule: newStrongRule()},
		{Name: "emphasis", Rule: newEmphasisRule()},
		{Name: "code", Rule: codeRule{}},
		{Name: "link", Rule: linkRule{}},
		{Name: "image", Rule: imageRule{}},
		{Name: "strikethrough", Rule: newStrikethroughRule()},
		{Name: "subscript", Rule: scriptRule{tag: "sub", delimiter: "~"}},
		{Name: "superscript", Rule: scriptRule{tag: "sup", delimiter: "^"}},
		{Name: "checkbox", Rule: checkboxRule{}},
		{Name: "line-break", Rule: lineBreakRule{}},
		{Name: textRuleName, Rule: textRule{}},
	}
}

const textRuleName = "text"

// Options returns a copy of the resolved options.
func (c *Converter) Options() Options {
	return c.opts.clone()
}

// Convert converts a full HTML document.
func (c *Converter) Convert(input []byte) (Result, error) {
	return c.ConvertWithContext(context.Background(), input, ConvertOptions{})
}

// ConvertString converts a full HTML document held in a string.
func (c *Converter) ConvertString(input string) (Result, error) {
	return c.Convert([]byte(input))
}

// ConvertWithContext converts a full HTML document. ctx and opts are handed
// to link and image hooks.
func (c *Converter) ConvertWithContext(ctx context.Context, input []byte, opts ConvertOptions) (Result, error) {
	tree, err := dom.Parse(bytes.NewReader(input))
	if err != nil {
		return Result{}, err
	}
	return c.convertTree(ctx, tree, opts)
}

// ConvertFragment converts a markup fragment, parsed as the content of the
// configured fragment root element.
func (c *Converter) ConvertFragment(fragment string) (Result, error) {
	return c.ConvertFragmentWithContext(context.Background(), fragment, ConvertOptions{})
}

// ConvertFragmentWithContext is ConvertFragment with hook context.
func (c *Converter) ConvertFragmentWithContext(ctx context.Context, fragment string, opts ConvertOptions) (Result, error) {
	tree, err := dom.ParseFragment(strings.NewReader(fragment), c.opts.FragmentRoot)
	if err != nil {
		return Result{}, err
	}
	return c.convertTree(ctx, tree, opts)
}

// ConvertTree converts an already-built tree. The tree is not modified.
func (c *Converter) ConvertTree(tree *dom.Tree) (Result, error) {
	return c.convertTree(context.Background(), tree, ConvertOptions{})
}

// ConvertWithOptions converts a document with per-call overrides. The
// receiver is left unchanged.
func (c *Converter) ConvertWithOptions(input []byte, override Options) (Result, error) {
	derived, err := c.WithOptions(override)
	if err != nil {
		return Result{}, err
	}
	return derived.Convert(input)
}

// WithOptions returns a new converter with override merged over the
// receiver's options. Custom rules are carried over.
func (c *Converter) WithOptions(override Options) (*Converter, error) {
	if err := override.Validate(); err != nil {
		return nil, err
	}

	derived := &Converter{
		user:     Merge(c.user, override),
		registry: c.registry.Clone(),
	}
	derived.resolve()
	return derived, nil
}

// AddRule registers a custom rule just ahead of the catch-all text rule, or
// last when the text rule was removed.
func (c *Converter) AddRule(name string, rule Rule) error {
	if idx := c.registry.Index(textRuleName); idx >= 0 {
		return c.registry.Insert(name, rule, idx)
	}
	return c.registry.Add(name, rule)
}

// InsertRule registers a rule at an explicit priority position.
func (c *Converter) InsertRule(name string, rule Rule, index int) error {
	return c.registry.Insert(name, rule, index)
}

// RemoveRule unregisters a rule by name.
func (c *Converter) RemoveRule(name string) error {
	return c.registry.Remove(name)
}

// Rules returns the registered rules in priority order.
func (c *Converter) Rules() []NamedRule {
	return c.registry.Rules()
}

func (c *Converter) convertTree(ctx context.Context, tree *dom.Tree, copts ConvertOptions) (Result, error) {
	if tree == nil {
		return Result{}, errors.New("tree is nil")
	}

	work := tree.Clone()
	preprocess(work, c.opts.Clean)

	root := work.Root()
	if root.Kind() == dom.DocumentNode {
		if body, ok := work.Body(); ok {
			root = body
		}
	}

	opts := c.opts
	w := &walker{registry: c.registry, opts: &opts}
	rc, err := w.rootContext(root, newRenderContext(ctx, &opts, copts.SourcePath))
	if err != nil {
		return Result{}, err
	}

	frag, err := w.renderChildren(root, rc)
	if err != nil {
		return Result{}, err
	}

	markdown := postprocess(frag.Text, rc.refs)

	var warnings []Warning
	warnings = append(warnings, c.notices...)
	warnings = append(warnings, rc.warnings.list()...)

	opts.Logger.Debug("converted document",
		"source", copts.SourcePath,
		"bytes", len(markdown),
		"references", len(rc.refs.entries()),
		"warnings", len(warnings),
	)

	return Result{Markdown: markdown, Warnings: warnings}, nil
}
