package converter

import (
	"fmt"
	"slices"

	"github.com/rgonek/html2md/dom"
)

// Rule claims nodes and renders them to Markdown.
//
// Match must be a pure function of the node and options. Render receives the
// already-rendered Markdown of the node's children and the context of the
// node's parent.
type Rule interface {
	Match(node dom.Node, opts *Options) bool
	Render(node dom.Node, content string, rc *RenderContext) (Fragment, error)
}

// ContextExtender is implemented by rules that change the context seen by
// the children of a matched node.
type ContextExtender interface {
	Extend(node dom.Node, rc *RenderContext) *RenderContext
}

// RuleFunc adapts plain functions to the Rule interface.
type RuleFunc struct {
	MatchFunc  func(node dom.Node, opts *Options) bool
	RenderFunc func(node dom.Node, content string, rc *RenderContext) (Fragment, error)
	ExtendFunc func(node dom.Node, rc *RenderContext) *RenderContext
}

func (f RuleFunc) Match(node dom.Node, opts *Options) bool {
	if f.MatchFunc == nil {
		return false
	}
	return f.MatchFunc(node, opts)
}

func (f RuleFunc) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	if f.RenderFunc == nil {
		return Inline(content), nil
	}
	return f.RenderFunc(node, content, rc)
}

func (f RuleFunc) Extend(node dom.Node, rc *RenderContext) *RenderContext {
	if f.ExtendFunc == nil {
		return rc
	}
	return f.ExtendFunc(node, rc)
}

// NamedRule pairs a registered rule with its name.
type NamedRule struct {
	Name string
	Rule Rule
}

// Registry is an ordered list of uniquely named rules. The first rule whose
// Match accepts a node renders it.
type Registry struct {
	entries []NamedRule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Add appends a rule at the lowest priority.
func (r *Registry) Add(name string, rule Rule) error {
	return r.Insert(name, rule, len(r.entries))
}

// Insert places a rule at index, shifting later rules down. The index is
// clamped to the valid range.
func (r *Registry) Insert(name string, rule Rule, index int) error {
	if name == "" {
		return fmt.Errorf("rule name must not be empty")
	}
	if rule == nil {
		return fmt.Errorf("rule %q is nil", name)
	}
	if r.Index(name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, name)
	}

	index = max(0, min(index, len(r.entries)))
	r.entries = slices.Insert(r.entries, index, NamedRule{Name: name, Rule: rule})
	return nil
}

// Remove deletes a rule by name.
func (r *Registry) Remove(name string) error {
	idx := r.Index(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}
	r.entries = slices.Delete(r.entries, idx, idx+1)
	return nil
}

// Index returns the priority position of a rule, or -1.
func (r *Registry) Index(name string) int {
	return slices.IndexFunc(r.entries, func(e NamedRule) bool { return e.Name == name })
}

// Rules returns a snapshot of the registered rules in priority order.
func (r *Registry) Rules() []NamedRule {
	return slices.Clone(r.entries)
}

// Clone returns an independent registry with the same rules.
func (r *Registry) Clone() *Registry {
	return &Registry{entries: slices.Clone(r.entries)}
}

// Match returns the first rule that accepts node. A predicate that panics
// fails the match with a RuleError naming that rule.
func (r *Registry) Match(node dom.Node, opts *Options) (NamedRule, error) {
	for _, entry := range r.entries {
		ok, err := matchEntry(entry, node, opts)
		if err != nil {
			return NamedRule{}, err
		}
		if ok {
			return entry, nil
		}
	}
	return NamedRule{}, &NoMatchError{Tag: node.Tag(), Path: node.Path()}
}

func matchEntry(entry NamedRule, node dom.Node, opts *Options) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuleError{
				Rule: entry.Name,
				Tag:  node.Tag(),
				Path: node.Path(),
				Err:  fmt.Errorf("match panic: %v", r),
			}
		}
	}()
	return entry.Rule.Match(node, opts), nil
}
