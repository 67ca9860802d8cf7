package converter

import (
	"errors"
	"fmt"

	"github.com/rgonek/html2md/dom"
)

// walker renders a tree by assigning exactly one rule to every node.
type walker struct {
	registry *Registry
	opts     *Options
}

// rootContext returns the context for the children of the conversion root.
// The root itself is not rendered, but a matching rule may still shape its
// children, so a fragment parsed inside a table or list keeps that nesting.
func (w *walker) rootContext(root dom.Node, rc *RenderContext) (*RenderContext, error) {
	if root.Kind() != dom.ElementNode {
		return rc, nil
	}
	match, err := w.registry.Match(root, w.opts)
	if err != nil {
		var noMatch *NoMatchError
		if errors.As(err, &noMatch) {
			return rc, nil
		}
		return nil, err
	}
	return w.extend(match, root, rc)
}

func (w *walker) renderChildren(node dom.Node, rc *RenderContext) (Fragment, error) {
	j := newJoiner(rc.preserve)
	for _, child := range node.Children() {
		childCtx := rc
		if lineStart := j.atLineStart(); child.Kind() == dom.TextNode && lineStart != rc.lineStart {
			line := *rc
			line.lineStart = lineStart
			childCtx = &line
		}
		frag, err := w.renderNode(child, childCtx)
		if err != nil {
			return Fragment{}, err
		}
		j.add(frag)
	}
	return j.fragment(), nil
}

func (w *walker) renderNode(node dom.Node, rc *RenderContext) (Fragment, error) {
	match, err := w.registry.Match(node, w.opts)
	if err != nil {
		return Fragment{}, err
	}

	childCtx, err := w.extend(match, node, rc)
	if err != nil {
		return Fragment{}, err
	}

	children, err := w.renderChildren(node, childCtx)
	if err != nil {
		return Fragment{}, err
	}

	return w.invoke(match, node, children, rc)
}

// extend returns the context for the children of node. A panic in the
// rule's Extend becomes a RuleError.
func (w *walker) extend(match NamedRule, node dom.Node, rc *RenderContext) (next *RenderContext, err error) {
	ext, ok := match.Rule.(ContextExtender)
	if !ok {
		return rc, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &RuleError{
				Rule: match.Name,
				Tag:  node.Tag(),
				Path: node.Path(),
				Err:  fmt.Errorf("extend panic: %v", r),
			}
		}
	}()

	if extended := ext.Extend(node, rc); extended != nil {
		return extended, nil
	}
	return rc, nil
}

// invoke calls the rule's Render. Errors and panics become a RuleError that
// names the rule and the node position.
func (w *walker) invoke(match NamedRule, node dom.Node, children Fragment, rc *RenderContext) (frag Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuleError{
				Rule: match.Name,
				Tag:  node.Tag(),
				Path: node.Path(),
				Err:  fmt.Errorf("panic: %v", r),
			}
		}
	}()

	call := *rc
	call.children = children
	frag, err = match.Rule.Render(node, children.Text, &call)
	if err != nil {
		var ruleErr *RuleError
		if errors.As(err, &ruleErr) {
			return Fragment{}, err
		}
		return Fragment{}, &RuleError{Rule: match.Name, Tag: node.Tag(), Path: node.Path(), Err: err}
	}
	return frag, nil
}
