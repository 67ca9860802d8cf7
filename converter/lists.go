package converter

import (
	"strconv"
	"strings"

	"github.com/rgonek/html2md/dom"
)

// listRule renders ul and ol. Items are rendered by the list-item rules using
// the frame pushed here.
type listRule struct {
	ordered bool
}

func (r listRule) Match(node dom.Node, _ *Options) bool {
	if r.ordered {
		return node.IsElement("ol")
	}
	return node.IsElement("ul")
}

func (r listRule) Extend(node dom.Node, rc *RenderContext) *RenderContext {
	if !r.ordered {
		return rc.withList(listFrame{})
	}

	frame := listFrame{ordered: true, start: 1}
	if raw, ok := node.Attr("start"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 0 {
			frame.start = n
		}
	}
	items := node.ElementChildren("li")
	frame.positions = make(map[dom.Node]int, len(items))
	for i, item := range items {
		frame.positions[item] = i
	}
	return rc.withList(frame)
}

func (r listRule) Render(node dom.Node, content string, _ *RenderContext) (Fragment, error) {
	text := strings.Trim(content, "\n")
	if strings.TrimSpace(text) == "" {
		return Fragment{}, nil
	}
	// A list nested in an item follows the item text on the next line.
	if parent, ok := node.Parent(); ok && parent.IsElement("li") {
		return LineFragment(text), nil
	}
	return Block(text), nil
}

type listItemRule struct{}

func (listItemRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("li")
}

func (listItemRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	marker := listMarker(node, rc)
	return LineFragment(listItemContent(content, marker, "", opensWithBlock(rc))), nil
}

// taskListRule renders an item whose first content is a checkbox as a GFM
// task item. It is registered before the plain list-item rule.
type taskListRule struct{}

func (taskListRule) Match(node dom.Node, opts *Options) bool {
	if !enabled(opts.TaskLists) || !node.IsElement("li") {
		return false
	}
	_, ok := taskCheckbox(node)
	return ok
}

func (taskListRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	box, _ := taskCheckbox(node)
	state := "[ ] "
	if box.HasAttr("checked") {
		state = "[x] "
	}
	return LineFragment(listItemContent(content, listMarker(node, rc), state, opensWithBlock(rc))), nil
}

// taskCheckbox finds a checkbox that opens an item, directly or as the first
// thing inside the item's first paragraph.
func taskCheckbox(item dom.Node) (dom.Node, bool) {
	first, ok := firstContentChild(item)
	if !ok {
		return dom.Node{}, false
	}
	if first.IsElement("p") {
		if first, ok = firstContentChild(first); !ok {
			return dom.Node{}, false
		}
	}
	if isCheckbox(first) {
		return first, true
	}
	return dom.Node{}, false
}

func firstContentChild(node dom.Node) (dom.Node, bool) {
	for _, child := range node.Children() {
		switch child.Kind() {
		case dom.ElementNode:
			return child, true
		case dom.TextNode:
			if strings.TrimSpace(child.Text()) != "" {
				return dom.Node{}, false
			}
		}
	}
	return dom.Node{}, false
}

func isCheckbox(node dom.Node) bool {
	return node.IsElement("input") && strings.EqualFold(node.AttrOr("type", ""), "checkbox")
}

// listMarker returns the marker for an item in the innermost list frame.
func listMarker(item dom.Node, rc *RenderContext) string {
	frame, ok := rc.list()
	if !ok || !frame.ordered {
		return rc.opts.BulletListMarker + " "
	}

	position, ok := frame.positions[item]
	if !ok {
		// An item wrapped in another element counts among its own siblings.
		if parent, found := item.Parent(); found {
			for _, sibling := range parent.ElementChildren("li") {
				if sibling == item {
					break
				}
				position++
			}
		}
	}
	return strconv.Itoa(frame.start+position) + ". "
}

// listItemContent prefixes the first line with marker and state and indents
// continuation lines to the marker width.
func listItemContent(content, marker, state string, block bool) string {
	content = trimBlockContent(content, block)
	if content == "" {
		return strings.TrimRight(marker+state, " ")
	}
	return indent(content, marker, state)
}

// indent applies uniform indentation to content within a list item.
// The first line is prefixed with the marker, subsequent lines with spaces matching marker length.
func indent(content, marker, state string) string {
	lines := strings.Split(content, "\n")
	indentStr := strings.Repeat(" ", len(marker))

	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = marker + state + line
		case line == "":
			lines[i] = ""
		default:
			lines[i] = indentStr + line
		}
	}
	return strings.Join(lines, "\n")
}

type checkboxRule struct{}

func (checkboxRule) Match(node dom.Node, _ *Options) bool {
	return isCheckbox(node)
}

func (checkboxRule) Render(node dom.Node, _ string, rc *RenderContext) (Fragment, error) {
	if enabled(rc.opts.TaskLists) && inTaskItem(node) {
		// The item rule renders the state.
		return Fragment{}, nil
	}
	if node.HasAttr("checked") {
		return Inline("[x] "), nil
	}
	return Inline("[ ] "), nil
}

func inTaskItem(box dom.Node) bool {
	item, ok := box.Closest("li")
	if !ok {
		return false
	}
	found, ok := taskCheckbox(item)
	return ok && found == box
}

type definitionListRule struct{}

func (definitionListRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("dl")
}

func (definitionListRule) Render(_ dom.Node, content string, _ *RenderContext) (Fragment, error) {
	text := strings.Trim(content, "\n ")
	if text == "" {
		return Fragment{}, nil
	}
	return Block(text), nil
}

type definitionTermRule struct{}

func (definitionTermRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("dt")
}

func (definitionTermRule) Render(_ dom.Node, content string, _ *RenderContext) (Fragment, error) {
	text := strings.Join(strings.Fields(content), " ")
	if text == "" {
		return Fragment{}, nil
	}
	return LineFragment(text), nil
}

type definitionDescriptionRule struct{}

func (definitionDescriptionRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("dd")
}

func (definitionDescriptionRule) Render(_ dom.Node, content string, rc *RenderContext) (Fragment, error) {
	text := trimBlockContent(content, opensWithBlock(rc))
	if text == "" {
		return Fragment{}, nil
	}
	return LineFragment(indent(text, ": ", "")), nil
}
