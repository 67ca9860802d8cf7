package converter

import (
	"strings"

	"github.com/rgonek/html2md/dom"
)

// delimitedRule wraps content in a pair of delimiters, moving flanking
// whitespace outside so the delimiters stay attached to the text.
type delimitedRule struct {
	tags      []string
	delimiter func(opts *Options) string
	enabled   func(opts *Options) bool
}

func (r delimitedRule) Match(node dom.Node, opts *Options) bool {
	if r.enabled != nil && !r.enabled(opts) {
		return false
	}
	return node.IsElement(r.tags...)
}

func (r delimitedRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	delimiter := r.delimiter(rc.opts)
	if strings.HasPrefix(delimiter, "_") && intraword(node, content) {
		// Underscores inside a word are literal.
		delimiter = strings.ReplaceAll(delimiter, "_", "*")
	}
	return Inline(wrapDelimited(content, delimiter, delimiter)), nil
}

// intraword reports whether the rendered delimiters would touch a letter or
// digit of the neighbouring text.
func intraword(node dom.Node, content string) bool {
	if content == "" {
		return false
	}
	if prev, ok := node.PrevSibling(); ok && prev.Kind() == dom.TextNode && !startsWithSpace(content) {
		if r := []rune(prev.Text()); len(r) > 0 && isAlnum(r[len(r)-1]) {
			return true
		}
	}
	if next, ok := node.NextSibling(); ok && next.Kind() == dom.TextNode && !endsWithSpace(content) {
		if r := []rune(next.Text()); len(r) > 0 && isAlnum(r[0]) {
			return true
		}
	}
	return false
}

func startsWithSpace(s string) bool {
	return s[0] == ' ' || s[0] == '\n'
}

func endsWithSpace(s string) bool {
	return s[len(s)-1] == ' ' || s[len(s)-1] == '\n'
}

func wrapDelimited(content, open, closing string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		if content == "" {
			return ""
		}
		return " "
	}

	var sb strings.Builder
	if content[0] == ' ' || content[0] == '\n' {
		sb.WriteByte(' ')
	}
	sb.WriteString(open)
	sb.WriteString(trimmed)
	sb.WriteString(closing)
	if last := content[len(content)-1]; last == ' ' || last == '\n' {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func newStrongRule() Rule {
	return delimitedRule{
		tags:      []string{"strong", "b"},
		delimiter: func(opts *Options) string { return opts.StrongDelimiter },
	}
}

func newEmphasisRule() Rule {
	return delimitedRule{
		tags:      []string{"em", "i"},
		delimiter: func(opts *Options) string { return opts.EmDelimiter },
	}
}

func newStrikethroughRule() Rule {
	return delimitedRule{
		tags:      []string{"del", "s", "strike"},
		delimiter: func(*Options) string { return "~~" },
		enabled:   func(opts *Options) bool { return enabled(opts.Strikethrough) },
	}
}

// scriptRule renders sub and sup as inline HTML or as single-character
// delimiters when raw HTML is off.
type scriptRule struct {
	tag       string
	delimiter string
}

func (r scriptRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement(r.tag)
}

func (r scriptRule) Render(_ dom.Node, content string, rc *RenderContext) (Fragment, error) {
	if enabled(rc.opts.UseHTMLTags) {
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return Fragment{}, nil
		}
		return Inline("<" + r.tag + ">" + trimmed + "</" + r.tag + ">"), nil
	}
	return Inline(wrapDelimited(content, r.delimiter, r.delimiter)), nil
}

type codeRule struct{}

func (codeRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("code", "kbd", "samp", "tt")
}

func (codeRule) Render(node dom.Node, _ string, rc *RenderContext) (Fragment, error) {
	if rc.preserve {
		return Inline(node.TextContent()), nil
	}
	return Inline(inlineCode(node.TextContent())), nil
}

// inlineCode wraps raw text in a backtick run longer than any run inside it.
func inlineCode(text string) string {
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	if text == "" {
		return ""
	}

	delimiter := strings.Repeat("`", longestRun(text, '`')+1)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") {
		return delimiter + " " + text + " " + delimiter
	}
	return delimiter + text + delimiter
}

type lineBreakRule struct{}

func (lineBreakRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("br")
}

func (lineBreakRule) Render(node dom.Node, _ string, rc *RenderContext) (Fragment, error) {
	if rc.InTable() {
		if enabled(rc.opts.UseHTMLTags) {
			return Inline("<br>"), nil
		}
		return Inline(" "), nil
	}
	// A trailing break has nothing to break before it.
	if !hasFollowingContent(node) {
		return Fragment{}, nil
	}
	if rc.opts.BreakStyle == BreakSpaces {
		// A second break would leave a whitespace-only line, which ends the
		// paragraph.
		if followsBreak(node) {
			return Fragment{}, nil
		}
		return Inline("  \n"), nil
	}
	return Inline("\\\n"), nil
}

// followsBreak reports whether the previous sibling with content is a br.
func followsBreak(node dom.Node) bool {
	for prev, ok := node.PrevSibling(); ok; prev, ok = prev.PrevSibling() {
		switch prev.Kind() {
		case dom.ElementNode:
			return prev.IsElement("br")
		case dom.TextNode:
			if strings.TrimSpace(prev.Text()) != "" {
				return false
			}
		}
	}
	return false
}

func hasFollowingContent(node dom.Node) bool {
	for next, ok := node.NextSibling(); ok; next, ok = next.NextSibling() {
		switch next.Kind() {
		case dom.ElementNode:
			return true
		case dom.TextNode:
			if strings.TrimSpace(next.Text()) != "" {
				return true
			}
		}
	}
	return false
}
