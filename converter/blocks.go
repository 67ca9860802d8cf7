package converter

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rgonek/html2md/dom"
)

type paragraphRule struct{}

func (paragraphRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("p")
}

func (paragraphRule) Render(_ dom.Node, content string, _ *RenderContext) (Fragment, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return Fragment{}, nil
	}
	return Block(text), nil
}

type headingRule struct{}

func (headingRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("h1", "h2", "h3", "h4", "h5", "h6")
}

func (headingRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	// Headings are single-line constructs.
	text := strings.Join(strings.Fields(content), " ")
	if text == "" {
		return Fragment{}, nil
	}

	level := int(node.Tag()[1] - '0')
	if rc.opts.HeadingStyle == HeadingSetext && level <= 2 {
		underline := "="
		if level == 2 {
			underline = "-"
		}
		width := max(runewidth.StringWidth(text), 1)
		return Block(text + "\n" + strings.Repeat(underline, width)), nil
	}

	return Block(strings.Repeat("#", level) + " " + text), nil
}

type blockquoteRule struct{}

func (blockquoteRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("blockquote")
}

func (blockquoteRule) Extend(_ dom.Node, rc *RenderContext) *RenderContext {
	return rc.withQuote()
}

func (blockquoteRule) Render(_ dom.Node, content string, rc *RenderContext) (Fragment, error) {
	text := blockquoteContent(content, opensWithBlock(rc))
	if text == "" {
		return Fragment{}, nil
	}
	return Block(text), nil
}

// blockquoteContent prefixes every line with "> ". Empty lines get a bare
// ">" so the quote is not interrupted. Nested quotes compound.
func blockquoteContent(content string, block bool) string {
	content = trimBlockContent(content, block)
	if content == "" {
		return ""
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// opensWithBlock reports whether the children of the node being rendered
// start with a block, whose leading spaces may be part of its syntax.
func opensWithBlock(rc *RenderContext) bool {
	return rc.Children().Before > 0
}

// trimBlockContent drops surrounding blank lines and trailing spaces. Leading
// spaces are dropped only when the content opens with inline text, so an
// indented code block keeps its indentation.
func trimBlockContent(content string, block bool) string {
	content = strings.Trim(content, "\n")
	if !block {
		content = strings.TrimLeft(content, " ")
	}
	content = strings.TrimRight(content, " \n")
	if strings.TrimSpace(content) == "" {
		return ""
	}
	return content
}

type codeBlockRule struct{}

func (codeBlockRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("pre")
}

func (codeBlockRule) Extend(_ dom.Node, rc *RenderContext) *RenderContext {
	return rc.withPreserve()
}

func (codeBlockRule) Render(node dom.Node, _ string, rc *RenderContext) (Fragment, error) {
	code := strings.TrimRight(node.TextContent(), "\n")
	code = strings.TrimPrefix(code, "\n")

	if rc.opts.CodeBlockStyle == CodeBlockIndented {
		if strings.TrimSpace(code) == "" {
			return Fragment{}, nil
		}
		return Block(indentCode(code)), nil
	}

	fence := strings.Repeat("`", max(3, longestRun(code, '`')+1))
	var sb strings.Builder
	sb.WriteString(fence)
	sb.WriteString(codeLanguage(node))
	sb.WriteString("\n")
	if code != "" {
		sb.WriteString(code)
		sb.WriteString("\n")
	}
	sb.WriteString(fence)
	return Block(sb.String()), nil
}

func indentCode(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "    " + line
		}
	}
	return strings.Join(lines, "\n")
}

// codeLanguage reads a language-xxx or lang-xxx class from the pre element or
// its code child.
func codeLanguage(pre dom.Node) string {
	candidates := []dom.Node{pre}
	candidates = append(candidates, pre.ElementChildren("code")...)
	for _, node := range candidates {
		for _, class := range node.Classes() {
			for _, prefix := range []string{"language-", "lang-"} {
				if lang, ok := strings.CutPrefix(class, prefix); ok && lang != "" {
					return lang
				}
			}
		}
	}
	return ""
}

// longestRun returns the length of the longest run of c in s.
func longestRun(s string, c byte) int {
	longest, current := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			current++
			longest = max(longest, current)
			continue
		}
		current = 0
	}
	return longest
}

type horizontalRuleRule struct{}

func (horizontalRuleRule) Match(node dom.Node, _ *Options) bool {
	return node.IsElement("hr")
}

func (horizontalRuleRule) Render(dom.Node, string, *RenderContext) (Fragment, error) {
	return Block("---"), nil
}
