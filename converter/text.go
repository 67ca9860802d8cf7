package converter

import (
	"strings"
	"unicode"

	"github.com/rgonek/html2md/dom"
	"golang.org/x/text/unicode/norm"
)

// structuralTags hold only element children; whitespace text inside them is layout.
var structuralTags = []string{"ul", "ol", "dl", "table", "thead", "tbody", "tfoot", "tr", "html", "head", "body"}

var smartReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"–", "--",
	"—", "---",
	"…", "...",
)

// textRule is the catch-all. It renders text nodes, drops comments and
// applies the fallback policy to elements no other rule claimed.
type textRule struct{}

func (textRule) Match(dom.Node, *Options) bool { return true }

func (textRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	switch node.Kind() {
	case dom.TextNode:
		return Inline(renderText(node, rc)), nil
	case dom.ElementNode:
		return renderFallback(node, content, rc), nil
	case dom.CommentNode:
		return Fragment{}, nil
	default:
		return rc.Children(), nil
	}
}

func renderText(node dom.Node, rc *RenderContext) string {
	text := node.Text()
	if rc.preserve {
		return text
	}

	if parent, ok := node.Parent(); ok && parent.IsElement(structuralTags...) && strings.TrimSpace(text) == "" {
		return ""
	}

	text = collapseWhitespace(text)
	if enabled(rc.opts.SmartPunctuation) {
		text = smartPunctuation(text)
	}
	return escapeMarkdown(text, rc.lineStart, enabled(rc.opts.Strikethrough))
}

func collapseWhitespace(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	space := false
	for _, r := range text {
		if isHTMLSpace(r) {
			if !space {
				sb.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func isHTMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

func smartPunctuation(text string) string {
	return norm.NFC.String(smartReplacer.Replace(text))
}

// escapeMarkdown backslash-escapes characters that would otherwise be read
// as Markdown syntax. lineStart enables the checks that only apply at the
// beginning of a line.
func escapeMarkdown(text string, lineStart, strikethrough bool) string {
	runes := []rune(text)
	var sb strings.Builder
	sb.Grow(len(text) + 8)

	lead := 0
	for lead < len(runes) && runes[lead] == ' ' {
		lead++
	}
	escapeAt := -1
	if lineStart {
		escapeAt = lineStartEscape(runes, lead)
	}

	for i, r := range runes {
		if i == escapeAt {
			sb.WriteByte('\\')
			sb.WriteRune(r)
			continue
		}
		switch r {
		case '\\', '*', '`', '[', ']':
			sb.WriteByte('\\')
		case '_':
			if !(i > 0 && i+1 < len(runes) && isAlnum(runes[i-1]) && isAlnum(runes[i+1])) {
				sb.WriteByte('\\')
			}
		case '(':
			if i > 0 && runes[i-1] == ']' {
				sb.WriteByte('\\')
			}
		case '~':
			if strikethrough {
				sb.WriteByte('\\')
			}
		case '<':
			if i+1 < len(runes) && isTagStart(runes[i+1]) {
				sb.WriteByte('\\')
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// lineStartEscape returns the index of the rune that must be escaped so the
// line is not read as a block construct, or -1.
func lineStartEscape(runes []rune, at int) int {
	if at >= len(runes) {
		return -1
	}
	rest := runes[at:]
	switch rest[0] {
	case '#', '>':
		return at
	case '+', '-':
		if len(rest) == 1 || rest[1] == ' ' {
			return at
		}
		if rest[0] == '-' && isRuleRun(rest) {
			return at
		}
	case '=':
		if isRuleRun(rest) {
			return at
		}
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits <= 9 && digits < len(rest) && (rest[digits] == '.' || rest[digits] == ')') {
		if digits+1 == len(rest) || rest[digits+1] == ' ' {
			return at + digits
		}
	}
	return -1
}

// isRuleRun reports whether the line is a run of one character, optionally
// with spaces, which Markdown reads as a setext underline or thematic break.
func isRuleRun(rest []rune) bool {
	c := rest[0]
	for _, r := range rest {
		if r != c && r != ' ' {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isTagStart(r rune) bool {
	return r == '/' || r == '!' || r == '?' || (r < unicode.MaxASCII && unicode.IsLetter(r))
}
