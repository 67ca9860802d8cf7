package converter

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ruleCase struct {
	name     string
	opts     Options
	input    string
	expected string
	warnings []WarningType
}

func runRuleCases(t *testing.T, tests []ruleCase) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertFragment(t, tt.opts, tt.input)
			assert.Equal(t, tt.expected, result.Markdown)

			var types []WarningType
			for _, w := range result.Warnings {
				types = append(types, w.Type)
			}
			assert.Equal(t, tt.warnings, types)
		})
	}
}

var (
	customOpts   = Options{Dialect: DialectCustom}
	setextOpts   = Options{HeadingStyle: HeadingSetext}
	indentedOpts = Options{CodeBlockStyle: CodeBlockIndented}
)

func TestHeadingRule(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "atx", input: "<h3>Title</h3>", expected: "### Title"},
		{name: "inline content", input: "<h1>A <em>b</em></h1>", expected: "# A *b*"},
		{name: "single line", input: "<h2>  multi\n line </h2>", expected: "## multi line"},
		{name: "empty heading dropped", input: "<h2> </h2><p>x</p>", expected: "x"},
		{name: "setext h1", opts: setextOpts, input: "<h1>Title</h1>", expected: "Title\n====="},
		{name: "setext h2", opts: setextOpts, input: "<h2>Sub</h2>", expected: "Sub\n---"},
		{name: "setext wide runes", opts: setextOpts, input: "<h1>日本</h1>", expected: "日本\n===="},
		{name: "setext falls back for h3", opts: setextOpts, input: "<h3>x</h3>", expected: "### x"},
	})
}

func TestParagraphAndRuleRules(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "paragraphs", input: "<p>a</p><p>b</p>", expected: "a\n\nb"},
		{name: "empty paragraph", input: "<p>a</p><p>  </p><p>b</p>", expected: "a\n\nb"},
		{name: "horizontal rule", input: "<p>a</p><hr><p>b</p>", expected: "a\n\n---\n\nb"},
		{name: "text between blocks", input: "<p>a</p>b<p>c</p>", expected: "a\n\nb\n\nc"},
	})
}

func TestTextAfterBlockStartsLine(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "bullet after paragraph", input: "<p>x</p>- item", expected: "x\n\n\\- item"},
		{name: "heading after paragraph", input: "<p>x</p># nope", expected: "x\n\n\\# nope"},
		{name: "number after dropped div", opts: customOpts, input: "<div><span>x</span></div>1. one", expected: "x\n\n1\\. one"},
		{name: "source whitespace before text", input: "<p>x</p>\n+ y", expected: "x\n\n\\+ y"},
		{name: "after heading", input: "<h2>t</h2>> q", expected: "## t\n\n\\> q"},
		{name: "inside item after paragraph", input: "<ul><li><p>a</p>- b</li></ul>", expected: "- a\n\n  \\- b"},
		{name: "mid-line text unescaped", input: "<p>a <em>b</em> - c</p>", expected: "a *b* - c"},
	})
}

func TestBlockquoteRule(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{
			name:     "single",
			input:    "<blockquote><p>a</p><p>b</p></blockquote>",
			expected: "> a\n>\n> b",
		},
		{
			name:     "nested",
			input:    "<blockquote><p>a</p><blockquote><p>b</p></blockquote></blockquote>",
			expected: "> a\n>\n> > b",
		},
		{
			name:     "inline content",
			input:    "<blockquote>quoted <strong>text</strong></blockquote>",
			expected: "> quoted **text**",
		},
		{
			name:     "empty",
			input:    "<blockquote> </blockquote><p>x</p>",
			expected: "x",
		},
		{
			name:     "indented code",
			opts:     indentedOpts,
			input:    "<blockquote><pre>code</pre></blockquote>",
			expected: ">     code",
		},
		{
			name:     "indented code after source whitespace",
			opts:     indentedOpts,
			input:    "<blockquote>\n<pre>a\nb</pre>\n</blockquote>",
			expected: ">     a\n>     b",
		},
		{
			name:     "leading text space trimmed",
			input:    "<blockquote> a</blockquote>",
			expected: "> a",
		},
	})
}

func TestCodeRules(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{
			name:     "fenced",
			input:    "<pre><code>a := 1\nb := 2\n</code></pre>",
			expected: "```\na := 1\nb := 2\n```",
		},
		{
			name:     "language class",
			input:    `<pre><code class="language-go">x := 1</code></pre>`,
			expected: "```go\nx := 1\n```",
		},
		{
			name:     "lang class on pre",
			input:    `<pre class="lang-sh">ls</pre>`,
			expected: "```sh\nls\n```",
		},
		{
			name:     "embedded fence",
			input:    "<pre><code>a ``` b</code></pre>",
			expected: "````\na ``` b\n````",
		},
		{
			name:     "blank lines kept",
			input:    "<pre>a\n\n\n\nb</pre>",
			expected: "```\na\n\n\n\nb\n```",
		},
		{
			name:     "markup is not escaped",
			input:    "<pre><code>*x* &lt;b&gt;</code></pre>",
			expected: "```\n*x* <b>\n```",
		},
		{
			name:     "indented",
			opts:     indentedOpts,
			input:    "<pre>a\n\nb</pre>",
			expected: "    a\n\n    b",
		},
		{
			name:     "inline code",
			input:    "<p>use <code>a*b</code></p>",
			expected: "use `a*b`",
		},
		{
			name:     "inline code with backtick",
			input:    "<p><code>a`b</code></p>",
			expected: "``a`b``",
		},
		{
			name:     "inline code with edge backtick",
			input:    "<p><code>`x`</code></p>",
			expected: "`` `x` ``",
		},
		{
			name:     "kbd",
			input:    "<p>press <kbd>Ctrl</kbd></p>",
			expected: "press `Ctrl`",
		},
	})
}

func TestInlineRules(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "strong", input: "<p><strong>a</strong> <b>b</b></p>", expected: "**a** **b**"},
		{name: "emphasis", input: "<p><em>a</em> <i>b</i></p>", expected: "*a* *b*"},
		{name: "custom delimiters", opts: Options{EmDelimiter: "_", StrongDelimiter: "__"}, input: "<p><em>a</em><strong>b</strong></p>", expected: "_a___b__"},
		{name: "flanking whitespace moves out", input: "<p>a<em> b </em>c</p>", expected: "a *b* c"},
		{name: "empty emphasis", input: "<p>a<em></em>b</p>", expected: "ab"},
		{name: "strikethrough", input: "<p><del>a</del> <s>b</s></p>", expected: "~~a~~ ~~b~~"},
		{name: "strikethrough off", opts: customOpts, input: "<p><del>a</del></p>", expected: "a"},
		{name: "sub and sup as html", input: "<p>H<sub>2</sub>O x<sup>2</sup></p>", expected: "H<sub>2</sub>O x<sup>2</sup>"},
		{name: "sub and sup as delimiters", opts: customOpts, input: "<p>H<sub>2</sub>O x<sup>2</sup></p>", expected: "H~2~O x^2^"},
		{name: "nested", input: "<p><strong>a <em>b</em></strong></p>", expected: "**a *b***"},
		{name: "intraword underscore emphasis", opts: Options{EmDelimiter: "_"}, input: "<p>foo<em>bar</em>baz</p>", expected: "foo*bar*baz"},
		{name: "intraword underscore strong", opts: Options{StrongDelimiter: "__"}, input: "<p>a<strong>b</strong> c</p>", expected: "a**b** c"},
		{name: "underscore between spaces", opts: Options{EmDelimiter: "_"}, input: "<p>a <em>b</em> c</p>", expected: "a _b_ c"},
		{name: "underscore after punctuation", opts: Options{EmDelimiter: "_"}, input: "<p>(<em>b</em>)</p>", expected: "(_b_)"},
	})
}

func TestLineBreakRule(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "backslash", input: "<p>a<br>b</p>", expected: "a\\\nb"},
		{name: "spaces", opts: Options{BreakStyle: BreakSpaces}, input: "<p>a<br>b</p>", expected: "a  \nb"},
		{name: "trailing break dropped", input: "<p>a<br></p>", expected: "a"},
		{name: "trailing break before whitespace", input: "<p>a<br> </p>", expected: "a"},
		{name: "escapes after break", input: "<p>a<br># b</p>", expected: "a\\\n\\# b"},
		{name: "repeated spaces break collapses", opts: Options{BreakStyle: BreakSpaces}, input: "<p>a<br><br>b</p>", expected: "a  \nb"},
		{name: "repeated spaces break with whitespace", opts: Options{BreakStyle: BreakSpaces}, input: "<p>a<br> <br>b</p>", expected: "a  \nb"},
	})
}

func TestLinkRule(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "inline", input: `<a href="/p">x</a>`, expected: "[x](/p)"},
		{name: "title", input: `<a href="/p" title="A &quot;T&quot;">x</a>`, expected: `[x](/p "A \"T\"")`},
		{name: "autolink", input: `<a href="https://e.com">https://e.com</a>`, expected: "<https://e.com>"},
		{name: "relative text equal to href", input: `<a href="/p">/p</a>`, expected: "[/p](/p)"},
		{name: "destination escaping", input: `<a href="/a b(c)">x</a>`, expected: `[x](/a%20b\(c\))`},
		{name: "base url", opts: Options{BaseURL: "https://e.com/docs/"}, input: `<a href="guide">g</a>`, expected: "[g](https://e.com/docs/guide)"},
		{name: "base url keeps fragments", opts: Options{BaseURL: "https://e.com/docs/"}, input: `<a href="#top">t</a>`, expected: "[t](#top)"},
		{name: "flanking whitespace", input: `<p>a<a href="/u"> b </a>c</p>`, expected: "a [b](/u) c"},
		{name: "inline content", input: `<a href="/u"><strong>b</strong></a>`, expected: "[**b**](/u)"},
		{name: "empty text dropped", input: `<p>x<a href="/u"></a></p>`, expected: "x"},
		{name: "named anchor", input: `<p><a name="n">x</a></p>`, expected: "x"},
		{name: "block content joined", input: `<a href="u"><p>a</p><p>b</p></a>`, expected: "[a b](u)"},
		{name: "break in text joined", input: `<p><a href="/u">a<br>b</a></p>`, expected: "[a b](/u)"},
		{
			name:     "block content without href",
			input:    `<a><p>a</p><p>b</p></a>`,
			expected: "a\n\nb",
			warnings: []WarningType{WarningMissingAttribute},
		},
		{
			name:     "missing href",
			input:    `<p><a>x</a></p>`,
			expected: "x",
			warnings: []WarningType{WarningMissingAttribute},
		},
		{
			name:     "referenced",
			opts:     Options{LinkStyle: LinkReferenced},
			input:    `<p><a href="/a">a</a> <a href="/b" title="B">b</a> <a href="/a">again</a></p>`,
			expected: "[a][1] [b][2] [again][1]\n\n[1]: /a\n[2]: /b \"B\"",
		},
	})
}

func TestImageRule(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "basic", input: `<img src="/i.png" alt="A">`, expected: "![A](/i.png)"},
		{name: "title and escaped alt", input: `<img src="/i.png" alt="A [b]" title="T">`, expected: `![A \[b\]](/i.png "T")`},
		{name: "no alt", input: `<img src="/i.png">`, expected: "![](/i.png)"},
		{name: "base url", opts: Options{BaseURL: "https://e.com/"}, input: `<img src="i.png">`, expected: "![](https://e.com/i.png)"},
		{name: "inside link", input: `<a href="/u"><img src="/i.png" alt="i"></a>`, expected: "[![i](/i.png)](/u)"},
		{
			name:     "missing src",
			input:    `<p>a<img alt="x">b</p>`,
			expected: "ab",
			warnings: []WarningType{WarningMissingAttribute},
		},
		{name: "referenced links keep inline images", opts: Options{LinkStyle: LinkReferenced}, input: `<img src="/i.png">`, expected: "![](/i.png)"},
	})
}

func TestListRules(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "bullets", input: "<ul><li>a</li><li>b</li></ul>", expected: "- a\n- b"},
		{name: "marker option", opts: Options{BulletListMarker: "+"}, input: "<ul><li>a</li></ul>", expected: "+ a"},
		{name: "ordered", input: "<ol><li>a</li><li>b</li></ol>", expected: "1. a\n2. b"},
		{name: "ordered start", input: `<ol start="3"><li>a</li><li>b</li></ol>`, expected: "3. a\n4. b"},
		{name: "invalid start", input: `<ol start="x"><li>a</li></ol>`, expected: "1. a"},
		{name: "source whitespace", input: "<ul>\n  <li>a</li>\n  <li>b</li>\n</ul>", expected: "- a\n- b"},
		{name: "nested", input: "<ul><li>a<ul><li>b</li></ul></li></ul>", expected: "- a\n  - b"},
		{name: "nested ordered", input: "<ol><li>a<ol><li>b</li></ol></li></ol>", expected: "1. a\n   1. b"},
		{name: "paragraphs in item", input: "<ul><li><p>a</p><p>b</p></li></ul>", expected: "- a\n\n  b"},
		{name: "empty item", input: "<ul><li></li><li>b</li></ul>", expected: "-\n- b"},
		{name: "list after paragraph", input: "<p>x</p><ul><li>a</li></ul><p>y</p>", expected: "x\n\n- a\n\ny"},
		{name: "escaped item text", input: "<ul><li>1. a</li></ul>", expected: "- 1\\. a"},
		{name: "indented code item", opts: indentedOpts, input: "<ul><li><pre>code</pre></li></ul>", expected: "-     code"},
		{name: "indented code in ordered item", opts: indentedOpts, input: "<ol><li><pre>a\nb</pre></li></ol>", expected: "1.     a\n       b"},
		{name: "indented code after text", opts: indentedOpts, input: "<ul><li>a<pre>code</pre></li></ul>", expected: "- a\n\n      code"},
		{name: "fenced code item", input: "<ul><li><pre>x</pre></li></ul>", expected: "- ```\n  x\n  ```"},
		{name: "leading text space trimmed", input: "<ul><li> a</li></ul>", expected: "- a"},
	})
}

func TestWideOrderedList(t *testing.T) {
	const items = 3000
	input := `<ol start="5">` + strings.Repeat("<li>x</li>", items) + "</ol>"

	result := convertFragment(t, Options{}, input)
	lines := strings.Split(result.Markdown, "\n")
	require.Len(t, lines, items)
	assert.Equal(t, "5. x", lines[0])
	assert.Equal(t, "6. x", lines[1])
	assert.Equal(t, strconv.Itoa(items+4)+". x", lines[items-1])
}

func TestWideTableRow(t *testing.T) {
	const columns = 500
	header := "<tr>" + strings.Repeat("<th>h</th>", columns) + "</tr>"
	row := `<tr><td colspan="2">a</td>` + strings.Repeat("<td>b</td>", columns-2) + "</tr>"

	result := convertFragment(t, Options{}, "<table>"+header+row+"</table>")
	lines := strings.Split(result.Markdown, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "| a |  |"+strings.Repeat(" b |", columns-2), lines[2])
	assert.Empty(t, result.Warnings)
}

func TestTaskListRules(t *testing.T) {
	input := `<ul><li><input type="checkbox" checked> done</li><li><input type="checkbox"> todo</li></ul>`

	runRuleCases(t, []ruleCase{
		{name: "task items", input: input, expected: "- [x] done\n- [ ] todo"},
		{
			name:     "checkbox in paragraph",
			input:    `<ul><li><p><input type="checkbox" checked> done</p></li></ul>`,
			expected: "- [x] done",
		},
		{
			name:     "task lists off",
			opts:     Options{Dialect: DialectCommonMark},
			input:    input,
			expected: "* [x] done\n* [ ] todo",
		},
		{
			name:     "checkbox not first",
			input:    `<ul><li>a <input type="checkbox"></li></ul>`,
			expected: "- a [ ]",
		},
	})
}

func TestDefinitionListRules(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{
			name:     "term and description",
			input:    "<dl><dt>Term</dt><dd>Def</dd></dl>",
			expected: "Term\n: Def",
		},
		{
			name:     "multiple descriptions",
			input:    "<dl>\n<dt>A</dt>\n<dd>one</dd>\n<dd>two</dd>\n<dt>B</dt>\n<dd>three</dd>\n</dl>",
			expected: "A\n: one\n: two\nB\n: three",
		},
		{
			name:     "multi-paragraph description",
			input:    "<dl><dt>T</dt><dd><p>a</p><p>b</p></dd></dl>",
			expected: "T\n: a\n\n  b",
		},
		{
			name:     "indented code description",
			opts:     indentedOpts,
			input:    "<dl><dt>T</dt><dd><pre>code</pre></dd></dl>",
			expected: "T\n:     code",
		},
	})
}

func TestTableRules(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{
			name: "header and alignment",
			input: `<table><thead><tr><th align="left">A</th><th style="text-align: right">B</th><th align="center">C</th></tr></thead>` +
				`<tbody><tr><td>1</td><td>2</td><td>3</td></tr></tbody></table>`,
			expected: "| A | B | C |\n| :--- | ---: | :---: |\n| 1 | 2 | 3 |",
		},
		{
			name:     "short rows padded",
			input:    "<table><tr><th>a</th><th>b</th><th>c</th></tr><tr><td>1</td></tr></table>",
			expected: "| a | b | c |\n| --- | --- | --- |\n| 1 |  |  |",
		},
		{
			name:     "long rows truncated",
			input:    "<table><tr><th>h</th></tr><tr><td>1</td><td>2</td></tr></table>",
			expected: "| h |\n| --- |\n| 1 |",
			warnings: []WarningType{WarningMalformedTable},
		},
		{
			name:     "header synthesized",
			input:    "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>",
			expected: "|  |  |\n| --- | --- |\n| a | b |\n| c | d |",
		},
		{
			name:     "colspan",
			input:    `<table><tr><th>a</th><th>b</th><th>c</th></tr><tr><td colspan="2">x</td><td>y</td></tr></table>`,
			expected: "| a | b | c |\n| --- | --- | --- |\n| x |  | y |",
		},
		{
			name:     "pipes and breaks in cells",
			input:    "<table><tr><th>a|b</th><th>x<br>y</th></tr></table>",
			expected: "| a\\|b | x<br>y |\n| --- | --- |",
		},
		{
			name:     "breaks without html",
			opts:     Options{UseHTMLTags: Bool(false)},
			input:    "<table><tr><th>x<br>y</th></tr></table>",
			expected: "| x y |\n| --- |",
		},
		{
			name:     "caption",
			input:    "<table><caption>Totals</caption><tr><th>a</th></tr></table>",
			expected: "Totals\n\n| a |\n| --- |",
		},
		{
			name:     "inline markup in cells",
			input:    `<table><tr><th><strong>a</strong></th><th><a href="/u">b</a></th></tr></table>`,
			expected: "| **a** | [b](/u) |\n| --- | --- |",
		},
		{
			name:     "empty table",
			input:    "<p>x</p><table></table><p>y</p>",
			expected: "x\n\ny",
		},
		{
			name:     "tables off with html",
			opts:     Options{Dialect: DialectCommonMark},
			input:    "<table><tr><td>a</td></tr></table>",
			expected: "<table>\n\n<tbody>\n\n<tr>\n\n<td>\n\na\n\n</td>\n\n</tr>\n\n</tbody>\n\n</table>",
		},
		{
			name:     "tables off without html",
			opts:     customOpts,
			input:    "<table><tr><td>a</td><td>b</td></tr></table>",
			expected: "a\n\nb",
		},
	})
}

func TestFallbackPolicy(t *testing.T) {
	runRuleCases(t, []ruleCase{
		{name: "inline element kept", input: `<p><span class="x">a</span></p>`, expected: `<span class="x">a</span>`},
		{name: "inline element dropped", opts: customOpts, input: `<p><span class="x">a</span></p>`, expected: "a"},
		{name: "block element kept", input: "<section><p>a</p></section>", expected: "<section>\n\na\n\n</section>"},
		{name: "block element keeps indented code", opts: indentedOpts, input: "<section><pre>code</pre></section>", expected: "<section>\n\n    code\n\n</section>"},
		{name: "block element dropped", opts: customOpts, input: "<p>x</p><section>a</section><p>y</p>", expected: "x\n\na\n\ny"},
		{name: "div dropped keeps blocks", opts: customOpts, input: "<div>a</div><div>b</div>", expected: "a\n\nb"},
		{name: "void element", input: "<p>a<wbr>b</p>", expected: "a<wbr>b"},
		{name: "attribute escaping", input: `<p><span title="a&quot;b">x</span></p>`, expected: `<span title="a&#34;b">x</span>`},
		{name: "empty block element", input: `<p>a</p><div id="x"></div>`, expected: "a\n\n<div id=\"x\"></div>"},
	})
}
