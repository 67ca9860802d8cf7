package converter

import (
	"strconv"
	"strings"
)

// postprocess normalizes blank lines, appends link reference definitions and
// trims trailing whitespace.
func postprocess(markdown string, refs *linkTable) string {
	out := collapseBlankLines(markdown)
	out = strings.TrimRight(out, " \t\n")

	if entries := refs.entries(); len(entries) > 0 {
		var sb strings.Builder
		sb.WriteString(out)
		if out != "" {
			sb.WriteString("\n\n")
		}
		for i, ref := range entries {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("[")
			sb.WriteString(strconv.Itoa(i + 1))
			sb.WriteString("]: ")
			sb.WriteString(formatDefinitionURL(ref.url))
			sb.WriteString(formatTitle(ref.title))
		}
		out = sb.String()
	}

	return strings.TrimLeft(strings.TrimRight(out, " \t\n"), "\n")
}

// collapseBlankLines reduces runs of blank lines to one. Lines inside fenced
// code blocks are kept as they are.
func collapseBlankLines(markdown string) string {
	lines := strings.Split(markdown, "\n")
	out := make([]string, 0, len(lines))

	fence := ""
	blank := false
	for _, line := range lines {
		if fence != "" {
			out = append(out, line)
			if isFenceClose(line, fence) {
				fence = ""
			}
			continue
		}

		if open := fenceOpen(line); open != "" {
			fence = open
			blank = false
			out = append(out, line)
			continue
		}

		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}

		blank = false
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// fenceOpen returns the backtick run opening a fenced code block on line,
// allowing the indentation of list items and blockquote prefixes.
func fenceOpen(line string) string {
	trimmed := strings.TrimLeft(stripQuotePrefix(line), " ")
	n := 0
	for n < len(trimmed) && trimmed[n] == '`' {
		n++
	}
	if n < 3 || strings.Contains(trimmed[n:], "`") {
		return ""
	}
	return trimmed[:n]
}

func isFenceClose(line, fence string) bool {
	trimmed := strings.TrimSpace(stripQuotePrefix(line))
	return strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, "`") == ""
}

func stripQuotePrefix(line string) string {
	for {
		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, ">") {
			return line
		}
		line = strings.TrimPrefix(trimmed[1:], " ")
	}
}

func formatDefinitionURL(href string) string {
	return strings.ReplaceAll(href, " ", "%20")
}
