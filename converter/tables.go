package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rgonek/html2md/dom"
)

const maxColspan = 1000

var cellBreaks = regexp.MustCompile(`\s*\n[\s\n]*`)

type columnAlign uint8

const (
	alignNone columnAlign = iota
	alignLeft
	alignCenter
	alignRight
)

// tableInfo is the layout of a table, derived once from its header row.
type tableInfo struct {
	header  dom.Node
	columns int
	aligns  []columnAlign
}

func tablesEnabled(opts *Options) bool {
	return enabled(opts.Tables)
}

type tableRule struct{}

func (tableRule) Match(node dom.Node, opts *Options) bool {
	return tablesEnabled(opts) && node.IsElement("table")
}

func (tableRule) Extend(node dom.Node, rc *RenderContext) *RenderContext {
	return rc.withTable(newTableInfo(node))
}

func (tableRule) Render(_ dom.Node, content string, _ *RenderContext) (Fragment, error) {
	text := strings.Trim(content, "\n")
	if strings.TrimSpace(text) == "" {
		return Fragment{}, nil
	}
	return Block(text), nil
}

func newTableInfo(table dom.Node) *tableInfo {
	info := &tableInfo{}
	rows := tableRows(table)
	if len(rows) == 0 {
		return info
	}

	info.header = rows[0]
	for _, cell := range rowCells(info.header) {
		span := cellSpan(cell)
		align := cellAlign(cell)
		for range span {
			info.aligns = append(info.aligns, align)
		}
		info.columns += span
	}
	return info
}

// tableRows returns the rows of table in source order, including rows in
// row groups but not rows of nested tables.
func tableRows(table dom.Node) []dom.Node {
	var rows []dom.Node
	for _, child := range table.ElementChildren() {
		switch child.Tag() {
		case "tr":
			rows = append(rows, child)
		case "thead", "tbody", "tfoot":
			rows = append(rows, child.ElementChildren("tr")...)
		}
	}
	return rows
}

func rowCells(row dom.Node) []dom.Node {
	return row.ElementChildren("td", "th")
}

func cellSpan(cell dom.Node) int {
	raw, ok := cell.Attr("colspan")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxColspan)
}

func cellAlign(cell dom.Node) columnAlign {
	value := strings.ToLower(strings.TrimSpace(cell.AttrOr("align", "")))
	for _, decl := range strings.Split(cell.AttrOr("style", ""), ";") {
		name, val, ok := strings.Cut(decl, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "text-align") {
			value = strings.ToLower(strings.TrimSpace(val))
		}
	}
	switch value {
	case "left", "start":
		return alignLeft
	case "center":
		return alignCenter
	case "right", "end":
		return alignRight
	default:
		return alignNone
	}
}

func isHeaderRow(row dom.Node) bool {
	if parent, ok := row.Parent(); ok && parent.IsElement("thead") {
		return true
	}
	return len(row.ElementChildren("th")) > 0
}

// tableSectionRule passes row groups through and keeps captions as a
// paragraph above the table.
type tableSectionRule struct{}

func (tableSectionRule) Match(node dom.Node, opts *Options) bool {
	return tablesEnabled(opts) && node.IsElement("thead", "tbody", "tfoot", "caption", "colgroup", "col")
}

func (tableSectionRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	switch node.Tag() {
	case "caption":
		text := strings.Join(strings.Fields(content), " ")
		if text == "" {
			return Fragment{}, nil
		}
		return Block(text), nil
	case "colgroup", "col":
		return Fragment{}, nil
	default:
		return rc.Children(), nil
	}
}

type tableRowRule struct{}

func (tableRowRule) Match(node dom.Node, opts *Options) bool {
	return tablesEnabled(opts) && node.IsElement("tr")
}

// Extend records the first column of every cell in the row.
func (tableRowRule) Extend(node dom.Node, rc *RenderContext) *RenderContext {
	cells := rowCells(node)
	columns := make(map[dom.Node]int, len(cells))
	index := 0
	for _, cell := range cells {
		columns[cell] = index
		index += cellSpan(cell)
	}
	return rc.withRow(columns)
}

func (tableRowRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	info := rc.table
	if info == nil {
		info = &tableInfo{}
	}
	if info.columns == 0 {
		return Fragment{}, nil
	}

	width := 0
	for _, cell := range rowCells(node) {
		width += cellSpan(cell)
	}
	if width > info.columns {
		rc.Warn(WarningMalformedTable, node, fmt.Sprintf("row has %d columns, table has %d; extra cells dropped", width, info.columns))
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(content, " "))
	sb.WriteString(" |")
	for range max(info.columns-width, 0) {
		sb.WriteString("  |")
	}
	line := strings.TrimLeft(sb.String(), " ")

	if node != info.header {
		return LineFragment(line), nil
	}
	if isHeaderRow(node) {
		return LineFragment(line + "\n" + separatorRow(info)), nil
	}
	// Markdown tables need a header; synthesize an empty one.
	return LineFragment(emptyRow(info.columns) + "\n" + separatorRow(info) + "\n" + line), nil
}

func emptyRow(columns int) string {
	return "|" + strings.Repeat("  |", columns)
}

func separatorRow(info *tableInfo) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i := range info.columns {
		align := alignNone
		if i < len(info.aligns) {
			align = info.aligns[i]
		}
		switch align {
		case alignLeft:
			sb.WriteString(" :--- |")
		case alignCenter:
			sb.WriteString(" :---: |")
		case alignRight:
			sb.WriteString(" ---: |")
		default:
			sb.WriteString(" --- |")
		}
	}
	return sb.String()
}

type tableCellRule struct{}

func (tableCellRule) Match(node dom.Node, opts *Options) bool {
	return tablesEnabled(opts) && node.IsElement("td", "th")
}

// Render emits "| text " for each column the cell spans. Cells past the
// header's column count render nothing.
func (tableCellRule) Render(node dom.Node, content string, rc *RenderContext) (Fragment, error) {
	columns := 0
	if rc.table != nil {
		columns = rc.table.columns
	}

	index, ok := rc.cellColumns[node]
	if !ok {
		index = cellColumn(node)
	}
	if index >= columns {
		return Fragment{}, nil
	}
	span := min(cellSpan(node), columns-index)

	var sb strings.Builder
	sb.WriteString("| ")
	sb.WriteString(cellContent(content, enabled(rc.opts.UseHTMLTags)))
	sb.WriteString(" ")
	for range span - 1 {
		sb.WriteString("|  ")
	}
	return Inline(sb.String()), nil
}

// cellColumn scans the cell's siblings for cells outside a table-row context.
func cellColumn(cell dom.Node) int {
	index := 0
	if row, ok := cell.Parent(); ok {
		for _, sibling := range rowCells(row) {
			if sibling == cell {
				break
			}
			index += cellSpan(sibling)
		}
	}
	return index
}

// cellContent flattens cell Markdown onto one line and escapes pipes.
func cellContent(content string, useHTML bool) string {
	text := strings.TrimSpace(content)
	sep := " "
	if useHTML {
		sep = "<br>"
	}
	text = cellBreaks.ReplaceAllString(text, sep)
	// Pipes are escaped here only, never by the rules that produced the text.
	return strings.ReplaceAll(text, "|", `\|`)
}
