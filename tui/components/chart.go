package components

import (
	"fmt"
	"math"
	"strings"
)

// chartBlocks fill a cell from empty (index 0) to full (index 8).
var chartBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const chartLabelWidth = 8

// RenderChart plots Mbps values (oldest first) as a bar chart of the given
// outer size. The first line holds the centered title; each following line
// starts with a Y-axis label.
func RenderChart(data []float64, width, height int, title string) string {
	width = max(width, chartLabelWidth+2)
	height = max(height, 3)
	plotWidth := width - chartLabelWidth
	rows := height - 1

	lines := make([]string, 0, height)
	lines = append(lines, centerText(title, width))

	if len(data) > plotWidth {
		data = data[len(data)-plotWidth:]
	}
	top := 0.0
	for _, v := range data {
		top = math.Max(top, v)
	}
	if top == 0 {
		top = 1
	}

	pad := strings.Repeat(" ", plotWidth-len(data))
	for row := rows - 1; row >= 0; row-- {
		lo := top * float64(row) / float64(rows)
		hi := top * float64(row+1) / float64(rows)

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%*s ", chartLabelWidth-1, FormatMbps(hi)))
		sb.WriteString(pad)
		for _, v := range data {
			sb.WriteRune(cellBlock(v, lo, hi))
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// cellBlock picks the block for value v in a cell spanning [lo, hi).
func cellBlock(v, lo, hi float64) rune {
	switch {
	case v <= lo:
		return chartBlocks[0]
	case v >= hi:
		return chartBlocks[len(chartBlocks)-1]
	}
	idx := int(math.Round((v - lo) / (hi - lo) * 8))
	return chartBlocks[min(max(idx, 0), 8)]
}

func centerText(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}
