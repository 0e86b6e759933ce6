package components

import (
	"strings"
	"testing"
)

func TestRenderChartDimensions(t *testing.T) {
	out := RenderChart([]float64{1, 2, 3, 4}, 30, 6, "Download")
	lines := strings.Split(out, "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "Download") {
		t.Errorf("title row missing: %q", lines[0])
	}
	for i, l := range lines {
		if n := len([]rune(l)); n != 30 {
			t.Errorf("line %d: expected width 30, got %d (%q)", i, n, l)
		}
	}
}

func TestRenderChartPeakFillsTopRow(t *testing.T) {
	out := RenderChart([]float64{0, 10}, 20, 4, "")
	lines := strings.Split(out, "\n")
	topRow := []rune(lines[1])
	if topRow[len(topRow)-1] != chartBlocks[8] {
		t.Errorf("peak should fill the top row, got %q", string(topRow))
	}
	if !strings.Contains(lines[1], "10.0M") {
		t.Errorf("top label should show the peak, got %q", lines[1])
	}
}

func TestRenderChartEmpty(t *testing.T) {
	out := RenderChart(nil, 20, 4, "Upload")
	if strings.ContainsRune(out, chartBlocks[8]) {
		t.Errorf("empty chart should have no bars: %q", out)
	}
}
