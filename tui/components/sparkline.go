package components

import (
	"fmt"
	"strings"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the newest width values of data as a row of block
// characters, right-aligned. Bars are scaled from zero to the largest value
// so an idle link reads as a flat bottom line.
func Sparkline(data []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	peak := 0.0
	for _, v := range data {
		if v > peak {
			peak = v
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(data)))
	for _, v := range data {
		idx := 0
		if peak > 0 && v > 0 {
			idx = int(v / peak * float64(len(blocks)-1))
		}
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}

// FormatMbps renders a throughput given in Mbps with a unit suffix.
func FormatMbps(mbps float64) string {
	switch {
	case mbps <= 0:
		return "0"
	case mbps >= 1_000_000:
		return fmt.Sprintf("%.1fT", mbps/1_000_000)
	case mbps >= 1_000:
		return fmt.Sprintf("%.1fG", mbps/1_000)
	case mbps >= 1:
		return fmt.Sprintf("%.1fM", mbps)
	case mbps >= 0.001:
		return fmt.Sprintf("%.1fK", mbps*1_000)
	default:
		return fmt.Sprintf("%.0fb", mbps*1_000_000)
	}
}

// FormatSpeed renders an interface speed given in Mbps.
func FormatSpeed(speedMbps uint64) string {
	switch {
	case speedMbps == 0:
		return "unknown"
	case speedMbps >= 1_000_000:
		return fmt.Sprintf("%.0fT", float64(speedMbps)/1_000_000)
	case speedMbps >= 1_000:
		return fmt.Sprintf("%.0fG", float64(speedMbps)/1_000)
	default:
		return fmt.Sprintf("%dM", speedMbps)
	}
}
