package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sector-insights/internal/table"
)

// Config holds rendering parameters
type Config struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	Color        string
	GridColor    string
	TextColor    string
	FontSize     int
}

// DefaultConfig returns the dashboard chart size and palette
func DefaultConfig() Config {
	return Config{
		Width:        720,
		Height:       360,
		MarginTop:    40,
		MarginRight:  30,
		MarginBottom: 60,
		MarginLeft:   80,
		Color:        "#1f77b4",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

type point struct {
	label string
	value float64
}

// RenderSVG draws data as described by spec. Points are ordered by the x
// value so quarter dates run left to right.
func RenderSVG(spec *Spec, data *table.Table, cfg Config) (string, error) {
	if err := spec.Validate(data); err != nil {
		return "", err
	}
	if cfg.Width == 0 {
		cfg = DefaultConfig()
	}
	if data.Empty() {
		return emptySVG(cfg, "No data available"), nil
	}

	points := make([]point, data.Len())
	for i := range points {
		v, _ := data.Float(i, spec.Y)
		points[i] = point{label: data.Text(i, spec.X), value: v}
	}
	sort.SliceStable(points, func(a, b int) bool { return points[a].label < points[b].label })

	lo, hi := 0.0, points[0].value
	for _, p := range points {
		lo = math.Min(lo, p.value)
		hi = math.Max(hi, p.value)
	}
	if hi == lo {
		hi = lo + 1
	}

	px, py := cfg.MarginLeft, cfg.MarginTop
	pw := cfg.Width - cfg.MarginLeft - cfg.MarginRight
	ph := cfg.Height - cfg.MarginTop - cfg.MarginBottom
	n := len(points)
	slot := float64(pw) / float64(n)
	toY := func(v float64) float64 {
		return float64(py+ph) - (v-lo)/(hi-lo)*float64(ph)
	}
	centerX := func(i int) float64 {
		return float64(px) + slot*float64(i) + slot/2
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`, cfg.Width, cfg.Height)
	if spec.Title != "" {
		fmt.Fprintf(&sb, `<text x="%d" y="22" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
			cfg.Width/2, cfg.TextColor, escapeXML(spec.Title))
	}

	const gridLines = 5
	for i := 0; i <= gridLines; i++ {
		v := lo + (hi-lo)*float64(i)/gridLines
		y := toY(v)
		fmt.Fprintf(&sb, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor)
		fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-6, y+4, cfg.FontSize, cfg.TextColor, compact(v))
	}

	switch spec.Kind {
	case KindBar:
		width := slot * 0.6
		for i, p := range points {
			top := toY(math.Max(p.value, 0))
			height := math.Abs(toY(p.value) - toY(0))
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s: %s</title></rect>`,
				centerX(i)-width/2, top, width, height, cfg.Color, escapeXML(p.label), escapeXML(compact(p.value)))
		}
	default:
		parts := make([]string, n)
		for i, p := range points {
			parts[i] = fmt.Sprintf("%.1f,%.1f", centerX(i), toY(p.value))
		}
		fmt.Fprintf(&sb, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(parts, " "), cfg.Color)
		for i, p := range points {
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3.5" fill="%s"><title>%s: %s</title></circle>`,
				centerX(i), toY(p.value), cfg.Color, escapeXML(p.label), escapeXML(compact(p.value)))
		}
	}

	for i, p := range points {
		fmt.Fprintf(&sb, `<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			centerX(i), py+ph+18, cfg.FontSize, cfg.TextColor, escapeXML(p.label))
	}
	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
		px+pw/2, cfg.Height-12, cfg.FontSize+1, cfg.TextColor, escapeXML(spec.XLabel))
	fmt.Fprintf(&sb, `<text x="16" y="%d" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-90 16 %d)">%s</text>`,
		py+ph/2, cfg.FontSize+1, cfg.TextColor, py+ph/2, escapeXML(spec.YLabel))
	sb.WriteString("</svg>")
	return sb.String(), nil
}

// compact formats large amounts with a K/M/B/T suffix
func compact(v float64) string {
	abs := math.Abs(v)
	for _, u := range []struct {
		div    float64
		suffix string
	}{{1e12, "T"}, {1e9, "B"}, {1e6, "M"}, {1e3, "K"}} {
		if abs >= u.div {
			return strconv.FormatFloat(v/u.div, 'f', 1, 64) + u.suffix
		}
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func emptySVG(cfg Config, msg string) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
