package output

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/domain/entities"
)

// Heatmap is a row × month grid of fractions in [0, 1]
type Heatmap struct {
	Title    string
	RowLabel string
	Rows     []string
	Columns  []string
	Values   [][]float64
}

// FillRateHeatmap pivots fill rates to product × month
func FillRateHeatmap(result *dto.PlanResult) *Heatmap {
	rows := make([]string, len(result.Metadata.Products))
	for i, p := range result.Metadata.Products {
		rows[i] = string(p)
	}
	hm := newHeatmap("Fill Rates by Product and Month", "Product", rows, result.Metadata.Horizon)
	for _, fr := range result.FillRates {
		hm.set(string(fr.Product), fr.Month, fr.FillRate)
	}
	return hm
}

// UtilizationHeatmap pivots utilization to line × month
func UtilizationHeatmap(result *dto.PlanResult) *Heatmap {
	rows := make([]string, len(result.Metadata.Lines))
	for i, l := range result.Metadata.Lines {
		rows[i] = string(l)
	}
	hm := newHeatmap("Line Utilization by Month", "Production Line", rows, result.Metadata.Horizon)
	for _, u := range result.Utilization {
		hm.set(string(u.Line), u.Month, u.Utilization)
	}
	return hm
}

func newHeatmap(title, rowLabel string, rows []string, horizon entities.Horizon) *Heatmap {
	values := make([][]float64, len(rows))
	for i := range values {
		values[i] = make([]float64, len(horizon))
	}
	return &Heatmap{
		Title:    title,
		RowLabel: rowLabel,
		Rows:     rows,
		Columns:  horizon.Strings(),
		Values:   values,
	}
}

func (h *Heatmap) set(row string, month entities.Month, v float64) {
	r := indexOf(h.Rows, row)
	c := indexOf(h.Columns, string(month))
	if r >= 0 && c >= 0 {
		h.Values[r][c] = v
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

var shades = []rune{' ', '░', '▒', '▓', '█'}

// shade maps a fraction to a block character
func shade(v float64) rune {
	v = min(1, max(0, v))
	return shades[int(v*float64(len(shades)-1)+0.5)]
}

// WriteText renders the heatmap as a fixed-width text table with a shade
// bar and a percentage in each cell
func (h *Heatmap) WriteText(w io.Writer) error {
	labelWidth := len(h.RowLabel)
	for _, r := range h.Rows {
		labelWidth = max(labelWidth, len(r))
	}
	cellWidth := 7
	for _, c := range h.Columns {
		cellWidth = max(cellWidth, len(c))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", h.Title)
	fmt.Fprintf(&b, "%-*s", labelWidth, h.RowLabel)
	for _, c := range h.Columns {
		fmt.Fprintf(&b, " %*s", cellWidth, c)
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", labelWidth+len(h.Columns)*(cellWidth+1)))
	b.WriteString("\n")

	for i, r := range h.Rows {
		fmt.Fprintf(&b, "%-*s", labelWidth, r)
		for _, v := range h.Values[i] {
			cell := fmt.Sprintf("%c %3.0f%%", shade(v), v*100)
			fmt.Fprintf(&b, " %*s", cellWidth, cell)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// SVG renders the heatmap as an inline SVG using the colours of cfg
func (h *Heatmap) SVG(cfg RenderConfig) string {
	labelWidth := 12
	for _, r := range h.Rows {
		labelWidth = max(labelWidth, len(r))
	}
	marginLeft := labelWidth*7 + 20
	marginTop := 60
	width := marginLeft + len(h.Columns)*cfg.CellWidth + 20
	height := marginTop + len(h.Rows)*cfg.CellHeight + 60

	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, width, height)
	svg.WriteString(`<style>`)
	svg.WriteString(`.label { font-family: Inter, Arial, sans-serif; font-size: 12px; fill: #171717; }`)
	svg.WriteString(`.title { font-family: Inter, Arial, sans-serif; font-size: 16px; font-weight: 600; fill: #171717; }`)
	svg.WriteString(`.value { font-family: Inter, Arial, sans-serif; font-size: 10px; }`)
	svg.WriteString(`</style>`)
	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="white"/>`, width, height)
	fmt.Fprintf(&svg, `<text x="%d" y="30" class="title">%s</text>`, marginLeft, html.EscapeString(h.Title))

	for j, c := range h.Columns {
		x := marginLeft + j*cfg.CellWidth + cfg.CellWidth/2
		fmt.Fprintf(&svg, `<text x="%d" y="%d" class="label" text-anchor="middle">%s</text>`,
			x, marginTop-8, html.EscapeString(c))
	}

	for i, r := range h.Rows {
		y := marginTop + i*cfg.CellHeight
		fmt.Fprintf(&svg, `<text x="%d" y="%d" class="label" text-anchor="end">%s</text>`,
			marginLeft-8, y+cfg.CellHeight/2+4, html.EscapeString(r))

		for j, v := range h.Values[i] {
			x := marginLeft + j*cfg.CellWidth
			fmt.Fprintf(&svg, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%s %s: %s</title></rect>`,
				x, y, cfg.CellWidth, cfg.CellHeight, cfg.color(v),
				html.EscapeString(r), html.EscapeString(h.Columns[j]), formatNumber(v, cfg.Precision))
			if cfg.ShowValues {
				text := "#171717"
				if v > 0.6 {
					text = "white"
				}
				fmt.Fprintf(&svg, `<text x="%d" y="%d" class="value" text-anchor="middle" fill="%s">%s</text>`,
					x+cfg.CellWidth/2, y+cfg.CellHeight/2+4, text, formatNumber(v, cfg.Precision))
			}
		}
	}

	fmt.Fprintf(&svg, `<text x="%d" y="%d" class="label">Month</text>`,
		marginLeft, marginTop+len(h.Rows)*cfg.CellHeight+30)
	svg.WriteString(`</svg>`)
	return svg.String()
}

// color interpolates between the low and high colours of cfg
func (cfg RenderConfig) color(v float64) string {
	lo, okLo := parseHex(cfg.LowColor)
	hi, okHi := parseHex(cfg.HighColor)
	if !okLo || !okHi {
		lo, hi = [3]int{0xf7, 0xfb, 0xff}, [3]int{0x08, 0x30, 0x6b}
	}
	v = min(1, max(0, v))
	var out [3]int
	for i := range out {
		out[i] = lo[i] + int(float64(hi[i]-lo[i])*v+0.5*sign(hi[i]-lo[i]))
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}

func sign(n int) float64 {
	if n < 0 {
		return -1
	}
	return 1
}

func parseHex(s string) ([3]int, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return [3]int{}, false
	}
	var rgb [3]int
	for i := range rgb {
		n, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return [3]int{}, false
		}
		rgb[i] = int(n)
	}
	return rgb, true
}
