package projections

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/cedric28/spinbet-frontend/internal/domain/participation"
)

// Chart styling shared by the SVG and JSON renderings.
const (
	ChartBorderColor = "#FFFFFF"
	ChartBorderWidth = 2
)

// ColorFunc returns a CSS color for the next slice.
type ColorFunc func() string

// RandomColor returns a random "#RRGGBB" color. Colors are not stable across renders.
func RandomColor() string {
	return fmt.Sprintf("#%06X", rand.IntN(1<<24))
}

// Slice is one wedge of the pie in a unit-radius SVG coordinate space.
type Slice struct {
	Label string
	Value float64
	Color string
	Path  string // SVG path data; empty for slices with no area
	Full  bool   // the slice is the whole pie and is drawn as a circle
}

// Chart is the pie for one render, in record order.
type Chart struct {
	Labels []string
	Values []float64
	Colors []string
	Slices []Slice
}

// BuildChart derives the pie from records, one color per record.
// PRE: colors is non-nil
// POST: Labels, Values, Colors and Slices are index-aligned with records
func BuildChart(records []participation.Record, colors ColorFunc) Chart {
	c := Chart{
		Labels: participation.Labels(records),
		Values: participation.Percentages(records),
		Colors: make([]string, len(records)),
		Slices: make([]Slice, len(records)),
	}
	for i := range records {
		c.Colors[i] = colors()
	}

	total := 0.0
	for _, v := range c.Values {
		if v > 0 {
			total += v
		}
	}

	angle := -math.Pi / 2 // 12 o'clock, clockwise
	for i, v := range c.Values {
		s := Slice{Label: c.Labels[i], Value: v, Color: c.Colors[i]}
		if v > 0 && total > 0 {
			frac := v / total
			if frac >= 1 {
				s.Full = true
			} else {
				end := angle + frac*2*math.Pi
				s.Path = wedgePath(angle, end, frac > 0.5)
				angle = end
			}
		}
		c.Slices[i] = s
	}
	return c
}

// Empty reports whether there is nothing to draw.
func (c Chart) Empty() bool {
	for _, s := range c.Slices {
		if s.Full || s.Path != "" {
			return false
		}
	}
	return true
}

func wedgePath(start, end float64, large bool) string {
	largeArc := "0"
	if large {
		largeArc = "1"
	}
	var b strings.Builder
	b.WriteString("M 0 0 L ")
	b.WriteString(coord(math.Cos(start)) + " " + coord(math.Sin(start)))
	b.WriteString(" A 1 1 0 " + largeArc + " 1 ")
	b.WriteString(coord(math.Cos(end)) + " " + coord(math.Sin(end)))
	b.WriteString(" Z")
	return b.String()
}

func coord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	if s == "-0.0000" {
		return "0.0000"
	}
	return s
}

// ChartData is the JSON shape of the chart, one dataset with per-slice colors.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset is a single pie dataset.
type ChartDataset struct {
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     string    `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
}

// Data returns the chart as its JSON payload.
func (c Chart) Data() ChartData {
	return ChartData{
		Labels: c.Labels,
		Datasets: []ChartDataset{{
			Data:            c.Values,
			BackgroundColor: c.Colors,
			BorderColor:     ChartBorderColor,
			BorderWidth:     ChartBorderWidth,
		}},
	}
}
