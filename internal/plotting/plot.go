// Package plotting renders a recorded trajectory to a PNG file using
// gonum/plot, completing that dependency's wiring: it is declared in
// the reference circuit-simulation repository this project draws its
// domain stack from but never actually imported there.
package plotting

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jangwj7/dae-cpp/internal/dae"
)

// Trajectory renders one or more state components against time to a
// PNG file at outPath. components selects which indices of each state
// vector to plot; if empty, every component is plotted.
func Trajectory(times []float64, states []dae.State, components []int, title, outPath string) error {
	if len(times) == 0 {
		return fmt.Errorf("plotting: empty trajectory")
	}
	if len(components) == 0 {
		for i := range states[0] {
			components = append(components, i)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = "x"
	p.Add(plotter.NewGrid())

	for _, c := range components {
		pts := make(plotter.XYs, len(times))
		for i, t := range times {
			pts[i].X = t
			if c < len(states[i]) {
				pts[i].Y = states[i][c]
			}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plotting: component %d: %w", c, err)
		}
		line.Color = plotutilColor(c)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("x[%d]", c), line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, outPath); err != nil {
		return fmt.Errorf("plotting: save %s: %w", outPath, err)
	}
	return nil
}

// plotutilColor cycles through a small fixed palette so successive
// components are visually distinguishable without pulling in
// gonum/plot's plotutil default-style helper.
func plotutilColor(i int) plotColor {
	palette := []plotColor{
		{R: 0x1f, G: 0x77, B: 0xb4},
		{R: 0xff, G: 0x7f, B: 0x0e},
		{R: 0x2c, G: 0xa0, B: 0x2c},
		{R: 0xd6, G: 0x27, B: 0x28},
		{R: 0x94, G: 0x67, B: 0xbd},
		{R: 0x8c, G: 0x56, B: 0x4b},
	}
	return palette[i%len(palette)]
}

type plotColor struct{ R, G, B uint8 }

func (c plotColor) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) << 8
	g = uint32(c.G) << 8
	b = uint32(c.B) << 8
	a = 0xffff
	return
}
