package analysis

import (
	"math"
	"strings"

	"github.com/jangwj7/dae-cpp/internal/dae"
)

// PhasePortrait2D holds a 2D projection of a recorded trajectory.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []struct{ X, Y float64 }
}

// GeneratePhasePortrait2D projects a recorded trajectory's xIdx and
// yIdx state components against each other, the 2D cross-section a
// solved DAE's full state vector is usually too high-dimensional to
// plot directly.
func GeneratePhasePortrait2D(states []dae.State, xIdx, yIdx int) *PhasePortrait2D {
	if len(states) == 0 || xIdx >= len(states[0]) || yIdx >= len(states[0]) {
		return nil
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]struct{ X, Y float64 }, 0, len(states)),
	}
	for _, x := range states {
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{X: x[xIdx], Y: x[yIdx]})
	}
	return portrait
}

// PhasePortraitToASCII renders a phase portrait as a text canvas.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records state pairs where a recorded trajectory's
// crossIdx component rises through threshold.
type PoincareSection struct {
	Points []struct{ X, Y float64 }
}

// GeneratePoincareSection scans a recorded trajectory for
// positive-going crossings of threshold in component crossIdx and
// records the (recordX, recordY) components at each crossing,
// interpolating linearly between the two bracketing samples.
func GeneratePoincareSection(states []dae.State, crossIdx int, threshold float64, recordX, recordY int) *PoincareSection {
	if len(states) < 2 {
		return nil
	}
	if crossIdx >= len(states[0]) || recordX >= len(states[0]) || recordY >= len(states[0]) {
		return nil
	}

	section := &PoincareSection{Points: make([]struct{ X, Y float64 }, 0)}
	prevVal := states[0][crossIdx]

	for i := 1; i < len(states); i++ {
		currVal := states[i][crossIdx]
		if prevVal < threshold && currVal >= threshold {
			frac := (threshold - prevVal) / (currVal - prevVal)
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			x := states[i-1][recordX] + frac*(states[i][recordX]-states[i-1][recordX])
			y := states[i-1][recordY] + frac*(states[i][recordY]-states[i-1][recordY])
			section.Points = append(section.Points, struct{ X, Y float64 }{X: x, Y: y})
		}
		prevVal = currVal
	}
	return section
}

// PoincareSectionToASCII renders a Poincare section with the same
// canvas logic as PhasePortraitToASCII.
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "no crossings detected"
	}
	portrait := &PhasePortrait2D{Points: section.Points}
	return PhasePortraitToASCII(portrait, width, height)
}
