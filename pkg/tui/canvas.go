package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/charlie0129/battmoji/pkg/particle"
)

// fadedOpacity is the opacity below which a particle is drawn faint.
const fadedOpacity = 0.5

// cell is a particle's position on the terminal grid.
type cell struct {
	Col, Row int
	Faint    bool
}

// place maps particles from screen coordinates onto a cols x rows grid. A
// glyph occupies width columns. Particles off the grid, or overlapping one
// placed earlier, are dropped.
func place(particles []particle.Transform, screenW, screenH float64, cols, rows, width int) []cell {
	if cols <= 0 || rows <= 0 || screenW <= 0 || screenH <= 0 {
		return nil
	}
	width = max(width, 1)

	occupied := make([]bool, cols*rows)
	var cells []cell
	for _, p := range particles {
		if p.X < 0 || p.Y < 0 {
			continue
		}
		col := int(p.X / screenW * float64(cols))
		row := int(p.Y / screenH * float64(rows))
		if col+width > cols || row >= rows {
			continue
		}

		free := true
		for i := range width {
			if occupied[row*cols+col+i] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for i := range width {
			occupied[row*cols+col+i] = true
		}
		cells = append(cells, cell{Col: col, Row: row, Faint: p.Opacity < fadedOpacity})
	}
	return cells
}

// renderCanvas draws glyph at every placed particle on a blank grid.
func renderCanvas(glyph string, particles []particle.Transform, screenW, screenH float64, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	width := lipgloss.Width(glyph)

	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}

	for _, c := range place(particles, screenW, screenH, cols, rows, width) {
		g := glyph
		if c.Faint {
			g = fadedStyle.Render(glyph)
		}
		grid[c.Row][c.Col] = g
		// The glyph covers the following columns.
		for i := 1; i < width; i++ {
			grid[c.Row][c.Col+i] = ""
		}
	}

	lines := make([]string, rows)
	for r, row := range grid {
		lines[r] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}
