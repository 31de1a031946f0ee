// Package render draws a game.Grid as an image.
//
// Cells are coloured with the same priority as the text render: occupant,
// food on a damaging cell, food, damaging cell, empty. Healing cells are
// tinted green, which the text render has no symbol for.
package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/brensch/snekgrid/game"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

type Options struct {
	BlockSize int // pixels per cell before scaling
	Scale     float64
	Highlight string // snake ID drawn in the accent colour
}

var DefaultOptions = Options{BlockSize: 20, Scale: 1}

var (
	colorEmpty   = color.RGBA{R: 0xf4, G: 0xf4, B: 0xf4, A: 0xff}
	colorGrid    = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	colorHazard  = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff}
	colorHealing = color.RGBA{R: 0xb9, G: 0xf6, B: 0xca, A: 0xff}
	colorFood    = color.RGBA{R: 0xff, G: 0x57, B: 0x22, A: 0xff}
	colorSnake   = color.RGBA{R: 0x3f, G: 0x51, B: 0xb5, A: 0xff}
	colorAccent  = color.RGBA{R: 0xee, G: 0x2c, B: 0x2c, A: 0xff}
)

// CellColor returns the fill colour of one cell.
func CellColor(cell *game.Cell, highlight string) color.Color {
	switch {
	case cell.Occupant != nil:
		if highlight != "" && cell.Occupant.ID == highlight {
			return colorAccent
		}
		return colorSnake
	case cell.Food:
		return colorFood
	case cell.Hazard > 0:
		return colorHazard
	case cell.Hazard < 0:
		return colorHealing
	default:
		return colorEmpty
	}
}

// Image renders g. (0,0) is drawn bottom-left.
func Image(g *game.Grid, opts Options) image.Image {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultOptions.BlockSize
	}
	bs := opts.BlockSize
	w, h := g.Width*bs, g.Height*bs

	dc := gg.NewContext(w, h)
	dc.SetColor(colorEmpty)
	dc.Clear()

	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			cell := g.Cell(game.Coord{X: x, Y: y})
			px := float64(x * bs)
			py := float64((g.Height - 1 - y) * bs)

			dc.SetColor(CellColor(cell, opts.Highlight))
			if cell.Food && cell.Occupant == nil {
				if cell.Hazard > 0 {
					dc.SetColor(colorHazard)
					dc.DrawRectangle(px, py, float64(bs), float64(bs))
					dc.Fill()
					dc.SetColor(colorFood)
				}
				dc.DrawCircle(px+float64(bs)/2, py+float64(bs)/2, float64(bs)/3)
			} else {
				dc.DrawRectangle(px, py, float64(bs), float64(bs))
			}
			dc.Fill()
		}
	}

	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	for x := 0; x <= w; x += bs {
		dc.DrawLine(float64(x), 0, float64(x), float64(h))
		dc.Stroke()
	}
	for y := 0; y <= h; y += bs {
		dc.DrawLine(0, float64(y), float64(w), float64(y))
		dc.Stroke()
	}

	img := dc.Image()
	if opts.Scale > 0 && opts.Scale != 1 {
		sw := int(float64(w) * opts.Scale)
		sh := int(float64(h) * opts.Scale)
		if sw > 0 && sh > 0 {
			img = imaging.Resize(img, sw, sh, imaging.NearestNeighbor)
		}
	}
	return img
}

// SavePNG renders g to path, creating parent directories.
func SavePNG(g *game.Grid, path string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := imaging.Save(Image(g, opts), path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
