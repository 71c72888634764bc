// Package icon maps notification categories to glyphs and rasterizes them
// into the small PNG badges desktop notification services expect.
package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/nateberkopec/jobalert/internal/gateway"
)

// Size is the edge length of rendered icons in pixels.
const Size = 64

// Icon describes the visual of a single alert.
type Icon struct {
	Category gateway.Category
	Glyph    string
	// Mark is the ASCII stand-in drawn on the raster badge.
	Mark  string
	Color color.RGBA
}

var icons = map[gateway.Category]Icon{
	gateway.CategoryCritical: {Category: gateway.CategoryCritical, Glyph: "🔥", Mark: "!", Color: color.RGBA{R: 0xd9, G: 0x3b, B: 0x2b, A: 0xff}},
	gateway.CategoryUrgent:   {Category: gateway.CategoryUrgent, Glyph: "⚡", Mark: ">", Color: color.RGBA{R: 0xf2, G: 0xa3, B: 0x1b, A: 0xff}},
	gateway.CategoryNewJob:   {Category: gateway.CategoryNewJob, Glyph: "💼", Mark: "J", Color: color.RGBA{R: 0x2f, G: 0x7d, B: 0xd1, A: 0xff}},
	gateway.CategoryDefault:  {Category: gateway.CategoryDefault, Glyph: "🔔", Mark: "i", Color: color.RGBA{R: 0x6b, G: 0x6f, B: 0x7a, A: 0xff}},
}

// For returns the icon for a category. Unrecognized categories fall back to
// the default bell.
func For(category gateway.Category) Icon {
	if ic, ok := icons[category]; ok {
		return ic
	}
	return icons[gateway.CategoryDefault]
}

var (
	pngMu    sync.Mutex
	pngCache = map[gateway.Category][]byte{}
)

// PNG rasterizes the icon into a Size×Size badge. Results are cached per
// category.
func (ic Icon) PNG() ([]byte, error) {
	pngMu.Lock()
	defer pngMu.Unlock()

	if data, ok := pngCache[ic.Category]; ok {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, ic.render()); err != nil {
		return nil, fmt.Errorf("encode icon: %w", err)
	}
	data := buf.Bytes()
	pngCache[ic.Category] = data
	return data, nil
}

// File writes the PNG badge into dir (once) and returns its path, for
// backends that only accept icon paths.
func (ic Icon) File(dir string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("icon-%s.png", ic.Category))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	data, err := ic.PNG()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create icon dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write icon: %w", err)
	}
	return path, nil
}

// render draws the mark on a small filled disc and scales it up. basicfont
// is a 7x13 bitmap face, so drawing small and resizing keeps the mark legible.
func (ic Icon) render() image.Image {
	const base = 16

	img := image.NewRGBA(image.Rect(0, 0, base, base))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	center := float64(base-1) / 2
	radius := float64(base) / 2
	for y := 0; y < base; y++ {
		for x := 0; x < base; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, ic.Color)
			}
		}
	}

	face := basicfont.Face7x13
	width := font.MeasureString(face, ic.Mark).Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P((base-width)/2, (base+face.Ascent-face.Descent)/2),
	}
	d.DrawString(ic.Mark)

	return resize.Resize(Size, Size, img, resize.NearestNeighbor)
}
