package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"fyne.io/fyne/v2"
	"golang.org/x/image/vector"
)

const iconSize = 64

var iconBlue = color.RGBA{R: 0, G: 128, B: 255, A: 255}

// kappa places cubic Bézier control points so four segments approximate a circle.
const kappa = 0.5522847498

// renderIcon draws the tray icon: a blue disc centered on a white square, the
// disc spanning the middle half of the image.
func renderIcon(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	c := float32(size) / 2
	r := float32(size) / 4
	k := kappa * r

	z := vector.NewRasterizer(size, size)
	z.MoveTo(c+r, c)
	z.CubeTo(c+r, c+k, c+k, c+r, c, c+r)
	z.CubeTo(c-k, c+r, c-r, c+k, c-r, c)
	z.CubeTo(c-r, c-k, c-k, c-r, c, c-r)
	z.CubeTo(c+k, c-r, c+r, c-k, c+r, c)
	z.ClosePath()
	z.Draw(img, img.Bounds(), image.NewUniform(iconBlue), image.Point{})

	return img
}

// iconResource encodes the tray icon as a PNG resource
func iconResource() (fyne.Resource, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, renderIcon(iconSize)); err != nil {
		return nil, err
	}
	return fyne.NewStaticResource("autocopy.png", buf.Bytes()), nil
}
