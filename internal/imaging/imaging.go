// Package imaging holds the decode and resize steps that run before the
// analyzer sees any pixels.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultTargetSize is the square canvas every image is letterboxed into
const DefaultTargetSize = 512

// Decode reads any registered image format and reports the format name
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, "", fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())
	}
	return img, format, nil
}

// Preprocess normalizes img to RGB, shrinks it to fit inside width×height
// keeping its aspect ratio (it is never enlarged), and centers it on a
// white canvas of exactly width×height.
func Preprocess(img image.Image, width, height int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	nw, nh := fitWithin(w, h, width, height)

	offset := image.Pt((width-nw)/2, (height-nh)/2)
	dst := image.Rectangle{Min: offset, Max: offset.Add(image.Pt(nw, nh))}

	if nw == w && nh == h {
		draw.Draw(canvas, dst, img, src.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(canvas, dst, img, src, draw.Over, nil)
	}
	return canvas
}

// ScaleToWidth returns img scaled uniformly so its width equals maxWidth
// when it is wider than that; narrower images are returned as RGBA copies
// of themselves. Height is derived from the width ratio only.
func ScaleToWidth(img image.Image, maxWidth int) *image.RGBA {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if w <= maxWidth {
		return ToRGBA(img)
	}

	scale := float64(maxWidth) / float64(w)
	nh := int(float64(h) * scale)
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}

// ToRGBA returns img as a zero-origin *image.RGBA, copying when needed
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// EncodePNG serializes img for collaborators that take encoded bytes
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	if nw > maxW {
		nw = maxW
	}
	if nh > maxH {
		nh = maxH
	}
	return nw, nh
}
