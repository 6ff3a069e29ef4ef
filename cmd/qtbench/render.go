package main

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/pkg/errors"
	quadtree "github.com/rob05c/cquadtree"
)

// renderSize is the width and height in pixels of rendered trees.
const renderSize = 1024

// render draws the outline of every node of the tree, and the given points,
// on a white image.
func render(w quadtree.Walker, root quadtree.BoundingBox, points []quadtree.Point) image.Image {
	r := image.Rect(0, 0, renderSize, renderSize)
	img := image.NewGray(r)
	draw.Draw(img, r, &image.Uniform{color.Gray{Y: 255}}, image.Point{}, draw.Src)

	minX := root.Center.X - root.HalfDimension.X
	minY := root.Center.Y - root.HalfDimension.Y
	scaleX := float64(renderSize-1) / (2 * root.HalfDimension.X)
	scaleY := float64(renderSize-1) / (2 * root.HalfDimension.Y)
	toPixel := func(x, y float64) image.Point {
		return image.Pt(int((x-minX)*scaleX), int((y-minY)*scaleY))
	}

	for _, p := range points {
		px := toPixel(p.X, p.Y)
		img.SetGray(px.X, px.Y, color.Gray{Y: 160})
	}

	edge := &image.Uniform{color.Gray{Y: 0}}
	w.Walk(func(_ int, b quadtree.BoundingBox, _ bool) {
		lo := toPixel(b.Center.X-b.HalfDimension.X, b.Center.Y-b.HalfDimension.Y)
		hi := toPixel(b.Center.X+b.HalfDimension.X, b.Center.Y+b.HalfDimension.Y)
		draw.Draw(img, image.Rect(lo.X, lo.Y, hi.X+1, lo.Y+1), edge, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(lo.X, lo.Y, lo.X+1, hi.Y+1), edge, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(lo.X, hi.Y, hi.X+1, hi.Y+1), edge, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(hi.X, lo.Y, hi.X+1, hi.Y+1), edge, image.Point{}, draw.Src)
	})
	return img
}

func renderFile(path string, w quadtree.Walker, points []quadtree.Point) error {
	root := boundary
	if q, ok := w.(quadtree.Quadtree); ok {
		root = q.Boundary()
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := png.Encode(f, render(w, root, points)); err != nil {
		f.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}
