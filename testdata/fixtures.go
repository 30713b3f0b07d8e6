// Package testdata synthesises frames for tests that need real pixels.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// SolidFrame returns a width x height BGR frame filled with c.
// The caller owns the returned Mat.
func SolidFrame(width, height int, c color.RGBA) *gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0),
		height, width, gocv.MatTypeCV8UC3,
	)
	return &mat
}

// SplitFrame returns a frame whose left half is left and right half is right,
// so tests can tell a copied frame from a blank one by sampling pixels.
func SplitFrame(width, height int, left, right color.RGBA) *gocv.Mat {
	mat := SolidFrame(width, height, left)
	rect := image.Rect(width/2, 0, width, height)
	gocv.Rectangle(mat, rect, right, -1)
	return mat
}

// LoadSequence returns n solid frames of the given size, each a slightly
// different grey, for loop tests that read many frames.
func LoadSequence(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		g := uint8(40 + (i*20)%200)
		frames = append(frames, SolidFrame(width, height, color.RGBA{R: g, G: g, B: g, A: 255}))
	}
	return frames
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
