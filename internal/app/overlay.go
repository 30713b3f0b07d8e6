package app

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/photobooth/internal/detector"
	"github.com/ayusman/photobooth/internal/gesture"
)

// Overlay styling.
const (
	MarkerRadius = 5
	ChainWidth   = 2
)

var (
	MarkerColor = color.RGBA{R: 255, A: 255}
	ChainColor  = color.RGBA{G: 255, A: 255}
)

// resizeSurface makes m a width x height surface of type typ. An existing
// surface of the right shape is kept as is.
func resizeSurface(m *gocv.Mat, width, height int, typ gocv.MatType) {
	if !m.Empty() && m.Cols() == width && m.Rows() == height && m.Type() == typ {
		return
	}
	m.Close()
	*m = gocv.NewMatWithSize(height, width, typ)
	m.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// drawHand draws a filled marker on every landmark, then the five finger
// chains from the wrist.
func drawHand(dst *gocv.Mat, hand *detector.HandLandmarks) {
	for _, p := range hand.Points {
		gocv.Circle(dst, toPoint(p), MarkerRadius, MarkerColor, -1)
	}
	for _, chain := range gesture.FingerChains {
		for i := 0; i < len(chain)-1; i++ {
			from := toPoint(hand.Points[chain[i]])
			to := toPoint(hand.Points[chain[i+1]])
			gocv.Line(dst, from, to, ChainColor, ChainWidth)
		}
	}
}

func toPoint(p detector.Point3D) image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}

// composite writes frame into dst with every non-black overlay pixel drawn
// over it.
func composite(frame, overlay gocv.Mat, dst *gocv.Mat) {
	frame.CopyTo(dst)
	if overlay.Empty() || overlay.Cols() != frame.Cols() || overlay.Rows() != frame.Rows() {
		return
	}

	gray := overlay
	if overlay.Channels() > 1 {
		converted := gocv.NewMat()
		defer converted.Close()
		gocv.CvtColor(overlay, &converted, gocv.ColorBGRToGray)
		gray = converted
	}

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, 0, 255, gocv.ThresholdBinary)
	overlay.CopyToWithMask(dst, mask)
}
