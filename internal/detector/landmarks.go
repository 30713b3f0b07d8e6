// Package detector provides the hand landmark estimator used by the gesture loop.
package detector

import (
	"errors"
	"fmt"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedHand is returned when an estimator reports a hand that does
// not have exactly NumLandmarks points.
var ErrMalformedHand = errors.New("malformed hand: landmark count mismatch")

// Point3D is a landmark position in frame pixel space. Y grows downward.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand: the 21 MediaPipe landmarks plus
// handedness and detection score.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// NewHandLandmarks builds a hand from a variable-length point list. Any
// count other than NumLandmarks yields ErrMalformedHand.
func NewHandLandmarks(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: got %d points, want %d", ErrMalformedHand, len(points), NumLandmarks)
	}

	hand := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(hand.Points[:], points)

	return hand, nil
}

// Scaled returns a copy with X and Z multiplied by width and Y by height,
// mapping normalized [0,1] coordinates into pixel space.
func (h HandLandmarks) Scaled(width, height int) HandLandmarks {
	w, ht := float64(width), float64(height)
	for i := range h.Points {
		h.Points[i].X *= w
		h.Points[i].Y *= ht
		h.Points[i].Z *= w
	}
	return h
}
