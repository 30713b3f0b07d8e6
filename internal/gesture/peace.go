// Package gesture decides whether a detected hand shows the capture gesture.
package gesture

import "github.com/ayusman/photobooth/internal/detector"

// fingerStart is the first landmark of the finger list the heuristic reads
// (the index finger base). Everything from here to the pinky tip is used.
const fingerStart = detector.IndexMCP

// FingerChains are the landmark paths drawn for each finger, wrist first.
var FingerChains = [5][5]int{
	{detector.Wrist, detector.ThumbCMC, detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip},
	{detector.Wrist, detector.MiddleMCP, detector.MiddlePIP, detector.MiddleDIP, detector.MiddleTip},
	{detector.Wrist, detector.RingMCP, detector.RingPIP, detector.RingDIP, detector.RingTip},
	{detector.Wrist, detector.PinkyMCP, detector.PinkyPIP, detector.PinkyDIP, detector.PinkyTip},
}

// FingerHeights returns the Y coordinate of landmarks 5 through 20 in order.
func FingerHeights(hand *detector.HandLandmarks) [detector.NumLandmarks - fingerStart]float64 {
	var v [detector.NumLandmarks - fingerStart]float64
	for i := range v {
		v[i] = hand.Points[fingerStart+i].Y
	}
	return v
}

// IsPeaceSign reports whether hand passes the peace-sign heuristic:
// v[0] > v[1] && v[2] < v[3] over FingerHeights. It compares positions in
// that list only; finger curl, handedness and which fingers are raised are
// not checked.
func IsPeaceSign(hand *detector.HandLandmarks) bool {
	if hand == nil {
		return false
	}
	v := FingerHeights(hand)
	return v[0] > v[1] && v[2] < v[3]
}
