package gesture

import (
	"testing"

	"github.com/ayusman/photobooth/internal/detector"
)

// handWithHeights returns a hand whose first four finger heights are v.
func handWithHeights(v [4]float64) *detector.HandLandmarks {
	hand := &detector.HandLandmarks{Handedness: "Right", Score: 0.9}
	for i := range hand.Points {
		hand.Points[i] = detector.Point3D{X: float64(i), Y: 100}
	}
	for i, y := range v {
		hand.Points[detector.IndexMCP+i].Y = y
	}
	return hand
}

func TestIsPeaceSign(t *testing.T) {
	tests := []struct {
		name string
		v    [4]float64
		want bool
	}{
		{name: "both comparisons hold", v: [4]float64{10, 5, 3, 8}, want: true},
		{name: "first comparison fails", v: [4]float64{5, 10, 3, 8}, want: false},
		{name: "first fails regardless of second", v: [4]float64{5, 10, 8, 3}, want: false},
		{name: "second comparison fails", v: [4]float64{10, 5, 8, 3}, want: false},
		{name: "first equal is not greater", v: [4]float64{5, 5, 3, 8}, want: false},
		{name: "second equal is not less", v: [4]float64{10, 5, 8, 8}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPeaceSign(handWithHeights(tt.v)); got != tt.want {
				t.Errorf("IsPeaceSign(v=%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestIsPeaceSign_IgnoresOtherLandmarks(t *testing.T) {
	hand := handWithHeights([4]float64{10, 5, 3, 8})

	// Wrist, thumb and every landmark past index 8 play no part
	for _, i := range []int{detector.Wrist, detector.ThumbTip, detector.MiddleTip, detector.PinkyTip} {
		hand.Points[i].Y = -1000
	}

	if !IsPeaceSign(hand) {
		t.Error("IsPeaceSign should only read landmarks 5 to 8")
	}
}

func TestIsPeaceSign_Nil(t *testing.T) {
	if IsPeaceSign(nil) {
		t.Error("IsPeaceSign(nil) = true, want false")
	}
}

func TestIsPeaceSign_Presets(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want bool
	}{
		{name: "peace sign", hand: detector.PeaceSignLandmarks(), want: true},
		{name: "open palm", hand: detector.OpenPalmLandmarks(), want: false},
		{name: "fist", hand: detector.FistLandmarks(), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPeaceSign(&tt.hand); got != tt.want {
				t.Errorf("IsPeaceSign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFingerHeights(t *testing.T) {
	hand := &detector.HandLandmarks{}
	for i := range hand.Points {
		hand.Points[i].Y = float64(i * 10)
	}

	v := FingerHeights(hand)

	if len(v) != 16 {
		t.Fatalf("len = %d, want 16", len(v))
	}
	if v[0] != 50 {
		t.Errorf("v[0] = %f, want 50 (landmark 5)", v[0])
	}
	if v[15] != 200 {
		t.Errorf("v[15] = %f, want 200 (landmark 20)", v[15])
	}
}

func TestFingerChains(t *testing.T) {
	want := [5][5]int{
		{0, 1, 2, 3, 4},
		{0, 5, 6, 7, 8},
		{0, 9, 10, 11, 12},
		{0, 13, 14, 15, 16},
		{0, 17, 18, 19, 20},
	}
	if FingerChains != want {
		t.Errorf("FingerChains = %v, want %v", FingerChains, want)
	}
}
