package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetSequence queues per-call results. Each Detect call consumes one entry;
// once the queue is empty Detect falls back to the SetHands value.
func (m *MockDetector) SetSequence(seq ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// The presets below are right hands in 640x480 pixel space, palm facing
// the camera, wrist near the bottom centre.

// PeaceSignLandmarks returns index and middle fingers raised with the index
// tip hooked slightly toward the camera, a pose the peace-sign heuristic
// accepts.
func PeaceSignLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.97,
	}

	landmarks.Points[Wrist] = Point3D{X: 320, Y: 420, Z: 0}

	// Thumb folded across the palm
	landmarks.Points[ThumbCMC] = Point3D{X: 355, Y: 400, Z: -8}
	landmarks.Points[ThumbMCP] = Point3D{X: 375, Y: 370, Z: -14}
	landmarks.Points[ThumbIP] = Point3D{X: 360, Y: 345, Z: -18}
	landmarks.Points[ThumbTip] = Point3D{X: 335, Y: 335, Z: -20}

	// Index raised, tip dipping below the DIP joint
	landmarks.Points[IndexMCP] = Point3D{X: 350, Y: 310, Z: -5}
	landmarks.Points[IndexPIP] = Point3D{X: 360, Y: 250, Z: -8}
	landmarks.Points[IndexDIP] = Point3D{X: 366, Y: 205, Z: -12}
	landmarks.Points[IndexTip] = Point3D{X: 368, Y: 212, Z: -22}

	// Middle raised
	landmarks.Points[MiddleMCP] = Point3D{X: 320, Y: 305, Z: -4}
	landmarks.Points[MiddlePIP] = Point3D{X: 315, Y: 240, Z: -7}
	landmarks.Points[MiddleDIP] = Point3D{X: 312, Y: 195, Z: -10}
	landmarks.Points[MiddleTip] = Point3D{X: 310, Y: 155, Z: -12}

	// Ring curled
	landmarks.Points[RingMCP] = Point3D{X: 292, Y: 312, Z: -4}
	landmarks.Points[RingPIP] = Point3D{X: 290, Y: 290, Z: -20}
	landmarks.Points[RingDIP] = Point3D{X: 295, Y: 315, Z: -22}
	landmarks.Points[RingTip] = Point3D{X: 298, Y: 330, Z: -18}

	// Pinky curled
	landmarks.Points[PinkyMCP] = Point3D{X: 268, Y: 325, Z: -3}
	landmarks.Points[PinkyPIP] = Point3D{X: 266, Y: 308, Z: -16}
	landmarks.Points[PinkyDIP] = Point3D{X: 270, Y: 326, Z: -18}
	landmarks.Points[PinkyTip] = Point3D{X: 274, Y: 338, Z: -15}

	return landmarks
}

// OpenPalmLandmarks returns a hand with all fingers extended upward.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 320, Y: 420, Z: 0}

	// Thumb extended to the side
	landmarks.Points[ThumbCMC] = Point3D{X: 355, Y: 400, Z: 3}
	landmarks.Points[ThumbMCP] = Point3D{X: 390, Y: 375, Z: 5}
	landmarks.Points[ThumbIP] = Point3D{X: 420, Y: 350, Z: 5}
	landmarks.Points[ThumbTip] = Point3D{X: 445, Y: 330, Z: 5}

	landmarks.Points[IndexMCP] = Point3D{X: 350, Y: 310, Z: 0}
	landmarks.Points[IndexPIP] = Point3D{X: 360, Y: 250, Z: 0}
	landmarks.Points[IndexDIP] = Point3D{X: 365, Y: 205, Z: 0}
	landmarks.Points[IndexTip] = Point3D{X: 368, Y: 165, Z: 0}

	landmarks.Points[MiddleMCP] = Point3D{X: 320, Y: 305, Z: 0}
	landmarks.Points[MiddlePIP] = Point3D{X: 318, Y: 240, Z: 0}
	landmarks.Points[MiddleDIP] = Point3D{X: 316, Y: 190, Z: 0}
	landmarks.Points[MiddleTip] = Point3D{X: 315, Y: 145, Z: 0}

	landmarks.Points[RingMCP] = Point3D{X: 292, Y: 312, Z: 0}
	landmarks.Points[RingPIP] = Point3D{X: 285, Y: 255, Z: 0}
	landmarks.Points[RingDIP] = Point3D{X: 280, Y: 212, Z: 0}
	landmarks.Points[RingTip] = Point3D{X: 278, Y: 175, Z: 0}

	landmarks.Points[PinkyMCP] = Point3D{X: 268, Y: 325, Z: 0}
	landmarks.Points[PinkyPIP] = Point3D{X: 255, Y: 280, Z: 0}
	landmarks.Points[PinkyDIP] = Point3D{X: 248, Y: 250, Z: 0}
	landmarks.Points[PinkyTip] = Point3D{X: 244, Y: 222, Z: 0}

	return landmarks
}

// FistLandmarks returns a closed fist: every finger folded into the palm.
func FistLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.93,
	}

	landmarks.Points[Wrist] = Point3D{X: 320, Y: 420, Z: 0}

	landmarks.Points[ThumbCMC] = Point3D{X: 355, Y: 400, Z: -8}
	landmarks.Points[ThumbMCP] = Point3D{X: 375, Y: 372, Z: -14}
	landmarks.Points[ThumbIP] = Point3D{X: 362, Y: 350, Z: -20}
	landmarks.Points[ThumbTip] = Point3D{X: 338, Y: 342, Z: -24}

	landmarks.Points[IndexMCP] = Point3D{X: 350, Y: 310, Z: -5}
	landmarks.Points[IndexPIP] = Point3D{X: 352, Y: 318, Z: -25}
	landmarks.Points[IndexDIP] = Point3D{X: 350, Y: 338, Z: -24}
	landmarks.Points[IndexTip] = Point3D{X: 347, Y: 332, Z: -18}

	landmarks.Points[MiddleMCP] = Point3D{X: 320, Y: 305, Z: -4}
	landmarks.Points[MiddlePIP] = Point3D{X: 321, Y: 314, Z: -26}
	landmarks.Points[MiddleDIP] = Point3D{X: 320, Y: 336, Z: -25}
	landmarks.Points[MiddleTip] = Point3D{X: 318, Y: 330, Z: -19}

	landmarks.Points[RingMCP] = Point3D{X: 292, Y: 312, Z: -4}
	landmarks.Points[RingPIP] = Point3D{X: 292, Y: 320, Z: -24}
	landmarks.Points[RingDIP] = Point3D{X: 293, Y: 338, Z: -23}
	landmarks.Points[RingTip] = Point3D{X: 294, Y: 333, Z: -17}

	landmarks.Points[PinkyMCP] = Point3D{X: 268, Y: 325, Z: -3}
	landmarks.Points[PinkyPIP] = Point3D{X: 268, Y: 331, Z: -20}
	landmarks.Points[PinkyDIP] = Point3D{X: 270, Y: 344, Z: -19}
	landmarks.Points[PinkyTip] = Point3D{X: 272, Y: 340, Z: -14}

	return landmarks
}
