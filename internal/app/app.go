// Package app holds the photobooth session: readiness, the gesture loop, the
// overlay and preview surfaces, and the single photo slot.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/photobooth/internal/capture"
	"github.com/ayusman/photobooth/internal/detector"
	"github.com/ayusman/photobooth/internal/log"
)

// LoopState reports whether the gesture loop has completed an iteration.
type LoopState int

const (
	StateIdle LoopState = iota
	StateRunning
)

func (s LoopState) String() string {
	switch s {
	case StateRunning:
		return "running"
	default:
		return "idle"
	}
}

// Loader produces a ready detector. It may block for a long time.
type Loader func(ctx context.Context) (detector.Detector, error)

// Config holds configuration options for the session.
type Config struct {
	// Camera is the frame source. Nil opens device CameraID.
	Camera   capture.Camera
	CameraID int
	// Clock paces the loop. Nil ticks at FPS.
	Clock Clock
	FPS   int
	// CaptureCooldown suppresses captures closer together than this.
	// Zero captures on every matching iteration.
	CaptureCooldown time.Duration
}

// Status is a snapshot of the session for host surfaces.
type Status struct {
	State       string     `json:"state"`
	CameraReady bool       `json:"camera_ready"`
	ModelReady  bool       `json:"model_ready"`
	Iterations  uint64     `json:"iterations"`
	Captures    uint64     `json:"captures"`
	Photo       *PhotoInfo `json:"photo,omitempty"`
}

// App is one photobooth session. It is created by New and discarded by Close.
type App struct {
	config Config
	camera capture.Camera
	clock  Clock

	mu          sync.RWMutex
	detector    detector.Detector
	cameraReady bool
	state       LoopState
	looping     bool
	closed      bool
	photo       *Photo
	lastCapture time.Time
	iterations  uint64
	captures    uint64
	subscribers map[int]func(Event)
	nextSubID   int

	// iterMu serialises iterations and owns overlay and captureMat.
	iterMu     sync.Mutex
	overlay    gocv.Mat
	captureMat gocv.Mat

	previewMu sync.RWMutex
	preview   gocv.Mat

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a session. Nothing is opened until AttachCamera or Start.
func New(config Config) *App {
	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraID)
	}
	if config.FPS > 0 {
		camera.SetFPS(config.FPS)
	}
	clock := config.Clock
	if clock == nil {
		clock = NewTickerClock(config.FPS)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		config:      config,
		camera:      camera,
		clock:       clock,
		subscribers: make(map[int]func(Event)),
		overlay:     gocv.NewMat(),
		captureMat:  gocv.NewMat(),
		preview:     gocv.NewMat(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start attaches the camera and loads the detector concurrently. The loop
// begins once both have succeeded. The returned channel receives the result
// of each task (nil on success) and is closed when both are done.
func (a *App) Start(ctx context.Context, load Loader) <-chan error {
	results := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results <- a.AttachCamera()
	}()
	go func() {
		defer wg.Done()
		results <- <-a.LoadDetector(ctx, load)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// AttachCamera opens the frame source. Failure is terminal for the session:
// it is logged and the loop never starts.
func (a *App) AttachCamera() error {
	if err := a.camera.Open(); err != nil {
		log.Error("error accessing camera", "err", err)
		return fmt.Errorf("attach camera: %w", err)
	}
	log.Info("camera is set up")

	a.mu.Lock()
	a.cameraReady = true
	a.mu.Unlock()

	a.maybeStart()
	return nil
}

// SetDetector installs a ready detector, replacing and closing any previous one.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		if d != nil {
			d.Close()
		}
		return
	}
	old := a.detector
	a.detector = d
	a.mu.Unlock()

	if old != nil && old != d {
		if err := old.Close(); err != nil {
			log.Warn("close previous detector", "err", err)
		}
	}
	if d != nil {
		log.Info("handpose model loaded")
	}
	a.maybeStart()
}

// LoadDetector runs load in the background and installs the result.
// The returned channel receives the load error, or nil, exactly once.
func (a *App) LoadDetector(ctx context.Context, load Loader) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		d, err := load(ctx)
		if err != nil {
			log.Error("handpose model failed to load", "err", err)
			done <- fmt.Errorf("load detector: %w", err)
			return
		}
		a.SetDetector(d)
		done <- nil
	}()
	return done
}

// maybeStart is the join of the two readiness signals. It starts the loop
// goroutine when both are satisfied and no loop is running.
func (a *App) maybeStart() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.looping {
		return
	}
	if a.detector == nil || !a.cameraReady {
		log.Info("waiting for model and video",
			"model_ready", a.detector != nil, "camera_ready", a.cameraReady)
		return
	}

	a.looping = true
	a.wg.Add(1)
	go a.run(a.ctx)
}

// State returns the loop state.
func (a *App) State() LoopState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Ready reports whether both the camera and the detector are available.
func (a *App) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cameraReady && a.detector != nil && !a.closed
}

// Status returns a snapshot for host surfaces.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{
		State:       a.state.String(),
		CameraReady: a.cameraReady,
		ModelReady:  a.detector != nil,
		Iterations:  a.iterations,
		Captures:    a.captures,
		Photo:       a.photo.Info(),
	}
}

// Photo returns the most recent capture, or nil before the first one.
// The returned value must not be modified.
func (a *App) Photo() *Photo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.photo
}

// PreviewJPEG encodes the latest frame with the overlay composited on it.
func (a *App) PreviewJPEG(quality int) ([]byte, error) {
	a.previewMu.RLock()
	defer a.previewMu.RUnlock()

	if a.preview.Empty() {
		return nil, capture.ErrEmptyFrame
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, a.preview, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// PreviewImage returns the latest composited frame as an image.
func (a *App) PreviewImage() (image.Image, error) {
	a.previewMu.RLock()
	defer a.previewMu.RUnlock()

	if a.preview.Empty() {
		return nil, capture.ErrEmptyFrame
	}
	return a.preview.ToImage()
}

// Subscribe registers fn to receive an Event after every iteration. fn runs
// on the loop goroutine and must not block. The returned func unsubscribes.
func (a *App) Subscribe(fn func(Event)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSubID
	a.nextSubID++
	a.subscribers[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subscribers, id)
	}
}

func (a *App) publish(e Event) {
	a.mu.RLock()
	subs := make([]func(Event), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		subs = append(subs, fn)
	}
	a.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

// Close stops the loop, waits for the running iteration to finish and
// releases the camera, the detector and all surfaces. Close must not be
// called from a subscriber.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	det := a.detector
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
	a.clock.Stop()

	a.iterMu.Lock()
	defer a.iterMu.Unlock()

	var errs []error
	if err := a.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if det != nil {
		if err := det.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}
	}
	a.overlay.Close()
	a.captureMat.Close()

	a.previewMu.Lock()
	a.preview.Close()
	a.previewMu.Unlock()

	log.Info("session closed")
	return errors.Join(errs...)
}
