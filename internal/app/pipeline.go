package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/photobooth/internal/gesture"
	"github.com/ayusman/photobooth/internal/log"
)

// run drives Iterate once per clock tick until the session closes or an
// iteration reports it could not run.
func (a *App) run(ctx context.Context) {
	defer a.wg.Done()
	defer func() {
		a.mu.Lock()
		a.looping = false
		a.mu.Unlock()
	}()

	ticks := a.clock.Ticks()
	for {
		ran, err := a.Iterate()
		if err != nil {
			log.Warn("iteration failed", "err", err)
		}
		if !ran {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}
	}
}

// Iterate runs one pass of the gesture loop: read a frame, estimate hands,
// redraw the overlay and capture on every peace sign. ran is false only when
// the session is not ready, in which case nothing else happens. A read or
// estimation failure skips the rest of the iteration and is returned with
// ran set to true.
func (a *App) Iterate() (ran bool, err error) {
	a.iterMu.Lock()
	defer a.iterMu.Unlock()

	a.mu.Lock()
	det := a.detector
	ready := det != nil && a.cameraReady && !a.closed
	if ready && a.state == StateIdle {
		a.state = StateRunning
		log.Info("starting hand detection")
	}
	if ready {
		a.iterations++
	}
	a.mu.Unlock()

	if !ready {
		log.Warn("waiting for model and video")
		return false, nil
	}

	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.publish(Event{Timestamp: time.Now().UnixMilli(), Error: err.Error()})
		return true, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	width, height := frame.Cols(), frame.Rows()
	resizeSurface(&a.overlay, width, height, frame.Type())

	hands, err := det.Detect(frame)
	if err != nil {
		a.publish(Event{Timestamp: time.Now().UnixMilli(), Width: width, Height: height, Error: err.Error()})
		return true, fmt.Errorf("estimate hands: %w", err)
	}

	a.overlay.SetTo(gocv.NewScalar(0, 0, 0, 0))

	event := Event{
		Timestamp: time.Now().UnixMilli(),
		Width:     width,
		Height:    height,
		Hands:     hands,
		Peace:     make([]bool, 0, len(hands)),
	}
	if len(hands) == 0 {
		log.Debug("no hands detected")
	} else {
		log.Debug("hand detected", "hands", len(hands))
	}

	for i := range hands {
		hand := &hands[i]
		drawHand(&a.overlay, hand)

		peace := gesture.IsPeaceSign(hand)
		log.Debug("peace sign detected", "hand", i, "peace", peace)
		event.Peace = append(event.Peace, peace)
		if !peace {
			continue
		}

		photo, err := a.capture(frame)
		if err != nil {
			log.Error("capture failed", "err", err)
			continue
		}
		if photo != nil {
			event.Photo = photo.Info()
		}
	}

	a.updatePreview(frame)
	a.publish(event)
	return true, nil
}

// capture paints frame onto the capture surface, encodes it as PNG and
// replaces the held photo. It returns nil without error when the cooldown
// suppressed the capture.
func (a *App) capture(frame *gocv.Mat) (*Photo, error) {
	now := time.Now()
	if cooldown := a.config.CaptureCooldown; cooldown > 0 {
		a.mu.RLock()
		last := a.lastCapture
		a.mu.RUnlock()
		if !last.IsZero() && now.Sub(last) < cooldown {
			log.Debug("capture suppressed by cooldown", "since_last", now.Sub(last))
			return nil, nil
		}
	}

	log.Info("taking photo", "width", frame.Cols(), "height", frame.Rows())
	resizeSurface(&a.captureMat, frame.Cols(), frame.Rows(), frame.Type())
	frame.CopyTo(&a.captureMat)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, a.captureMat)
	if err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	photo := &Photo{
		ID:         uuid.New(),
		PNG:        data,
		Width:      a.captureMat.Cols(),
		Height:     a.captureMat.Rows(),
		CapturedAt: now,
	}

	a.mu.Lock()
	a.photo = photo
	a.lastCapture = now
	a.captures++
	a.mu.Unlock()

	log.Info("photo captured", "photo_id", photo.ID, "bytes", len(data))
	return photo, nil
}

// updatePreview composites the overlay onto a copy of frame for readers on
// other goroutines.
func (a *App) updatePreview(frame *gocv.Mat) {
	composited := gocv.NewMat()
	composite(*frame, a.overlay, &composited)

	a.previewMu.Lock()
	a.preview.Close()
	a.preview = composited
	a.previewMu.Unlock()
}
