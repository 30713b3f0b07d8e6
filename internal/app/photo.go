package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/photobooth/internal/detector"
)

// PhotoFilename is the name offered when the photo is exported.
const PhotoFilename = "photo.png"

// ErrNoPhoto is returned when no photo has been captured yet.
var ErrNoPhoto = errors.New("no photo captured")

// Photo is the single captured still. A Photo is never mutated after it is
// stored; a new capture replaces the pointer.
type Photo struct {
	ID         uuid.UUID
	PNG        []byte
	Width      int
	Height     int
	CapturedAt time.Time
}

// PhotoInfo is the JSON-facing description of a Photo.
type PhotoInfo struct {
	ID         string    `json:"id"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Size       int       `json:"size"`
	CapturedAt time.Time `json:"captured_at"`
}

// Info returns the photo metadata without the pixels.
func (p *Photo) Info() *PhotoInfo {
	if p == nil {
		return nil
	}
	return &PhotoInfo{
		ID:         p.ID.String(),
		Width:      p.Width,
		Height:     p.Height,
		Size:       len(p.PNG),
		CapturedAt: p.CapturedAt,
	}
}

// Save writes the PNG to path.
func (p *Photo) Save(path string) error {
	if p == nil {
		return ErrNoPhoto
	}
	if err := os.WriteFile(path, p.PNG, 0644); err != nil {
		return fmt.Errorf("save photo: %w", err)
	}
	return nil
}

// Event describes one completed loop iteration.
type Event struct {
	Timestamp int64                    `json:"timestamp"`
	Width     int                      `json:"width"`
	Height    int                      `json:"height"`
	Hands     []detector.HandLandmarks `json:"hands"`
	Peace     []bool                   `json:"peace"`
	Photo     *PhotoInfo               `json:"photo,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// Captured reports whether this iteration replaced the photo.
func (e Event) Captured() bool {
	return e.Photo != nil
}
