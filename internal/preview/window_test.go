package preview

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/photobooth/internal/app"
	"github.com/ayusman/photobooth/internal/capture"
)

type fakeSource struct {
	photo *app.Photo
}

func (f *fakeSource) PreviewImage() (image.Image, error) { return nil, capture.ErrEmptyFrame }
func (f *fakeSource) Photo() *app.Photo                  { return f.photo }

type countingTicker struct{ n int }

func (c *countingTicker) Tick() { c.n++ }

func TestAspectFitTransform(t *testing.T) {
	tests := []struct {
		name                    string
		viewW, viewH            float64
		frameW, frameH          float64
		wantScale, wantX, wantY float64
	}{
		{"same size", 640, 480, 640, 480, 1, 0, 0},
		{"wider view letterboxes sides", 1280, 480, 640, 480, 1, 320, 0},
		{"taller view letterboxes top", 640, 960, 640, 480, 1, 0, 240},
		{"downscale", 320, 240, 640, 480, 0.5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale, x, y := aspectFitTransform(tt.viewW, tt.viewH, tt.frameW, tt.frameH)
			if math.Abs(scale-tt.wantScale) > 1e-9 || math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", scale, x, y, tt.wantScale, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestWindow_Save(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{}
	w := New(src, nil, dir)

	w.save()
	if _, err := os.Stat(filepath.Join(dir, app.PhotoFilename)); !os.IsNotExist(err) {
		t.Error("file written without a photo")
	}
	if w.Message() != "No photo to save yet" {
		t.Errorf("unexpected message %q", w.Message())
	}

	src.photo = &app.Photo{ID: uuid.New(), PNG: []byte("png bytes"), Width: 1, Height: 1, CapturedAt: time.Now()}
	w.save()

	got, err := os.ReadFile(filepath.Join(dir, app.PhotoFilename))
	if err != nil {
		t.Fatalf("read saved photo: %v", err)
	}
	if string(got) != "png bytes" {
		t.Errorf("saved %q", got)
	}
}

func TestWindow_UpdateTicks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that needs an ebiten input state in short mode")
	}
	ticker := &countingTicker{}
	w := New(&fakeSource{}, ticker, t.TempDir())

	for i := 0; i < 3; i++ {
		if err := w.Update(); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	if ticker.n != 3 {
		t.Errorf("ticks = %d, want 3", ticker.n)
	}
}
