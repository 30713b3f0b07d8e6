// Package preview shows the live composited preview and the last photo in a
// native window. The window's update tick paces the gesture loop.
package preview

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ayusman/photobooth/internal/app"
	"github.com/ayusman/photobooth/internal/log"
)

// Source is what the window draws from.
type Source interface {
	PreviewImage() (image.Image, error)
	Photo() *app.Photo
}

// Ticker receives one tick per window update.
type Ticker interface {
	Tick()
}

const thumbnailScale = 0.25

// Window renders the session using Ebitengine.
type Window struct {
	source  Source
	ticker  Ticker
	saveDir string

	mu      sync.Mutex
	message string

	live    *ebiten.Image
	photo   *ebiten.Image
	photoID uuid.UUID
}

// New creates a window over source. ticker may be nil. Saved photos go to
// saveDir.
func New(source Source, ticker Ticker, saveDir string) *Window {
	return &Window{
		source:  source,
		ticker:  ticker,
		saveDir: saveDir,
		message: "S: save photo.png   Esc: quit",
	}
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
// It returns nil when the user quits.
func (w *Window) Run() error {
	ebiten.SetWindowSize(960, 720)
	ebiten.SetWindowTitle("Photobooth")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(w)
}

func (w *Window) Update() error {
	if w.ticker != nil {
		w.ticker.Tick()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		w.save()
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()

	if img, err := w.source.PreviewImage(); err == nil {
		w.live = toEbiten(w.live, img)
		fw, fh := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
		scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), fw, fh)

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(offsetX, offsetY)
		screen.DrawImage(w.live, op)
	}

	w.refreshPhoto()
	if w.photo != nil {
		pw, ph := float64(w.photo.Bounds().Dx()), float64(w.photo.Bounds().Dy())
		scale, _, _ := aspectFitTransform(float64(sw)*thumbnailScale, float64(sh)*thumbnailScale, pw, ph)

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(float64(sw)-pw*scale-8, float64(sh)-ph*scale-8)
		screen.DrawImage(w.photo, op)
	}

	ebitenutil.DebugPrint(screen, w.Message())
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Message returns the status line drawn in the corner.
func (w *Window) Message() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.message
}

func (w *Window) setMessage(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.message = msg
}

// refreshPhoto decodes the held photo when it changed since the last draw.
func (w *Window) refreshPhoto() {
	photo := w.source.Photo()
	if photo == nil || photo.ID == w.photoID {
		return
	}

	img, err := png.Decode(bytes.NewReader(photo.PNG))
	if err != nil {
		log.Warn("decode photo for thumbnail", "photo_id", photo.ID, "err", err)
		w.photoID = photo.ID
		return
	}
	if w.photo != nil {
		w.photo.Deallocate()
	}
	w.photo = ebiten.NewImageFromImage(img)
	w.photoID = photo.ID
}

// save writes the held photo to saveDir/photo.png.
func (w *Window) save() {
	path := filepath.Join(w.saveDir, app.PhotoFilename)
	if err := w.source.Photo().Save(path); err != nil {
		log.Warn("save photo", "path", path, "err", err)
		w.setMessage("No photo to save yet")
		return
	}
	log.Info("photo saved", "path", path)
	w.setMessage("Saved " + path)
}

// toEbiten copies img into dst, reallocating when the size changed.
func toEbiten(dst *ebiten.Image, img image.Image) *ebiten.Image {
	b := img.Bounds()
	if dst == nil || dst.Bounds().Dx() != b.Dx() || dst.Bounds().Dy() != b.Dy() {
		if dst != nil {
			dst.Deallocate()
		}
		dst = ebiten.NewImage(b.Dx(), b.Dy())
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() {
		dst.WritePixels(rgba.Pix)
		return dst
	}
	dst.Clear()
	dst.DrawImage(ebiten.NewImageFromImage(img), nil)
	return dst
}

// aspectFitTransform returns scale and offsets to fit frame into view with letterboxing.
func aspectFitTransform(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}
