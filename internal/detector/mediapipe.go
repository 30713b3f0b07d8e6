package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/photobooth/internal/log"
)

// ErrServiceNotFound is returned when the MediaPipe service script cannot be located.
var ErrServiceNotFound = errors.New("mediapipe_service.py not found")

const serviceScript = "mediapipe_service.py"

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Wire protocol: each request is a 4-byte big-endian length followed by a
// JPEG frame on the service's stdin; each response is one JSON line on stdout
// with normalized landmark coordinates.
type MediaPipeDetector struct {
	config    Config
	launch    func() (*serviceConn, error)
	conn      *serviceConn
	mu        sync.Mutex
	lastUsed  time.Time
	idleTimer *time.Timer
}

// serviceConn is one running service instance.
type serviceConn struct {
	cmd *exec.Cmd
	w   io.WriteCloser
	r   *bufio.Reader
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findMediaPipeScript()
	}
	if scriptPath == "" {
		return nil, ErrServiceNotFound
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, err)
	}

	pythonPath := config.PythonPath
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d := &MediaPipeDetector{config: config}
	d.launch = func() (*serviceConn, error) {
		return startService(pythonPath, scriptPath, config)
	}
	return d, nil
}

// Load locates and starts the MediaPipe service, returning a detector that
// is ready to serve Detect calls. It gives up when ctx is done first.
func Load(ctx context.Context, config Config) (*MediaPipeDetector, error) {
	d, err := NewMediaPipeDetector(config)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		done <- d.ensureStarted()
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return d, nil
	case <-ctx.Done():
		// Let the start finish, then tear it down.
		go func() {
			<-done
			d.Close()
		}()
		return nil, ctx.Err()
	}
}

// Detect analyzes a frame and returns detected hands in frame pixel space.
// Hands that do not carry exactly NumLandmarks points are dropped.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("detect: empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	hands, err := d.conn.roundTrip(buf.GetBytes())
	if err != nil {
		// The stream is out of sync after a failed exchange; restart next time.
		d.shutdown()
		return nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return toHands(hands, frame.Cols(), frame.Rows()), nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.conn != nil {
		return nil
	}

	conn, err := d.launch()
	if err != nil {
		return err
	}

	d.conn = conn
	d.lastUsed = time.Now()
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if d.conn == nil {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	err := d.conn.close()
	d.conn = nil
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleTimeout <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if time.Since(d.lastUsed) < d.config.IdleTimeout {
			return
		}
		log.Debug("stopping idle mediapipe service")
		d.shutdown()
	})
}

func startService(pythonPath, scriptPath string, config Config) (*serviceConn, error) {
	args := []string{
		scriptPath,
		"--max-hands", strconv.Itoa(config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(config.MinTrackingConf, 'f', -1, 64),
	}
	cmd := exec.Command(pythonPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}

	log.Info("mediapipe service started", "python", pythonPath, "script", scriptPath, "pid", cmd.Process.Pid)

	return &serviceConn{
		cmd: cmd,
		w:   stdin,
		r:   bufio.NewReader(stdout),
	}, nil
}

// roundTrip sends one frame and reads one response.
func (c *serviceConn) roundTrip(jpeg []byte) ([]jsonHand, error) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(jpeg)))

	if _, err := c.w.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := c.w.Write(jpeg); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := c.r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error,omitempty"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("mediapipe service: %s", response.Error)
	}

	return response.Hands, nil
}

func (c *serviceConn) close() error {
	if c.w != nil {
		c.w.Close()
	}
	if c.cmd == nil {
		return nil
	}
	return c.cmd.Wait()
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".photobooth", "scripts", serviceScript),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".photobooth/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// toHands converts service output to pixel-space hands, dropping any hand
// with the wrong landmark count.
func toHands(raw []jsonHand, width, height int) []HandLandmarks {
	hands := make([]HandLandmarks, 0, len(raw))
	for i, h := range raw {
		hand, err := NewHandLandmarks(h.Points, h.Handedness, h.Score)
		if err != nil {
			log.Warn("dropping hand from estimator", "index", i, "err", err)
			continue
		}
		hands = append(hands, hand.Scaled(width, height))
	}
	return hands
}
