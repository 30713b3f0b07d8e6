package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/photobooth/internal/app"
	"github.com/ayusman/photobooth/internal/capture"
)

// fakeSession is an in-memory Session.
type fakeSession struct {
	mu      sync.Mutex
	status  app.Status
	photo   *app.Photo
	preview []byte
	subs    map[int]func(app.Event)
	nextID  int
}

func newFakeSession() *fakeSession {
	return &fakeSession{subs: make(map[int]func(app.Event))}
}

func (f *fakeSession) Status() app.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSession) Photo() *app.Photo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.photo
}

func (f *fakeSession) PreviewJPEG(quality int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.preview == nil {
		return nil, capture.ErrEmptyFrame
	}
	return f.preview, nil
}

func (f *fakeSession) Subscribe(fn func(app.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeSession) publish(e app.Event) {
	f.mu.Lock()
	subs := make([]func(app.Event), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
}

func (f *fakeSession) setPhoto(p *app.Photo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photo = p
}

func testPhoto() *app.Photo {
	return &app.Photo{
		ID:         uuid.New(),
		PNG:        []byte("\x89PNG\r\n\x1a\nfake"),
		Width:      640,
		Height:     480,
		CapturedAt: time.Now(),
	}
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_Status(t *testing.T) {
	session := newFakeSession()
	photo := testPhoto()
	session.status = app.Status{State: "running", CameraReady: true, ModelReady: true, Captures: 3, Photo: photo.Info()}
	s := New(Config{Session: session})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var got app.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if got.State != "running" || !got.CameraReady || !got.ModelReady || got.Captures != 3 {
		t.Errorf("unexpected status %+v", got)
	}
	if got.Photo == nil || got.Photo.ID != photo.ID.String() {
		t.Errorf("expected photo %s, got %+v", photo.ID, got.Photo)
	}
}

func TestServer_Photo(t *testing.T) {
	session := newFakeSession()
	s := New(Config{Session: session})

	t.Run("404 before first capture", func(t *testing.T) {
		for _, path := range []string{"/api/photo", "/api/photo/download"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Errorf("%s: expected 404, got %d", path, rec.Code)
			}
		}
	})

	photo := testPhoto()
	session.setPhoto(photo)
	etag := `"` + photo.ID.String() + `"`

	tests := []struct {
		name        string
		path        string
		disposition string
	}{
		{"inline", "/api/photo", ""},
		{"download", "/api/photo/download", `attachment; filename="photo.png"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("expected image/png, got %s", ct)
			}
			if got := rec.Header().Get("ETag"); got != etag {
				t.Errorf("expected ETag %s, got %s", etag, got)
			}
			if got := rec.Header().Get("Content-Disposition"); got != tt.disposition {
				t.Errorf("expected Content-Disposition %q, got %q", tt.disposition, got)
			}
			if rec.Body.String() != string(photo.PNG) {
				t.Error("body does not match photo bytes")
			}
		})
	}

	t.Run("not modified for current ETag", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/photo", nil)
		req.Header.Set("If-None-Match", etag)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotModified {
			t.Errorf("expected 304, got %d", rec.Code)
		}
	})

	t.Run("new capture changes ETag", func(t *testing.T) {
		session.setPhoto(testPhoto())
		req := httptest.NewRequest(http.MethodGet, "/api/photo", nil)
		req.Header.Set("If-None-Match", etag)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("rejects POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/photo", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestServer_Stream(t *testing.T) {
	session := newFakeSession()
	session.preview = []byte{0xFF, 0xD8, 0xFF, 0xD9}
	ts := httptest.NewServer(New(Config{Session: session, StreamFPS: 30}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("unexpected Content-Type %s", ct)
	}

	r := bufio.NewReader(resp.Body)
	want := []string{"--frame", "Content-Type: image/jpeg", "Content-Length: 4"}
	for _, w := range want {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if got := strings.TrimSpace(line); got != w {
			t.Errorf("expected %q, got %q", w, got)
		}
	}
}

func TestServer_Events(t *testing.T) {
	session := newFakeSession()
	s := New(Config{Session: session})
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.events.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	photo := testPhoto()
	session.publish(app.Event{Timestamp: 42, Width: 640, Height: 480, Peace: []bool{true}, Photo: photo.Info()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}

	var got app.Event
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if got.Timestamp != 42 || len(got.Peace) != 1 || !got.Peace[0] {
		t.Errorf("unexpected event %+v", got)
	}
	if got.Photo == nil || got.Photo.ID != photo.ID.String() {
		t.Errorf("expected photo %s in event", photo.ID)
	}
}

func TestServer_EmbeddedPage(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"/api/stream", "/api/events", "photo.png"} {
		if !strings.Contains(body, want) {
			t.Errorf("page does not reference %s", want)
		}
	}
}

func TestServer_StaticDir(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoSession(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/status", "/api/photo", "/api/nonexistent"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}
