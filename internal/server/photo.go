package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/ayusman/photobooth/internal/app"
)

// handlePhoto serves the current photo inline. The photo id is the ETag so
// the page can poll cheaply.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	s.servePhoto(w, r, false)
}

// handlePhotoDownload serves the same bytes as an attachment named photo.png.
func (s *Server) handlePhotoDownload(w http.ResponseWriter, r *http.Request) {
	s.servePhoto(w, r, true)
}

func (s *Server) servePhoto(w http.ResponseWriter, r *http.Request, attachment bool) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	photo := s.config.Session.Photo()
	if photo == nil {
		http.Error(w, app.ErrNoPhoto.Error(), http.StatusNotFound)
		return
	}

	etag := strconv.Quote(photo.ID.String())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(photo.PNG)))
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", app.PhotoFilename))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	w.Write(photo.PNG)
}
