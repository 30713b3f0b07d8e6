// Package main is a capture hook plugin for macOS. It posts a notification
// or plays a shutter sound when the photobooth takes a photo.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Request represents the input from the hook executor.
type Request struct {
	Action string          `json:"action"`
	Event  string          `json:"event"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// captureParams mirrors the params of a capture request.
type captureParams struct {
	PhotoID    string    `json:"photo_id"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CapturedAt time.Time `json:"captured_at"`
}

type actionHandler func(p captureParams) error

var actionHandlers = map[string]actionHandler{
	"captured": notify,
	"shutter":  shutter,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	var p captureParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid params: %v", err))
			return
		}
	}

	if err := handler(p); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// notificationScript builds the AppleScript for a capture notification.
func notificationScript(p captureParams) string {
	body := "Photo captured"
	if p.Width > 0 && p.Height > 0 {
		body = fmt.Sprintf("Photo captured (%dx%d)", p.Width, p.Height)
	}
	if !p.CapturedAt.IsZero() {
		body += " at " + p.CapturedAt.Local().Format("15:04:05")
	}
	return fmt.Sprintf(`display notification %q with title "Photobooth" sound name "Glass"`, body)
}

func notify(p captureParams) error {
	return runAppleScript(notificationScript(p))
}

func shutter(captureParams) error {
	cmd := exec.Command("afplay", "/System/Library/Sounds/Glass.aiff")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
