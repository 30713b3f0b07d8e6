package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ayusman/photobooth/internal/log"
)

// CaptureEvent is the Request.Event sent for captures.
const CaptureEvent = "capture"

// Dispatcher runs one plugin action for every capture, in the background.
// At most one run is in flight; captures arriving meanwhile are skipped.
type Dispatcher struct {
	plugin *Plugin
	action string
	exec   *Executor

	busy    atomic.Bool
	skipped atomic.Uint64
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDispatcher binds action of the named plugin. The plugin must be known
// to mgr and list the action in its manifest.
func NewDispatcher(mgr *Manager, exec *Executor, pluginName, action string) (*Dispatcher, error) {
	plugin, err := mgr.Get(pluginName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, pluginName)
	}
	if !plugin.Manifest.Supports(action) {
		return nil, fmt.Errorf("plugin %s does not support action %q", pluginName, action)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		plugin: plugin,
		action: action,
		exec:   exec,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Dispatch starts the hook for a capture. It returns false when a previous
// run is still in flight and this capture was skipped.
func (d *Dispatcher) Dispatch(p CaptureParams) bool {
	if !d.busy.CompareAndSwap(false, true) {
		d.skipped.Add(1)
		log.Debug("capture hook busy, skipping", "photo_id", p.PhotoID)
		return false
	}

	params, err := json.Marshal(p)
	if err != nil {
		d.busy.Store(false)
		log.Error("encode capture params", "err", err)
		return false
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.busy.Store(false)
		d.run(&Request{Action: d.action, Event: CaptureEvent, Params: params}, p.PhotoID)
	}()
	return true
}

func (d *Dispatcher) run(req *Request, photoID string) {
	resp, err := d.exec.Execute(d.ctx, d.plugin, req)
	if err != nil {
		log.Warn("capture hook failed", "plugin", d.plugin.Manifest.Name, "photo_id", photoID, "err", err)
		return
	}
	if !resp.Success {
		log.Warn("capture hook reported error", "plugin", d.plugin.Manifest.Name, "photo_id", photoID, "error", resp.Error)
		return
	}
	log.Debug("capture hook done", "plugin", d.plugin.Manifest.Name, "photo_id", photoID)
}

// Skipped returns how many captures were skipped while busy.
func (d *Dispatcher) Skipped() uint64 {
	return d.skipped.Load()
}

// Close cancels any running hook and waits for it.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
