// Package capture runs the timed scan sequence: it opens the camera, grabs a
// single frame at the capture threshold, cycles display messages and signals
// completion after the fixed duration whether or not a frame was captured.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Options are the timing constants of one scan.
type Options struct {
	Duration        time.Duration
	Interval        time.Duration
	Threshold       float64
	SettleDelay     time.Duration
	MessageInterval time.Duration
	Messages        []string
}

// DefaultOptions returns the design timings with the given messages.
func DefaultOptions(messages []string) Options {
	return Options{
		Duration:        10 * time.Second,
		Interval:        50 * time.Millisecond,
		Threshold:       60,
		SettleDelay:     500 * time.Millisecond,
		MessageInterval: 1100 * time.Millisecond,
		Messages:        messages,
	}
}

// Validate rejects timings that could never complete a scan.
func (o Options) Validate() error {
	if o.Duration <= 0 || o.Interval <= 0 {
		return fmt.Errorf("duration and interval must be positive")
	}
	if o.Threshold <= 0 || o.Threshold >= 100 {
		return fmt.Errorf("threshold must be in (0, 100), got %v", o.Threshold)
	}
	if o.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	return nil
}

// step is the progress added per tick.
func (o Options) step() float64 {
	return 100 * float64(o.Interval) / float64(o.Duration)
}

// Events receive the scan signals. All callbacks run on the goroutine that
// called Run, one at a time. Nil callbacks are skipped.
type Events struct {
	OnProgress    func(progress float64)
	OnMessage     func(message string)
	OnCapture     func(image string)
	OnCameraError func(err error)
	OnComplete    func()
}

type cameraState int

const (
	cameraPending cameraState = iota
	cameraReady
	cameraFailed
)

type openResult struct {
	stream Stream
	err    error
}

// Timer is one scan. It is not reusable; create a new Timer per session.
type Timer struct {
	opts   Options
	camera Camera
	events Events

	progress     float64
	captured     bool
	completed    bool
	camState     cameraState
	stream       Stream
	messageIndex int
}

// NewTimer prepares a scan. A nil camera behaves like a denied permission.
func NewTimer(camera Camera, opts Options, events Events) *Timer {
	if camera == nil {
		camera = NoCamera{Reason: "no camera configured"}
	}
	return &Timer{opts: opts, camera: camera, events: events}
}

// Run drives the scan until completion or until ctx is cancelled. Cancelling
// ctx is the teardown: timers stop, the stream is stopped, and OnComplete is
// not fired. Returns ctx.Err() on cancellation and nil on completion.
func (t *Timer) Run(ctx context.Context) error {
	if err := t.opts.Validate(); err != nil {
		return err
	}

	opened := make(chan openResult, 1)
	go func() {
		stream, err := t.camera.Open(ctx)
		opened <- openResult{stream: stream, err: err}
	}()

	progress := time.NewTicker(t.opts.Interval)
	defer progress.Stop()

	var messageC <-chan time.Time
	if len(t.opts.Messages) > 0 && t.opts.MessageInterval > 0 {
		messages := time.NewTicker(t.opts.MessageInterval)
		defer messages.Stop()
		messageC = messages.C
		t.emitMessage()
	}

	completion := time.NewTimer(t.opts.Duration + t.opts.SettleDelay)
	defer completion.Stop()

	defer func() {
		if opened != nil {
			go releaseLate(opened)
		}
		t.release()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-opened:
			opened = nil
			t.cameraOpened(res)
		case <-progress.C:
			t.observe(t.progress + t.opts.step())
		case <-messageC:
			t.messageIndex = (t.messageIndex + 1) % len(t.opts.Messages)
			t.emitMessage()
		case <-completion.C:
			t.complete()
			return nil
		}
	}
}

func (t *Timer) cameraOpened(res openResult) {
	if res.err != nil || res.stream == nil {
		err := res.err
		if err == nil {
			err = ErrCameraUnavailable
		}
		if !errors.Is(err, ErrCameraUnavailable) {
			err = fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		}
		t.camState = cameraFailed
		slog.Warn("camera unavailable, continuing without preview", "error", err.Error())
		if t.events.OnCameraError != nil {
			t.events.OnCameraError(err)
		}
		return
	}
	t.camState = cameraReady
	t.stream = res.stream
}

// observe records a new progress reading and performs the one permitted
// capture the first time it reaches the threshold.
func (t *Timer) observe(next float64) {
	if next >= t.opts.Threshold && !t.captured {
		t.tryCapture()
	}
	next = min(next, 100)
	if next <= t.progress {
		return
	}
	t.progress = next
	if t.events.OnProgress != nil {
		t.events.OnProgress(t.progress)
	}
}

func (t *Timer) tryCapture() {
	switch t.camState {
	case cameraPending:
		// retried on the next tick once the camera settles
		return
	case cameraFailed:
		t.captured = true
		slog.Info("capture skipped, no camera feed")
		return
	}

	t.captured = true
	frame, err := t.stream.Frame()
	if err != nil {
		slog.Warn("capture skipped, frame unavailable", "error", err.Error())
		return
	}
	encoded, err := EncodeFrame(frame)
	if err != nil {
		slog.Warn("capture skipped, encode failed", "error", err.Error())
		return
	}
	if t.events.OnCapture != nil {
		t.events.OnCapture(encoded)
	}
}

func (t *Timer) emitMessage() {
	if t.events.OnMessage != nil {
		t.events.OnMessage(t.opts.Messages[t.messageIndex])
	}
}

func (t *Timer) complete() {
	if t.completed {
		return
	}
	t.completed = true
	if t.events.OnComplete != nil {
		t.events.OnComplete()
	}
}

func (t *Timer) release() {
	if t.stream != nil {
		t.stream.Stop()
		t.stream = nil
	}
}

// releaseLate stops a stream whose open finished after the scan ended.
func releaseLate(opened <-chan openResult) {
	if res := <-opened; res.stream != nil {
		res.stream.Stop()
	}
}
