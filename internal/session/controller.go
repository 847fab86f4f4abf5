// Package session drives one face scan from start to result: it runs the
// capture timer, sends the captured frame for analysis, joins both completions
// and persists the outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/easeaico/truthlab/internal/analysis"
	"github.com/easeaico/truthlab/internal/capture"
	"github.com/easeaico/truthlab/internal/metrics"
	"github.com/easeaico/truthlab/internal/types"
)

// Analyzer turns a capture into a finalized result.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.PersonalityResult, error)
}

// ResultStore is the single-slot persistence used by the controller.
type ResultStore interface {
	Load(ctx context.Context) (*types.PersonalityResult, error)
	Save(ctx context.Context, result types.PersonalityResult) error
	Clear(ctx context.Context) error
}

// Config wires the controller together. Timing.Messages is replaced per run
// with the messages for the run's language. OnChange may be called from
// several goroutines.
type Config struct {
	Camera   capture.Camera
	Timing   capture.Options
	OnChange func(View)
}

// View is a snapshot of what the display layer shows.
type View struct {
	RunID       string                   `json:"runId,omitempty"`
	State       types.AppState           `json:"state"`
	Language    types.Language           `json:"lang"`
	Progress    float64                  `json:"progress"`
	Message     string                   `json:"message,omitempty"`
	CameraError bool                     `json:"cameraError"`
	Result      *types.PersonalityResult `json:"result,omitempty"`
	Error       string                   `json:"error,omitempty"`
	ErrorKind   string                   `json:"errorKind,omitempty"`
	// Stalled is set when the visual sequence ended without a frame, so no
	// analysis was ever requested and the run can only be reset.
	Stalled bool `json:"stalled"`
}

// Terminal reports whether the view will not change without user action.
func (v View) Terminal() bool {
	return v.State != types.StateAnalyzing || v.Stalled
}

type run struct {
	id         string
	lang       types.Language
	cancel     context.CancelFunc
	join       Join
	requested  bool
	visualDone bool
}

// Controller owns the application state. Exactly one run is current at a time.
type Controller struct {
	analyzer Analyzer
	store    ResultStore
	cfg      Config

	mu          sync.Mutex
	state       types.AppState
	lang        types.Language
	result      *types.PersonalityResult
	errMsg      string
	errKind     string
	progress    float64
	message     string
	cameraError bool
	current     *run
	changed     chan struct{}
}

// New returns a controller in the INITIAL state. Call Restore to pick up a
// previously saved result.
func New(analyzer Analyzer, store ResultStore, cfg Config) *Controller {
	return &Controller{
		analyzer: analyzer,
		store:    store,
		cfg:      cfg,
		state:    types.StateInitial,
		lang:     types.LanguageHindi,
		changed:  make(chan struct{}),
	}
}

// Restore loads the saved result, if any, and shows it.
func (c *Controller) Restore(ctx context.Context) error {
	result, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	c.mu.Lock()
	if c.current == nil && c.state == types.StateInitial {
		c.setStateLocked(types.StateResult)
		c.result = result
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// Start discards any current run and begins a new scan in lang. The capture
// timer stops when ctx is cancelled; an analysis call already in flight is
// left to finish and its outcome ignored.
func (c *Controller) Start(ctx context.Context, lang types.Language) (string, error) {
	if !lang.Valid() {
		return "", fmt.Errorf("unsupported language %q", lang)
	}
	opts := c.cfg.Timing
	opts.Messages = capture.Messages(lang)
	if err := opts.Validate(); err != nil {
		return "", fmt.Errorf("invalid scan timing: %w", err)
	}

	timerCtx, cancel := context.WithCancel(ctx)
	r := &run{id: uuid.NewString(), lang: lang, cancel: cancel}

	c.mu.Lock()
	if c.current != nil {
		c.current.cancel()
		slog.Info("discarding previous scan", "run_id", c.current.id)
	}
	c.current = r
	c.lang = lang
	c.result = nil
	c.errMsg = ""
	c.errKind = ""
	c.progress = 0
	c.message = ""
	c.cameraError = false
	c.setStateLocked(types.StateAnalyzing)
	c.mu.Unlock()
	c.notify()

	timer := capture.NewTimer(c.cfg.Camera, opts, capture.Events{
		OnProgress:    func(p float64) { c.onProgress(r, p) },
		OnMessage:     func(m string) { c.onMessage(r, m) },
		OnCameraError: func(err error) { c.onCameraError(r, err) },
		OnCapture:     func(image string) { c.onCapture(ctx, r, image) },
		OnComplete:    func() { c.onVisualDone(r) },
	})

	slog.Info("scan started", "run_id", r.id, "lang", string(lang))
	go func() {
		if err := timer.Run(timerCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("capture timer failed", "run_id", r.id, "error", err.Error())
		}
	}()
	return r.id, nil
}

// Reset abandons the current run, clears the saved result and returns to INITIAL.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.current != nil {
		c.current.cancel()
		c.current = nil
	}
	c.result = nil
	c.errMsg = ""
	c.errKind = ""
	c.progress = 0
	c.message = ""
	c.cameraError = false
	c.setStateLocked(types.StateInitial)
	err := c.store.Clear(ctx)
	c.mu.Unlock()
	c.notify()
	return err
}

// Close stops the current run's timer and camera.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel()
	}
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Wait blocks until the view is terminal or ctx is done.
func (c *Controller) Wait(ctx context.Context) (View, error) {
	for {
		c.mu.Lock()
		view := c.viewLocked()
		changed := c.changed
		c.mu.Unlock()
		if view.Terminal() {
			return view, nil
		}
		select {
		case <-ctx.Done():
			return view, ctx.Err()
		case <-changed:
		}
	}
}

func (c *Controller) onProgress(r *run, p float64) {
	c.mu.Lock()
	if c.current != r {
		c.mu.Unlock()
		return
	}
	c.progress = p
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onMessage(r *run, m string) {
	c.mu.Lock()
	if c.current != r {
		c.mu.Unlock()
		return
	}
	c.message = m
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onCameraError(r *run, err error) {
	c.mu.Lock()
	if c.current != r {
		c.mu.Unlock()
		return
	}
	c.cameraError = true
	c.mu.Unlock()
	slog.Warn("scan continuing without camera", "run_id", r.id, "error", err.Error())
	c.notify()
}

func (c *Controller) onCapture(ctx context.Context, r *run, image string) {
	c.mu.Lock()
	if c.current != r || r.requested {
		c.mu.Unlock()
		return
	}
	r.requested = true
	c.mu.Unlock()

	req := types.AnalysisRequest{Image: image, Language: r.lang}
	go c.analyze(context.WithoutCancel(ctx), r, req)
}

func (c *Controller) analyze(ctx context.Context, r *run, req types.AnalysisRequest) {
	result, err := c.analyzer.Analyze(ctx, req)

	c.mu.Lock()
	if c.current != r {
		c.mu.Unlock()
		slog.Info("ignoring analysis for superseded scan", "run_id", r.id)
		return
	}
	if err == nil && result != nil {
		if saveErr := c.store.Save(ctx, *result); saveErr != nil {
			slog.Warn("failed to persist result", "run_id", r.id, "error", saveErr.Error())
		}
	}
	if err == nil && result == nil {
		err = fmt.Errorf("analysis returned no result")
	}
	c.mu.Unlock()

	if outcome, ok := r.join.MarkAnalysisDone(Outcome{Result: result, Err: err}); ok {
		c.finish(r, outcome)
	}
}

func (c *Controller) onVisualDone(r *run) {
	c.mu.Lock()
	if c.current != r {
		c.mu.Unlock()
		return
	}
	r.visualDone = true
	requested := r.requested
	c.mu.Unlock()

	if !requested {
		slog.Warn("scan finished without a capture, waiting for reset", "run_id", r.id)
	}
	if outcome, ok := r.join.MarkVisualDone(); ok {
		c.finish(r, outcome)
		return
	}
	c.notify()
}

func (c *Controller) finish(r *run, outcome Outcome) {
	c.mu.Lock()
	if c.current != r {
		c.mu.Unlock()
		return
	}
	if outcome.Err != nil {
		c.errMsg = analysis.UserMessage(outcome.Err)
		c.errKind = analysis.KindOf(outcome.Err).String()
		c.setStateLocked(types.StateError)
		slog.Error("scan failed", "run_id", r.id, "kind", c.errKind, "error", outcome.Err.Error())
	} else {
		c.result = outcome.Result
		c.setStateLocked(types.StateResult)
		slog.Info("scan completed", "run_id", r.id, "result_id", outcome.Result.ID)
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) setStateLocked(state types.AppState) {
	c.state = state
	metrics.SessionTransitions.WithLabelValues(string(state)).Inc()
}

func (c *Controller) viewLocked() View {
	view := View{
		State:       c.state,
		Language:    c.lang,
		Progress:    c.progress,
		Message:     c.message,
		CameraError: c.cameraError,
		Result:      c.result,
		Error:       c.errMsg,
		ErrorKind:   c.errKind,
	}
	if c.current != nil {
		view.RunID = c.current.id
		view.Stalled = c.state == types.StateAnalyzing && c.current.visualDone && !c.current.requested
	}
	return view
}

// notify wakes Wait callers and reports the new view to OnChange.
func (c *Controller) notify() {
	c.mu.Lock()
	close(c.changed)
	c.changed = make(chan struct{})
	view := c.viewLocked()
	c.mu.Unlock()
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(view)
	}
}
