package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/easeaico/truthlab/internal/analysis"
	"github.com/easeaico/truthlab/internal/capture"
	"github.com/easeaico/truthlab/internal/storage"
	"github.com/easeaico/truthlab/internal/types"
)

const validRecord = `{"title":"The Quiet Strategist","description":"I plan ahead.","reportDescription":"The subject plans ahead.","darkLine":"Never shows the whole hand.","traits":["patient","observant","loyal"],"weaknesses":["overthinks","stubborn"]}`

func testTiming() capture.Options {
	return capture.Options{
		Duration:        100 * time.Millisecond,
		Interval:        5 * time.Millisecond,
		Threshold:       60,
		SettleDelay:     100 * time.Millisecond,
		MessageInterval: 30 * time.Millisecond,
	}
}

func testCamera(t *testing.T) capture.Camera {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(10, 10, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return capture.NewStillCamera(buf.Bytes())
}

// rawAnalyzer feeds canned model text through the real record parser.
type rawAnalyzer struct {
	raw string
}

func (a rawAnalyzer) Analyze(context.Context, types.AnalysisRequest) (types.PersonalityRecord, error) {
	return analysis.ParseRecord(a.raw)
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	requests []types.AnalysisRequest
	fn       func(call int, req types.AnalysisRequest) (*types.PersonalityResult, error)
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req types.AnalysisRequest) (*types.PersonalityResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	call := len(f.requests)
	f.mu.Unlock()
	return f.fn(call, req)
}

func (f *fakeAnalyzer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func resultNamed(title string) *types.PersonalityResult {
	r := analysis.Finalize(types.PersonalityRecord{
		Title:             title,
		Description:       "d",
		ReportDescription: "r",
		DarkLine:          "x",
		Traits:            []string{"a"},
		Weaknesses:        []string{"b"},
	}, types.LanguageEnglish, analysis.NewID())
	return &r
}

func newStore() *storage.ResultStore {
	return storage.NewResultStore(storage.NewMemoryKV(), "test_slot")
}

func waitTerminal(t *testing.T, c *Controller) View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	view, err := c.Wait(ctx)
	if err != nil {
		t.Fatalf("wait failed: %v (view %+v)", err, view)
	}
	return view
}

func TestJoinFiresOnceInEitherOrder(t *testing.T) {
	outcome := Outcome{Result: resultNamed("joined")}

	var visualFirst Join
	if _, ok := visualFirst.MarkVisualDone(); ok {
		t.Fatalf("join fired with only the visual signal")
	}
	got, ok := visualFirst.MarkAnalysisDone(outcome)
	if !ok || got.Result.Title != "joined" {
		t.Fatalf("expected analysis signal to complete the join")
	}
	if _, ok := visualFirst.MarkVisualDone(); ok {
		t.Fatalf("join fired twice")
	}

	var analysisFirst Join
	if _, ok := analysisFirst.MarkAnalysisDone(outcome); ok {
		t.Fatalf("join fired with only the analysis signal")
	}
	if _, ok := analysisFirst.MarkVisualDone(); !ok {
		t.Fatalf("expected visual signal to complete the join")
	}
	if _, ok := analysisFirst.MarkAnalysisDone(Outcome{Err: errors.New("late")}); ok {
		t.Fatalf("join fired twice")
	}
	if !analysisFirst.fired {
		t.Fatalf("expected join to report fired")
	}
}

func TestJoinConcurrentSignals(t *testing.T) {
	for i := 0; i < 100; i++ {
		var j Join
		var wg sync.WaitGroup
		var mu sync.Mutex
		fired := 0
		record := func(_ Outcome, ok bool) {
			if ok {
				mu.Lock()
				fired++
				mu.Unlock()
			}
		}
		wg.Add(2)
		go func() { defer wg.Done(); record(j.MarkVisualDone()) }()
		go func() { defer wg.Done(); record(j.MarkAnalysisDone(Outcome{})) }()
		wg.Wait()
		if fired != 1 {
			t.Fatalf("iteration %d: expected one transition, got %d", i, fired)
		}
	}
}

func TestCameraDeniedStallsWithoutAnalysis(t *testing.T) {
	analyzer := &fakeAnalyzer{fn: func(int, types.AnalysisRequest) (*types.PersonalityResult, error) {
		return resultNamed("never"), nil
	}}
	c := New(analyzer, newStore(), Config{Camera: capture.NoCamera{Reason: "denied"}, Timing: testTiming()})
	defer c.Close()

	if _, err := c.Start(context.Background(), types.LanguageEnglish); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	view := waitTerminal(t, c)

	if !view.Stalled || view.State != types.StateAnalyzing {
		t.Fatalf("expected stalled analyzing view, got %+v", view)
	}
	if !view.CameraError {
		t.Fatalf("expected camera error flag")
	}
	if view.Progress != 100 {
		t.Fatalf("expected progress to reach 100, got %v", view.Progress)
	}
	if analyzer.calls() != 0 {
		t.Fatalf("analysis must not be requested without a frame")
	}
}

func TestValidCaptureReachesResult(t *testing.T) {
	store := newStore()
	client := analysis.NewClient(rawAnalyzer{raw: "```json\n" + validRecord + "\n```"}, "test", 0)
	c := New(client, store, Config{Camera: testCamera(t), Timing: testTiming()})
	defer c.Close()

	if _, err := c.Start(context.Background(), types.LanguageEnglish); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	view := waitTerminal(t, c)

	if view.State != types.StateResult || view.Result == nil {
		t.Fatalf("expected RESULT, got %+v", view)
	}
	if !regexp.MustCompile(`^TRUTH-\d{5}$`).MatchString(view.Result.ID) {
		t.Fatalf("unexpected id %q", view.Result.ID)
	}
	if view.Result.Color != analysis.AccentColor {
		t.Fatalf("expected accent color, got %q", view.Result.Color)
	}

	saved, err := store.Load(context.Background())
	if err != nil || saved == nil || saved.ID != view.Result.ID {
		t.Fatalf("expected result to be persisted, got %+v err=%v", saved, err)
	}
}

func TestMissingWeaknessesReachesError(t *testing.T) {
	store := newStore()
	raw := `{"title":"t","description":"d","reportDescription":"r","darkLine":"x","traits":["a"]}`
	client := analysis.NewClient(rawAnalyzer{raw: raw}, "test", 0)
	c := New(client, store, Config{Camera: testCamera(t), Timing: testTiming()})
	defer c.Close()

	if _, err := c.Start(context.Background(), types.LanguageHindi); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	view := waitTerminal(t, c)

	if view.State != types.StateError {
		t.Fatalf("expected ERROR, got %+v", view)
	}
	if view.Error == "" {
		t.Fatalf("expected a user message")
	}
	if view.ErrorKind != analysis.KindMalformedResponse.String() {
		t.Fatalf("expected malformed response kind, got %q", view.ErrorKind)
	}
	if saved, _ := store.Load(context.Background()); saved != nil {
		t.Fatalf("failed analysis must not be persisted")
	}
}

func TestResultWaitsForVisualSequence(t *testing.T) {
	timing := testTiming()
	analyzer := &fakeAnalyzer{fn: func(int, types.AnalysisRequest) (*types.PersonalityResult, error) {
		return resultNamed("instant"), nil
	}}
	c := New(analyzer, newStore(), Config{Camera: testCamera(t), Timing: timing})
	defer c.Close()

	start := time.Now()
	if _, err := c.Start(context.Background(), types.LanguageEnglish); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	view := waitTerminal(t, c)

	if view.State != types.StateResult {
		t.Fatalf("expected RESULT, got %+v", view)
	}
	if elapsed := time.Since(start); elapsed < timing.Duration+timing.SettleDelay {
		t.Fatalf("result revealed after %v, before the visual sequence ended", elapsed)
	}
}

func TestVisualSequenceWaitsForAnalysis(t *testing.T) {
	timing := testTiming()
	release := make(chan struct{})
	analyzer := &fakeAnalyzer{fn: func(int, types.AnalysisRequest) (*types.PersonalityResult, error) {
		<-release
		return resultNamed("slow"), nil
	}}
	c := New(analyzer, newStore(), Config{Camera: testCamera(t), Timing: timing})
	defer c.Close()

	if _, err := c.Start(context.Background(), types.LanguageEnglish); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	time.Sleep(2 * (timing.Duration + timing.SettleDelay))
	if view := c.Snapshot(); view.State != types.StateAnalyzing || view.Terminal() {
		t.Fatalf("expected to keep analyzing while the call is in flight, got %+v", view)
	}

	close(release)
	view := waitTerminal(t, c)
	if view.State != types.StateResult || view.Result.Title != "slow" {
		t.Fatalf("expected RESULT after analysis, got %+v", view)
	}
}

func TestStaleAnalysisIsIgnored(t *testing.T) {
	store := newStore()
	firstCalled := make(chan struct{})
	releaseFirst := make(chan struct{})
	firstDone := make(chan struct{})
	analyzer := &fakeAnalyzer{fn: func(call int, _ types.AnalysisRequest) (*types.PersonalityResult, error) {
		if call == 1 {
			close(firstCalled)
			<-releaseFirst
			defer close(firstDone)
			return resultNamed("stale"), nil
		}
		return resultNamed("current"), nil
	}}
	c := New(analyzer, store, Config{Camera: testCamera(t), Timing: testTiming()})
	defer c.Close()

	if _, err := c.Start(context.Background(), types.LanguageEnglish); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	select {
	case <-firstCalled:
	case <-time.After(3 * time.Second):
		t.Fatalf("first analysis was never requested")
	}

	secondID, err := c.Start(context.Background(), types.LanguageEnglish)
	if err != nil {
		t.Fatalf("second Start error: %v", err)
	}
	view := waitTerminal(t, c)
	if view.State != types.StateResult || view.Result.Title != "current" || view.RunID != secondID {
		t.Fatalf("expected current run result, got %+v", view)
	}

	close(releaseFirst)
	<-firstDone
	time.Sleep(20 * time.Millisecond)

	if view := c.Snapshot(); view.Result == nil || view.Result.Title != "current" {
		t.Fatalf("stale analysis replaced the current result: %+v", view)
	}
	saved, _ := store.Load(context.Background())
	if saved == nil || saved.Title != "current" {
		t.Fatalf("stale analysis was persisted: %+v", saved)
	}
}

func TestResetClearsState(t *testing.T) {
	store := newStore()
	_ = store.Save(context.Background(), *resultNamed("saved"))
	c := New(&fakeAnalyzer{}, store, Config{Camera: testCamera(t), Timing: testTiming()})

	if err := c.Restore(context.Background()); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if view := c.Snapshot(); view.State != types.StateResult || view.Result.Title != "saved" {
		t.Fatalf("expected restored result, got %+v", view)
	}

	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if view := c.Snapshot(); view.State != types.StateInitial || view.Result != nil {
		t.Fatalf("expected initial state, got %+v", view)
	}
	if saved, _ := store.Load(context.Background()); saved != nil {
		t.Fatalf("expected store to be cleared")
	}
}

func TestStartRejectsUnknownLanguage(t *testing.T) {
	c := New(&fakeAnalyzer{}, newStore(), Config{Timing: testTiming()})
	if _, err := c.Start(context.Background(), types.Language("fr")); err == nil {
		t.Fatalf("expected language error")
	}
	if c.Snapshot().State != types.StateInitial {
		t.Fatalf("state must not change on a rejected start")
	}
}

func TestStartRejectsInvalidTiming(t *testing.T) {
	store := newStore()
	_ = store.Save(context.Background(), *resultNamed("saved"))
	analyzer := &fakeAnalyzer{}

	for _, threshold := range []float64{150, 100, 0} {
		timing := testTiming()
		timing.Threshold = threshold
		c := New(analyzer, store, Config{Camera: testCamera(t), Timing: timing})
		if err := c.Restore(context.Background()); err != nil {
			t.Fatalf("Restore error: %v", err)
		}

		if _, err := c.Start(context.Background(), types.LanguageEnglish); err == nil {
			t.Fatalf("expected threshold %v to be rejected", threshold)
		}
		view := c.Snapshot()
		if view.State != types.StateResult || view.Result.Title != "saved" || view.RunID != "" {
			t.Fatalf("rejected start must leave the view alone, got %+v", view)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if _, err := c.Wait(ctx); err != nil {
			t.Fatalf("expected Wait to return at once, got %v", err)
		}
		cancel()
	}
	if analyzer.calls() != 0 {
		t.Fatalf("no analysis may run for rejected timing")
	}
}
