package session

import (
	"sync"

	"github.com/easeaico/truthlab/internal/types"
)

// Outcome is what the analysis side delivers to the join: a result or an error.
type Outcome struct {
	Result *types.PersonalityResult
	Err    error
}

// Join waits for the visual sequence and the analysis to both finish. Either
// may arrive first. The combined transition is released to exactly one caller.
type Join struct {
	mu         sync.Mutex
	visualDone bool
	analysis   *Outcome
	fired      bool
}

// MarkVisualDone records the end of the visual sequence. It returns the
// analysis outcome and true if this call completed the join.
func (j *Join) MarkVisualDone() (Outcome, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.visualDone = true
	return j.tryFire()
}

// MarkAnalysisDone records the analysis outcome. Only the first outcome is
// kept. It returns the outcome and true if this call completed the join.
func (j *Join) MarkAnalysisDone(outcome Outcome) (Outcome, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.analysis == nil {
		j.analysis = &outcome
	}
	return j.tryFire()
}

func (j *Join) tryFire() (Outcome, bool) {
	if j.fired || !j.visualDone || j.analysis == nil {
		return Outcome{}, false
	}
	j.fired = true
	return *j.analysis, true
}
