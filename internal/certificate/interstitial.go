package certificate

import (
	"context"
	"sync"
	"time"
)

// Gate is the countdown shown between a download request and the render.
// Each Gate serves one request.
type Gate struct {
	wait time.Duration
	tick time.Duration
	once sync.Once
}

// NewGate counts down wait in one-second steps.
func NewGate(wait time.Duration) *Gate {
	return &Gate{wait: wait, tick: time.Second}
}

// Run reports the remaining whole ticks to onTick, starting with the full
// count, then calls render. render runs at most once per Gate; later calls
// return nil without waiting. A cancelled ctx abandons the request.
func (g *Gate) Run(ctx context.Context, onTick func(remaining int), render func() error) error {
	var err error
	ran := false
	g.once.Do(func() {
		ran = true
		if err = g.countdown(ctx, onTick); err != nil {
			return
		}
		err = render()
	})
	if !ran {
		return nil
	}
	return err
}

func (g *Gate) countdown(ctx context.Context, onTick func(int)) error {
	remaining := int((g.wait + g.tick - 1) / g.tick)
	if remaining <= 0 {
		return nil
	}
	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()
	for remaining > 0 {
		if onTick != nil {
			onTick(remaining)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			remaining--
		}
	}
	return nil
}
