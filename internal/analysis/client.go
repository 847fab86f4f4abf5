// Package analysis sends a captured face to the remote AI capability and turns
// the reply into a PersonalityResult or a typed failure.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/easeaico/truthlab/internal/config"
	"github.com/easeaico/truthlab/internal/metrics"
	"github.com/easeaico/truthlab/internal/types"
)

// Analyzer is one transport binding: send (image, language), get a validated record.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (types.PersonalityRecord, error)
}

// Client finalizes records from an Analyzer into results. It never retries.
type Client struct {
	analyzer Analyzer
	provider string
	timeout  time.Duration
	newID    func() string
}

// NewClient wraps analyzer. A zero timeout leaves the call unbounded.
func NewClient(analyzer Analyzer, provider string, timeout time.Duration) *Client {
	return &Client{
		analyzer: analyzer,
		provider: provider,
		timeout:  timeout,
		newID:    NewID,
	}
}

// New builds the client for the configured provider. Credential problems do
// not fail construction; every Analyze call reports them instead, so they reach
// the user through the session error screen.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	analyzer, err := NewAnalyzer(ctx, cfg)
	if err != nil {
		kind := KindOf(err)
		if kind != KindCredentialMissing && kind != KindCredentialInvalid {
			return nil, err
		}
		slog.Warn("analysis credential problem", "provider", cfg.Provider, "kind", kind.String())
		analyzer = failingAnalyzer{err: err}
	}
	return NewClient(analyzer, cfg.Provider, cfg.AnalysisTimeout), nil
}

// NewAnalyzer returns the raw transport for cfg.Provider.
func NewAnalyzer(ctx context.Context, cfg *config.Config) (Analyzer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiAnalyzer(ctx, cfg.GoogleAPIKey, cfg.AnalysisModel)
	case config.ProviderOpenAI:
		return NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.AnalysisModel)
	case config.ProviderProxy:
		return NewProxyAnalyzer(cfg.AnalyzeEndpoint, nil)
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Provider)
	}
}

// Analyze runs one analysis. On success the result carries a fresh id, the
// accent color and the share hook for req.Language.
func (c *Client) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.PersonalityResult, error) {
	record, err := c.AnalyzeRecord(ctx, req)
	if err != nil {
		return nil, err
	}
	result := Finalize(record, req.Language, c.newID())
	slog.Info("analysis completed", "provider", c.provider, "id", result.ID)
	return &result, nil
}

// AnalyzeRecord runs one analysis and returns the validated record as the
// remote capability produced it. Every error carries a Kind.
func (c *Client) AnalyzeRecord(ctx context.Context, req types.AnalysisRequest) (types.PersonalityRecord, error) {
	if c == nil || c.analyzer == nil {
		return types.PersonalityRecord{}, newError(KindCredentialMissing, "analysis client not configured", nil)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	record, err := c.analyzer.Analyze(ctx, req)
	metrics.AnalysisLatency.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		err = classify(err)
		kind := KindOf(err)
		metrics.AnalysisTotal.WithLabelValues(c.provider, kind.String()).Inc()
		slog.Error("analysis failed", "provider", c.provider, "kind", kind.String(), "error", err.Error())
		return types.PersonalityRecord{}, err
	}

	metrics.AnalysisTotal.WithLabelValues(c.provider, "ok").Inc()
	return record, nil
}

// classify makes sure every failure leaving the client carries a Kind.
func classify(err error) error {
	if KindOf(err) != KindUnknown {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(KindTransport, "analysis call interrupted", err)
	}
	return newError(KindTransport, "analysis call failed", err)
}

type failingAnalyzer struct {
	err error
}

func (f failingAnalyzer) Analyze(context.Context, types.AnalysisRequest) (types.PersonalityRecord, error) {
	return types.PersonalityRecord{}, f.err
}
