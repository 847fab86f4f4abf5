package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/easeaico/truthlab/internal/types"
)

// ResultStore holds at most one PersonalityResult under a fixed key.
type ResultStore struct {
	kv  KV
	key string
}

// NewResultStore returns a ResultStore writing under key.
func NewResultStore(kv KV, key string) *ResultStore {
	return &ResultStore{kv: kv, key: key}
}

// Load returns the persisted result, or nil when there is none. An entry that
// does not decode into a complete result is deleted and treated as absent.
func (s *ResultStore) Load(ctx context.Context) (*types.PersonalityResult, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved result: %w", err)
	}
	if !ok {
		return nil, nil
	}

	result, decodeErr := decodeResult(raw)
	if decodeErr == nil {
		return result, nil
	}

	slog.Warn("discarding corrupt saved result", "key", s.key, "error", decodeErr.Error())
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return nil, fmt.Errorf("failed to remove corrupt result: %w", err)
	}
	return nil, nil
}

// Save overwrites the slot with result.
func (s *ResultStore) Save(ctx context.Context, result types.PersonalityResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// Clear deletes the slot.
func (s *ResultStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear result: %w", err)
	}
	return nil
}

func decodeResult(raw string) (*types.PersonalityResult, error) {
	var result types.PersonalityResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, err
	}
	if result.ID == "" || result.Title == "" || len(result.Traits) == 0 || len(result.Weaknesses) == 0 {
		return nil, errors.New("saved result is incomplete")
	}
	return &result, nil
}
