package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/atu_queue/kiosk/internal/metrics"
)

// CorruptStateError reports a stored value that could not be decoded and was
// replaced by its default.
type CorruptStateError struct {
	Key string
	Err error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state at %q: %v", e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

type RecoveryFunc func(*CorruptStateError)

// LogRecovery logs every recovered key at warn level and counts it.
func LogRecovery(logger zerolog.Logger, m *metrics.Metrics) RecoveryFunc {
	return func(e *CorruptStateError) {
		logger.Warn().Err(e.Err).Str("key", e.Key).Msg("recovered from corrupt state")
		m.StateRecovered(e.Key)
	}
}

// GetJSON decodes key into dst. It returns found=false for a missing key and
// a *CorruptStateError when the stored bytes do not decode; other storage
// errors are returned as is.
func GetJSON(ctx context.Context, kv KV, key string, dst any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, &CorruptStateError{Key: key, Err: err}
	}
	return true, nil
}

func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
