package ai

import (
	"context"
	"log/slog"
)

// fallbackModel wraps two TextModel implementations. It calls the primary
// first; if that fails it logs the failure and tries the secondary. Each
// attempt is still a single call — the wrapper adds a second provider, not a
// retry loop against the same one.
type fallbackModel struct {
	primary   TextModel
	secondary TextModel
	logger    *slog.Logger
}

// NewFallbackModel returns a TextModel that calls primary and, on failure,
// falls back to secondary. Either argument may be nil — if primary is nil it
// goes straight to secondary; if secondary is nil the primary error is
// returned directly.
func NewFallbackModel(primary, secondary TextModel, logger *slog.Logger) TextModel {
	return &fallbackModel{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *fallbackModel) Generate(ctx context.Context, prompt string) (string, error) {
	if f.primary != nil {
		reply, err := f.primary.Generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		if f.secondary == nil {
			return "", err
		}
		f.logger.Warn("ai: primary model failed, trying secondary", "error", err)
	}

	return f.secondary.Generate(ctx, prompt)
}
