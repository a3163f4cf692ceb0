package flow

import (
	"context"
	"fmt"
	"log/slog"
)

// StaticTipSource serves the built-in tip lists.
type StaticTipSource struct{}

// Tips returns the static tips of topic.
func (StaticTipSource) Tips(ctx context.Context, topic string) ([]string, error) {
	tips, ok := staticTips[topic]
	if !ok {
		return nil, fmt.Errorf("unknown tip topic %q", topic)
	}
	return tips, nil
}

// FallbackTipSource asks primary first and uses fallback when it fails or returns nothing.
type FallbackTipSource struct {
	primary  TipSource
	fallback TipSource
}

// NewFallbackTipSource wraps primary with fallback.
func NewFallbackTipSource(primary, fallback TipSource) *FallbackTipSource {
	return &FallbackTipSource{primary: primary, fallback: fallback}
}

// Tips returns tips from primary, or from fallback on error.
func (f *FallbackTipSource) Tips(ctx context.Context, topic string) ([]string, error) {
	tips, err := f.primary.Tips(ctx, topic)
	if err == nil && len(tips) > 0 {
		return tips, nil
	}
	if err != nil {
		slog.Warn("TipSource primary failed, using fallback", "topic", topic, "error", err)
	}
	return f.fallback.Tips(ctx, topic)
}
