package eod

import (
	"context"
	"time"

	"lorentzian-trading-bot/internal/interfaces"
)

var defaultSummarizer interfaces.EodSummarizer = NewSummarizer("")

// SetDefaultSummarizer replaces the package-level summarizer, e.g. with an
// observed one.
func SetDefaultSummarizer(summarizer interfaces.EodSummarizer) {
	defaultSummarizer = summarizer
}

// NewSummarizer writes CSVs under outDir, or under the journal directory's
// eod/ folder when outDir is empty.
func NewSummarizer(outDir string) interfaces.EodSummarizer {
	return &eodSummarizer{outDir: outDir, now: time.Now}
}

func SummarizeDay(ctx context.Context, day time.Time) (string, error) {
	return defaultSummarizer.SummarizeDay(ctx, day)
}

func SummarizeYesterday(ctx context.Context) (string, error) {
	return defaultSummarizer.SummarizeYesterday(ctx)
}
