package eodobs

import (
	"context"
	"time"

	"lorentzian-trading-bot/internal/interfaces"
	"lorentzian-trading-bot/internal/logger"
	"lorentzian-trading-bot/internal/trace"
)

type observableEodSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableEodSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableEodSummarizer{
		summarizer: summarizer,
	}
}

func (oes *observableEodSummarizer) SummarizeDay(ctx context.Context, day time.Time) (csvPath string, err error) {
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeDay")
	defer func() { trace.End(span, err) }()

	date := day.UTC().Format("2006-01-02")
	logger.InfoSkip(ctx, 1, "Starting EOD summary generation", "date", date)

	csvPath, err = oes.summarizer.SummarizeDay(ctx, day)
	return oes.done(ctx, date, csvPath, err)
}

func (oes *observableEodSummarizer) SummarizeYesterday(ctx context.Context) (csvPath string, err error) {
	ctx, span := trace.StartSpan(ctx, "eod.SummarizeYesterday")
	defer func() { trace.End(span, err) }()

	date := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	logger.InfoSkip(ctx, 1, "Starting EOD summary generation", "date", date)

	csvPath, err = oes.summarizer.SummarizeYesterday(ctx)
	return oes.done(ctx, date, csvPath, err)
}

func (oes *observableEodSummarizer) done(ctx context.Context, date, csvPath string, err error) (string, error) {
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 2, "EOD summary generation failed", err, "date", date)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 2, "No trades found for EOD summary", "date", date)
		return "", nil
	}
	logger.InfoSkip(ctx, 2, "EOD summary generated successfully",
		"date", date,
		"csv_path", csvPath,
	)
	return csvPath, nil
}
