package harvest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Source provides the two read-only feeds.
type Source interface {
	FetchHoldings(ctx context.Context) ([]Holding, error)
	FetchCapitalGains(ctx context.Context) (CapitalGains, error)
}

// Target is the fetch-facing side of the store.
type Target interface {
	BeginFetch(feed Feed)
	FailFetch(feed Feed, err error)
	ReplaceHoldings(holdings []Holding)
	ReplaceCapitalGains(cg CapitalGains)
}

// Loader pulls both feeds from a Source into a Target.
type Loader struct {
	source Source
	target Target
	logger *slog.Logger
}

// NewLoader wires a source to a target.
func NewLoader(source Source, target Target, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{source: source, target: target, logger: logger}
}

// Load fetches holdings and capital gains concurrently. The feeds are
// independent: one failing neither cancels nor rolls back the other. Each
// success replaces its data exactly once; each failure is recorded on the
// target and returned, joined.
func (l *Loader) Load(ctx context.Context) error {
	rqID := uuid.NewString()
	start := time.Now()
	l.logger.Debug("harvest load start", "rq_id", rqID)

	var (
		g                     errgroup.Group
		holdingsErr, gainsErr error
	)
	g.Go(func() error {
		holdingsErr = l.loadHoldings(ctx, rqID)
		return holdingsErr
	})
	g.Go(func() error {
		gainsErr = l.loadCapitalGains(ctx, rqID)
		return gainsErr
	})
	// Wait only reports the first failure; both are wanted.
	_ = g.Wait()

	err := errors.Join(holdingsErr, gainsErr)
	if err != nil {
		l.logger.Error("harvest load failed", "rq_id", rqID, "err", err, "duration_ms", time.Since(start).Milliseconds())
		return err
	}
	l.logger.Info("harvest load completed", "rq_id", rqID, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (l *Loader) loadHoldings(ctx context.Context, rqID string) error {
	l.target.BeginFetch(FeedHoldings)
	holdings, err := l.source.FetchHoldings(ctx)
	if err != nil {
		l.logger.Warn("holdings fetch failed", "rq_id", rqID, "err", err)
		l.target.FailFetch(FeedHoldings, err)
		return err
	}
	l.logger.Debug("holdings fetched", "rq_id", rqID, "count", len(holdings))
	l.target.ReplaceHoldings(holdings)
	return nil
}

func (l *Loader) loadCapitalGains(ctx context.Context, rqID string) error {
	l.target.BeginFetch(FeedCapitalGains)
	cg, err := l.source.FetchCapitalGains(ctx)
	if err != nil {
		l.logger.Warn("capital gains fetch failed", "rq_id", rqID, "err", err)
		l.target.FailFetch(FeedCapitalGains, err)
		return err
	}
	l.logger.Debug("capital gains fetched", "rq_id", rqID)
	l.target.ReplaceCapitalGains(cg)
	return nil
}
