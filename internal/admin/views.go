// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/unirag-tui/internal/api"
	"github.com/jeranaias/unirag-tui/internal/model"
)

// View is the console section on screen.
type View int

const (
	ViewDocuments View = iota
	ViewUpload
	ViewFeedback
	ViewSettings
	ViewStatistics
)

// String returns the view name.
func (v View) String() string {
	switch v {
	case ViewDocuments:
		return "documents"
	case ViewUpload:
		return "upload"
	case ViewFeedback:
		return "feedback"
	case ViewSettings:
		return "settings"
	case ViewStatistics:
		return "statistics"
	default:
		return "unknown"
	}
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView switches views. Entering the feedback view loads feedback at once
// and then every RefreshInterval; leaving it stops the timer.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	prev := c.view
	c.view = v
	c.mu.Unlock()

	if prev == ViewFeedback && v != ViewFeedback {
		c.stopRefresh()
	}
	if v == ViewFeedback && prev != ViewFeedback {
		c.startRefresh()
	}
	c.notify()
}

// Refreshing reports whether the feedback auto-refresh is running.
func (c *Controller) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshCancel != nil
}

func (c *Controller) startRefresh() {
	if !c.HasToken() {
		return
	}
	c.mu.Lock()
	if c.refreshCancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.rootCtx)
	done := make(chan struct{})
	c.refreshCancel = cancel
	c.refreshDone = done
	interval := c.opts.RefreshInterval
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.refreshFeedback(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.refreshFeedback(ctx)
			}
		}
	}()
	c.logger.Debug().Dur("interval", interval).Msg("Feedback auto-refresh started")
}

func (c *Controller) refreshFeedback(ctx context.Context) {
	if _, err := c.LoadFeedback(ctx); err != nil && ctx.Err() == nil {
		c.logger.Warn().Err(err).Msg("Feedback auto-refresh failed")
	}
}

// stopRefresh cancels the auto-refresh and waits for it to exit.
func (c *Controller) stopRefresh() {
	c.mu.Lock()
	cancel, done := c.refreshCancel, c.refreshDone
	c.refreshCancel, c.refreshDone = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.logger.Debug().Msg("Feedback auto-refresh stopped")
}

// =============================================================================
// FEEDBACK
// =============================================================================

// Feedback returns a copy of the loaded feedback list.
func (c *Controller) Feedback() []model.Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Feedback(nil), c.feedback...)
}

// LoadFeedback fetches the newest feedback entries.
func (c *Controller) LoadFeedback(ctx context.Context) ([]model.Feedback, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	list, err := c.backend.ListFeedback(ctx, c.opts.FeedbackLimit)
	if err != nil {
		if ctx.Err() == nil {
			c.setStatus(msgFeedbackFailed + api.Message(err))
		}
		return nil, errors.Wrap(err, "list feedback")
	}
	c.mu.Lock()
	c.feedback = list
	c.mu.Unlock()
	c.notify()
	return append([]model.Feedback(nil), list...), nil
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats is the statistics view. Each piece loads independently; a failed
// piece keeps its previous value and records its error.
type Stats struct {
	Summary      *model.StatsSummary
	TopQuestions []model.TopQuestion
	Intents      []model.IntentCount

	SummaryErr      error
	TopQuestionsErr error
	IntentsErr      error
}

// Err returns the first piece error, if any.
func (s Stats) Err() error {
	for _, err := range []error{s.SummaryErr, s.TopQuestionsErr, s.IntentsErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the statistics view.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// LoadStatistics fetches the summary, the top questions, and the intent
// distribution concurrently.
func (c *Controller) LoadStatistics(ctx context.Context) (Stats, error) {
	if err := c.requireToken(); err != nil {
		return Stats{}, err
	}

	var (
		summary    *model.StatsSummary
		top        []model.TopQuestion
		intents    []model.IntentCount
		summaryErr error
		topErr     error
		intentsErr error
	)

	// Goroutines record their own errors so one failure cannot cancel the rest.
	var g errgroup.Group
	g.Go(func() error {
		summary, summaryErr = c.backend.StatsSummary(ctx)
		return nil
	})
	g.Go(func() error {
		top, topErr = c.backend.TopQuestions(ctx, c.opts.TopQuestionsLimit)
		return nil
	})
	g.Go(func() error {
		intents, intentsErr = c.backend.IntentStats(ctx)
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	c.stats.SummaryErr = summaryErr
	if summaryErr == nil {
		c.stats.Summary = summary
	}
	c.stats.TopQuestionsErr = topErr
	if topErr == nil {
		c.stats.TopQuestions = top
	}
	c.stats.IntentsErr = intentsErr
	if intentsErr == nil {
		c.stats.Intents = intents
	}
	stats := c.stats
	c.mu.Unlock()

	if err := stats.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Statistics partially unavailable")
		c.setStatus(msgStatsIncomplete + ": " + api.Message(err))
		return stats, errors.Wrap(err, "load statistics")
	}
	c.notify()
	return stats, nil
}
