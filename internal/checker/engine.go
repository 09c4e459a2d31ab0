package checker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type engine struct {
	cfg     Config
	fetcher *Fetcher
	pacer   *Pacer
	rotator *Rotator
	logger  *slog.Logger

	all   []LinkTask
	tasks chan taskItem
	wg    sync.WaitGroup

	mu      sync.Mutex
	results []LinkResult
	done    []bool
	stats   Stats
}

type taskItem struct {
	index int
	task  LinkTask
}

// Validate runs the full batch and returns exactly one result per task, in
// input order. It returns only when every task is accounted for; on context
// cancellation the unfinished tasks get synthetic network-failure verdicts
// and the report is flagged interrupted.
func Validate(ctx context.Context, logger *slog.Logger, cfg Config, tasks []LinkTask) *Report {
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.ConcurrentRequests
	if workers <= 0 {
		workers = 3
	}
	if workers > len(tasks) && len(tasks) > 0 {
		workers = len(tasks)
	}

	rotator := NewRotator(nil, time.Now().UnixNano())
	e := &engine{
		cfg:     cfg,
		fetcher: NewFetcher(cfg, rotator),
		pacer:   NewPacer(cfg.DelayBetween, cfg.RatePerWindow, cfg.RateWindow),
		rotator: rotator,
		logger:  logger,
		all:     tasks,
		tasks:   make(chan taskItem, len(tasks)),
		results: make([]LinkResult, len(tasks)),
		done:    make([]bool, len(tasks)),
	}

	started := time.Now()

	for i, task := range tasks {
		if reason := rejectTask(task); reason != "" {
			e.saveResult(LinkResult{
				Task:    task,
				Verdict: brokenVerdict(ReasonUnclassified, reason),
			}, i)
			e.recordRejected()
			continue
		}
		e.tasks <- taskItem{index: i, task: task}
	}
	close(e.tasks)

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx)
	}
	e.wg.Wait()

	interrupted := ctx.Err() != nil
	e.fillUnfinished()

	finished := time.Now()
	report := &Report{
		RunID:       uuid.NewString(),
		Results:     e.results,
		Stats:       e.collectStats(finished.Sub(started)),
		Interrupted: interrupted,
		StartedAt:   started,
		FinishedAt:  finished,
	}
	logger.Info("validation run complete",
		"run_id", report.RunID,
		"total", report.Stats.Total,
		"working", report.Stats.Working,
		"broken", report.Stats.Broken,
		"interrupted", interrupted,
	)
	return report
}

func (e *engine) worker(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-e.tasks:
			if !ok {
				return
			}
			e.process(ctx, item)
		}
	}
}

func (e *engine) process(ctx context.Context, item taskItem) {
	if err := e.pacer.Acquire(ctx); err != nil {
		// Cancelled while waiting for a dispatch slot; fillUnfinished will
		// account for this task.
		return
	}

	e.logger.Debug("checking link", "url", item.task.URL, "source", item.task.SourceTitle)

	outcome := e.fetcher.Fetch(ctx, item.task.URL)
	verdict := Classify(outcome, e.cfg.Signatures)

	result := LinkResult{
		Task:     item.task,
		Verdict:  verdict,
		Attempts: outcome.Attempts,
		Elapsed:  outcome.Elapsed,
	}
	e.saveResult(result, item.index)
	if e.cfg.Progress != nil {
		e.cfg.Progress(result)
	}
}

func (e *engine) saveResult(result LinkResult, index int) {
	e.mu.Lock()
	e.results[index] = result
	e.done[index] = true
	if result.Verdict.Working {
		e.stats.Working++
	} else {
		e.stats.Broken++
	}
	e.mu.Unlock()
}

func (e *engine) recordRejected() {
	e.mu.Lock()
	e.stats.Rejected++
	e.mu.Unlock()
}

// fillUnfinished backfills synthetic verdicts for tasks that never reached a
// worker, keeping the one-result-per-task invariant under cancellation.
func (e *engine) fillUnfinished() {
	// Drain anything still queued; the channel is already closed.
	for range e.tasks {
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.done {
		if e.done[i] {
			continue
		}
		e.results[i] = LinkResult{
			Task:    e.all[i],
			Verdict: brokenVerdict(ReasonNetworkFailure, "interrupted before completion"),
		}
		e.done[i] = true
		e.stats.Broken++
		e.stats.Interrupted++
	}
}

func (e *engine) collectStats(duration time.Duration) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	stats := e.stats
	stats.Total = len(e.results)
	stats.Duration = duration
	return stats
}

func rejectTask(task LinkTask) string {
	parsed, err := url.Parse(strings.TrimSpace(task.URL))
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Sprintf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "URL missing host"
	}
	return ""
}
