package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"watchlist-sync/pkg/logger"
)

// Visibility tracks whether the renderer is in the foreground. Defaults to visible.
type Visibility struct {
	hidden atomic.Bool
}

func NewVisibility() *Visibility {
	return &Visibility{}
}

func (v *Visibility) Visible() bool {
	return !v.hidden.Load()
}

func (v *Visibility) Set(visible bool) {
	v.hidden.Store(!visible)
}

type pollEntry struct {
	id       cron.EntryID
	interval time.Duration
	job      cron.Job
}

// Poller runs named interval jobs on a cron scheduler. Re-arming a name replaces its
// entry, so at most one timer per name is alive. Stop tears the whole group down.
type Poller struct {
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	cron       *cron.Cron
	chain      cron.Chain
	entries    map[string]pollEntry
	visibility *Visibility
	log        *logger.Logger
	stopped    bool
}

func NewPoller(ctx context.Context, visibility *Visibility, log *logger.Logger) *Poller {
	ctx, cancel := context.WithCancel(ctx)
	cronLog := logger.NewCronLogger(log)
	chain := cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))
	return &Poller{
		ctx:        ctx,
		cancel:     cancel,
		cron:       cron.New(cron.WithLogger(cronLog)),
		chain:      chain,
		entries:    make(map[string]pollEntry),
		visibility: visibility,
		log:        log.Component("poller"),
	}
}

func (p *Poller) Start() {
	p.cron.Start()
}

// Done is closed once the poller is stopped or its parent context ends.
func (p *Poller) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Arm schedules fn every interval under name. A gated job skips ticks while the renderer
// is hidden; skipped ticks are not replayed. Re-arming with the same interval keeps the
// running entry. Reports whether a new entry was installed.
func (p *Poller) Arm(name string, interval time.Duration, gated bool, fn func(ctx context.Context)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.ctx.Err() != nil || interval <= 0 {
		return false
	}
	if current, ok := p.entries[name]; ok {
		if current.interval == interval {
			return false
		}
		p.cron.Remove(current.id)
		delete(p.entries, name)
	}

	job := p.chain.Then(cron.FuncJob(func() {
		if p.ctx.Err() != nil {
			return
		}
		if gated && !p.visibility.Visible() {
			return
		}
		fn(p.ctx)
	}))
	id := p.cron.Schedule(cron.Every(interval), job)
	p.entries[name] = pollEntry{id: id, interval: interval, job: job}

	p.log.Debug("Poller armed",
		logger.StringField("name", name),
		logger.DurationField("interval", interval),
		logger.BoolField("gated", gated))
	return true
}

// Interval returns the interval name is armed with.
func (p *Poller) Interval(name string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[name]
	return entry.interval, ok
}

// Tick runs the named job once on the caller's goroutine, applying the same gating.
func (p *Poller) Tick(name string) bool {
	p.mu.Lock()
	entry, ok := p.entries[name]
	p.mu.Unlock()
	if !ok {
		return false
	}
	entry.job.Run()
	return true
}

func (p *Poller) Disarm(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.entries[name]; ok {
		p.cron.Remove(entry.id)
		delete(p.entries, name)
	}
}

// Stop clears every entry and cancels the poll context. Safe to call from inside a job;
// in-flight jobs are not awaited.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	p.cancel()
	for name, entry := range p.entries {
		p.cron.Remove(entry.id)
		delete(p.entries, name)
	}
	p.cron.Stop()
	p.log.Info("Poller stopped")
}
