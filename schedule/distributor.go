package schedule

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
)

// Options configures a Distributor.
type Options struct {
	Layout layout.Options
	Ticker Ticker // nil means Frame with DefaultFrameInterval
	Policy Policy
	Logger *zap.Logger

	// OnPublish runs on the pass goroutine after a new result is published.
	OnPublish func(*layout.Result)
	// OnError runs on the pass goroutine after a failed pass.
	OnError func(error)
}

// Stats counts distributor activity.
type Stats struct {
	Passes    int64 // passes started
	Failures  int64 // passes that kept the previous result
	Coalesced int64 // requests absorbed by a running or scheduled pass
	Reruns    int64 // extra passes triggered by requests during a pass
}

// Distributor turns document changes into pagination passes and publishes the
// latest successful result.
type Distributor struct {
	opts   Options
	guard  *Guard
	ticker Ticker
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	latest    atomic.Pointer[document.Document]
	published atomic.Pointer[layout.Result]

	passes, failures, coalesced, reruns atomic.Int64
}

func New(opts Options) *Distributor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Layout.Logger == nil {
		opts.Layout.Logger = log
	}
	ticker := opts.Ticker
	if ticker == nil {
		ticker = Frame{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Distributor{
		opts:   opts,
		guard:  NewGuard(opts.Policy),
		ticker: ticker,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnDocumentChange records doc as the latest snapshot and schedules a pass
// unless one is already scheduled or running. While a pass waits on a ticker
// that restarts on every Schedule call (Debounced), the pass is handed to it
// again so the wait only ends once changes stop.
func (d *Distributor) OnDocumentChange(doc *document.Document) {
	if d.closed.Load() {
		return
	}
	d.latest.Store(doc)
	switch d.guard.Admit() {
	case AdmitNew:
		d.ticker.Schedule(d.run)
	case AdmitScheduled:
		d.coalesced.Add(1)
		if _, ok := d.ticker.(restarter); ok {
			d.ticker.Schedule(d.run)
		}
	case AdmitRunning:
		d.coalesced.Add(1)
	}
}

func (d *Distributor) run() {
	if !d.guard.Start() {
		return
	}
	d.pass()
	if d.guard.EndPass() {
		d.reruns.Add(1)
		d.log.Debug("Document changed during pass, scheduling another")
		d.ticker.Schedule(d.run)
	}
}

func (d *Distributor) pass() {
	doc := d.latest.Load()
	d.passes.Add(1)

	res, err := layout.Paginate(d.ctx, doc, d.opts.Layout)
	if err != nil {
		d.failures.Add(1)
		d.log.Warn("Pagination pass failed, keeping previous result", zap.Error(err))
		if d.opts.OnError != nil {
			d.opts.OnError(err)
		}
		return
	}
	d.published.Store(res)
	d.log.Debug("Pagination result published", zap.Int("pages", len(res.Pages)), zap.Int("blocks", doc.Len()))
	if d.opts.OnPublish != nil {
		d.opts.OnPublish(res)
	}
}

// Pages returns the most recently published result, nil before the first
// successful pass.
func (d *Distributor) Pages() *layout.Result { return d.published.Load() }

// Latest returns the newest document snapshot handed to the distributor.
func (d *Distributor) Latest() *document.Document { return d.latest.Load() }

// State reports whether a pass is running or scheduled.
func (d *Distributor) State() State { return d.guard.State() }

// Wait blocks until no pass is running or scheduled.
func (d *Distributor) Wait(ctx context.Context) error {
	select {
	case <-d.guard.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Distributor) Stats() Stats {
	return Stats{
		Passes:    d.passes.Load(),
		Failures:  d.failures.Load(),
		Coalesced: d.coalesced.Load(),
		Reruns:    d.reruns.Load(),
	}
}

// Close stops accepting changes and cancels a pass in flight. The published
// result stays readable.
func (d *Distributor) Close() {
	d.closed.Store(true)
	d.cancel()
}
