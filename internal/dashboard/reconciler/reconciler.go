// Package reconciler owns the dashboard's record buffer and arbitrates
// between paginated fetches, filter edits and the live push stream.
//
// All state changes happen under one mutex and are all-or-nothing per event.
// I/O runs on goroutines that commit through ticket (fetch) or epoch (live)
// checks, so a result whose triggering context has gone stale is dropped
// instead of applied.
package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fridge_monitor"
	"fridge_monitor/internal/dashboard/fetcher"
	"fridge_monitor/internal/dashboard/filter"
	"fridge_monitor/internal/dashboard/live"
	"fridge_monitor/internal/dashboard/sentinel"
	"fridge_monitor/internal/logger"
)

const (
	DefaultRetention    = 100
	DefaultFetchTimeout = 5 * time.Second
)

// PageFetcher loads one historical page.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int, c filter.Criteria) (fridge_monitor.FridgePage, error)
}

// Stream is an open live subscription.
type Stream interface {
	Close()
}

// LiveFeed opens live subscriptions.
type LiveFeed interface {
	Subscribe(ctx context.Context, cb live.Callbacks) (Stream, error)
}

type subscriberFeed struct {
	s *live.Subscriber
}

func (f subscriberFeed) Subscribe(ctx context.Context, cb live.Callbacks) (Stream, error) {
	sub, err := f.s.Subscribe(ctx, cb)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// FromSubscriber adapts a live.Subscriber to LiveFeed.
func FromSubscriber(s *live.Subscriber) LiveFeed {
	return subscriberFeed{s: s}
}

type options struct {
	retention    int
	fetchTimeout time.Duration
	reseedOnLive bool
}

// Option configures a Reconciler.
type Option func(*options)

// WithRetention caps the live buffer.
func WithRetention(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.retention = n
		}
	}
}

// WithFetchTimeout bounds each historical fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithReseedOnLive controls whether entering live mode clears the buffer and
// loads a fresh first page before subscribing.
func WithReseedOnLive(on bool) Option {
	return func(o *options) { o.reseedOnLive = on }
}

// Reconciler is the dashboard's view state machine.
type Reconciler struct {
	fetcher  PageFetcher
	feed     LiveFeed
	log      *logger.Logger
	opts     options
	sentinel *sentinel.Sentinel
	changes  chan struct{}

	mu      sync.Mutex
	mounted bool
	ctx     context.Context
	cancel  context.CancelFunc

	filters filter.Model
	mode    Mode

	loading    bool
	page       int
	total      int
	hasMore    bool
	lastErr    error
	failedPage int

	buffer  []fridge_monitor.Record
	display []fridge_monitor.Record

	// ticket identifies the fetch allowed to commit; 0 means none.
	ticket      uint64
	seq         uint64
	fetchCancel context.CancelFunc

	// epoch identifies the live session allowed to commit.
	epoch         uint64
	seedCancel    context.CancelFunc
	stream        Stream
	liveConnected bool
	liveEnded     bool

	discarded uint64
}

// New builds an unmounted reconciler.
func New(f PageFetcher, feed LiveFeed, log *logger.Logger, opts ...Option) *Reconciler {
	o := options{
		retention:    DefaultRetention,
		fetchTimeout: DefaultFetchTimeout,
		reseedOnLive: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Reconciler{
		fetcher: f,
		feed:    feed,
		log:     log.Component("reconciler"),
		opts:    o,
		changes: make(chan struct{}, 1),
		page:    1,
	}
	r.sentinel = sentinel.New(r.canAdvance, r.LoadMore)
	return r
}

// Changes signals after every state change. Signals coalesce; read Snapshot
// for the current state.
func (r *Reconciler) Changes() <-chan struct{} { return r.changes }

func (r *Reconciler) notify() {
	select {
	case r.changes <- struct{}{}:
	default:
	}
}

// Mount starts the view in historical mode and requests page 1. Cancelling
// ctx has the same effect as Unmount on in-flight work.
func (r *Reconciler) Mount(ctx context.Context) {
	r.mu.Lock()
	if r.mounted {
		r.mu.Unlock()
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mounted = true
	r.mode = ModeHistorical
	r.resetLocked()
	r.startFetchLocked(1)
	r.mu.Unlock()

	r.log.Infow("view_mounted")
	r.notify()
}

// Unmount closes the live subscription, abandons any in-flight fetch and
// clears the buffer.
func (r *Reconciler) Unmount() {
	r.mu.Lock()
	if !r.mounted {
		r.mu.Unlock()
		return
	}
	r.mounted = false
	r.cancel()
	r.abandonFetchLocked()
	stream := r.detachStreamLocked()
	r.sentinel.Detach()
	r.buffer = nil
	r.display = nil
	r.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	r.log.Infow("view_unmounted")
	r.notify()
}

// SetFilter replaces one criterion. In historical mode a change discards the
// buffer and reloads from page 1; in live mode it only re-filters.
func (r *Reconciler) SetFilter(field filter.Field, value string) error {
	r.mu.Lock()
	changed, err := r.filters.SetField(field, value)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if changed {
		r.filtersChangedLocked()
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
	return nil
}

// ClearFilters resets every criterion, with the same effects as SetFilter.
func (r *Reconciler) ClearFilters() {
	r.mu.Lock()
	changed := r.filters.Clear()
	if changed {
		r.filtersChangedLocked()
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
}

func (r *Reconciler) filtersChangedLocked() {
	if r.mounted && r.mode == ModeHistorical {
		r.resetLocked()
		r.startFetchLocked(1)
		return
	}
	r.recomputeLocked()
}

// LoadMore requests the next page when more pages remain, the view is
// historical and no fetch is in flight. It reports whether a fetch started.
func (r *Reconciler) LoadMore() bool {
	r.mu.Lock()
	if !r.canAdvanceLocked() {
		r.mu.Unlock()
		return false
	}
	r.startFetchLocked(r.page + 1)
	r.mu.Unlock()

	r.notify()
	return true
}

// Retry repeats the last failed historical fetch.
func (r *Reconciler) Retry() bool {
	r.mu.Lock()
	if !r.mounted || r.mode != ModeHistorical || r.loading || r.lastErr == nil {
		r.mu.Unlock()
		return false
	}
	page := r.failedPage
	if page < 1 {
		page = 1
	}
	if page == 1 {
		r.resetLocked()
	}
	r.startFetchLocked(page)
	r.mu.Unlock()

	r.notify()
	return true
}

func (r *Reconciler) canAdvance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canAdvanceLocked()
}

func (r *Reconciler) canAdvanceLocked() bool {
	return r.mounted && r.mode == ModeHistorical && !r.loading && r.hasMore
}

// Attach tells the scroll sentinel which row is currently last. A key that
// is not the last displayed row detaches the sentinel instead.
func (r *Reconciler) Attach(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.display); n > 0 && r.display[n-1].Key() == key {
		r.sentinel.Attach(key)
		return
	}
	r.sentinel.Detach()
}

// Detach stops the scroll sentinel observing any row.
func (r *Reconciler) Detach() { r.sentinel.Detach() }

// Visible reports that the row with key entered the viewport. It returns
// true when the next page was requested.
func (r *Reconciler) Visible(key string) bool { return r.sentinel.Visible(key) }

// EnterLive switches to live mode: the in-flight fetch is abandoned, the
// sentinel detached and a subscription opened. With re-seeding on, the buffer
// is cleared and page 1 is fetched first; a failed re-seed is logged and the
// subscription still opens.
func (r *Reconciler) EnterLive() {
	r.mu.Lock()
	if !r.mounted || r.mode == ModeLive {
		r.mu.Unlock()
		return
	}
	r.abandonFetchLocked()
	r.sentinel.Detach()
	r.mode = ModeLive
	r.epoch++
	r.liveConnected = false
	r.liveEnded = false
	r.lastErr = nil
	r.failedPage = 0
	if r.opts.reseedOnLive {
		r.resetLocked()
	} else {
		r.buffer = truncate(r.buffer, r.opts.retention)
		r.recomputeLocked()
	}
	epoch := r.epoch
	ctx := r.ctx
	crit := r.filters.Criteria()
	var seedCtx context.Context
	if r.opts.reseedOnLive {
		seedCtx, r.seedCancel = context.WithTimeout(ctx, r.opts.fetchTimeout)
	}
	r.mu.Unlock()

	r.log.Infow("live_entered", "epoch", epoch, "reseed", r.opts.reseedOnLive)
	r.notify()
	go r.goLive(ctx, seedCtx, epoch, crit)
}

// ExitLive closes the subscription and reloads historical page 1.
func (r *Reconciler) ExitLive() {
	r.mu.Lock()
	if !r.mounted || r.mode != ModeLive {
		r.mu.Unlock()
		return
	}
	stream := r.detachStreamLocked()
	r.mode = ModeHistorical
	r.resetLocked()
	r.startFetchLocked(1)
	r.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	r.log.Infow("live_exited")
	r.notify()
}

// Snapshot returns a copy of the current view state.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Mode:          r.mode,
		Criteria:      r.filters.Criteria(),
		Page:          r.page,
		PageSize:      fetcher.PageSize,
		HasMore:       r.hasMore,
		Total:         r.total,
		Buffer:        append([]fridge_monitor.Record(nil), r.buffer...),
		Display:       append([]fridge_monitor.Record(nil), r.display...),
		LastErr:       r.lastErr,
		LiveConnected: r.liveConnected,
		Discarded:     r.discarded,
	}
	switch {
	case r.mode == ModeLive:
		s.State = StateLive
	case r.loading:
		s.State = StateHistoricalLoading
	default:
		s.State = StateHistoricalIdle
	}
	return s
}

// resetLocked returns pagination to page 1 and empties the buffer.
func (r *Reconciler) resetLocked() {
	r.page = 1
	r.total = 0
	r.hasMore = false
	r.lastErr = nil
	r.failedPage = 0
	r.buffer = nil
	r.recomputeLocked()
}

// recomputeLocked derives the display set. The sentinel is detached when the
// row it observes is no longer the last one displayed.
func (r *Reconciler) recomputeLocked() {
	r.display = filter.Apply(r.buffer, r.filters.Criteria())
	if key, ok := r.sentinel.Observed(); ok {
		if n := len(r.display); n == 0 || r.display[n-1].Key() != key {
			r.sentinel.Detach()
		}
	}
}

// abandonFetchLocked cancels the in-flight fetch and invalidates its ticket.
func (r *Reconciler) abandonFetchLocked() {
	if r.fetchCancel != nil {
		r.fetchCancel()
		r.fetchCancel = nil
	}
	r.ticket = 0
	r.loading = false
}

// detachStreamLocked invalidates the live epoch, cancels its re-seed fetch and
// hands back the stream so the caller can close it after releasing the lock.
func (r *Reconciler) detachStreamLocked() Stream {
	if r.seedCancel != nil {
		r.seedCancel()
		r.seedCancel = nil
	}
	stream := r.stream
	r.stream = nil
	r.epoch++
	r.liveConnected = false
	return stream
}

// startFetchLocked supersedes any in-flight fetch and requests page.
func (r *Reconciler) startFetchLocked(page int) {
	r.abandonFetchLocked()
	r.seq++
	ticket := r.seq
	r.ticket = ticket
	r.loading = true

	ctx, cancel := context.WithTimeout(r.ctx, r.opts.fetchTimeout)
	r.fetchCancel = cancel
	crit := r.filters.Criteria()

	go func() {
		defer cancel()
		res, err := r.fetcher.FetchPage(ctx, page, crit)
		r.commitFetch(ticket, page, res, err)
	}()
}

func (r *Reconciler) commitFetch(ticket uint64, page int, res fridge_monitor.FridgePage, err error) {
	r.mu.Lock()
	if !r.mounted || r.mode != ModeHistorical || ticket != r.ticket {
		r.discarded++
		r.mu.Unlock()
		r.log.Debugw("fetch_discarded", "page", page, "err", fridge_monitor.ErrStale)
		return
	}
	r.ticket = 0
	r.fetchCancel = nil
	r.loading = false

	if err != nil {
		r.lastErr = err
		r.failedPage = page
		r.mu.Unlock()
		r.log.Warnw("fetch_failed", "page", page, "err", err)
		r.notify()
		return
	}

	if page == 1 {
		r.buffer = append([]fridge_monitor.Record(nil), res.Fridges...)
	} else {
		r.buffer = append(r.buffer, res.Fridges...)
	}
	r.page = page
	r.total = res.Total
	r.hasMore = fetcher.HasMore(page, res.Total)
	r.lastErr = nil
	r.failedPage = 0
	r.recomputeLocked()
	size := len(r.buffer)
	r.mu.Unlock()

	r.log.Debugw("page_committed", "page", page, "buffer", size, "total", res.Total)
	r.notify()
}

func (r *Reconciler) liveCurrentLocked(epoch uint64) bool {
	return r.mounted && r.mode == ModeLive && epoch == r.epoch
}

// goLive re-seeds through seedCtx (when non-nil) and opens the subscription
// for epoch.
func (r *Reconciler) goLive(ctx, seedCtx context.Context, epoch uint64, crit filter.Criteria) {
	if seedCtx != nil {
		res, err := r.fetcher.FetchPage(seedCtx, 1, crit)
		r.commitSeed(epoch, res, err)
	}

	r.mu.Lock()
	current := r.liveCurrentLocked(epoch)
	r.mu.Unlock()
	if !current {
		return
	}

	stream, err := r.feed.Subscribe(ctx, live.Callbacks{
		OnRecord: func(rec fridge_monitor.Record) { r.commitLive(epoch, rec) },
		OnClosed: func(err error) { r.liveClosed(epoch, err) },
	})
	if err != nil {
		r.mu.Lock()
		if r.liveCurrentLocked(epoch) {
			r.lastErr = fmt.Errorf("subscribe: %w", err)
		}
		r.mu.Unlock()
		r.log.Errorw("live_subscribe_failed", "epoch", epoch, "err", err)
		r.notify()
		return
	}

	r.mu.Lock()
	if !r.liveCurrentLocked(epoch) {
		r.mu.Unlock()
		stream.Close()
		return
	}
	r.stream = stream
	r.liveConnected = !r.liveEnded
	r.mu.Unlock()
	r.notify()
}

func (r *Reconciler) commitSeed(epoch uint64, res fridge_monitor.FridgePage, err error) {
	r.mu.Lock()
	if !r.liveCurrentLocked(epoch) {
		r.discarded++
		r.mu.Unlock()
		r.log.Debugw("reseed_discarded", "epoch", epoch, "err", fridge_monitor.ErrStale)
		return
	}
	if r.seedCancel != nil {
		r.seedCancel()
		r.seedCancel = nil
	}
	if err != nil {
		r.mu.Unlock()
		r.log.Warnw("live_reseed_failed", "epoch", epoch, "err", err)
		return
	}
	r.buffer = truncate(append(r.buffer, res.Fridges...), r.opts.retention)
	r.total = res.Total
	r.recomputeLocked()
	r.mu.Unlock()
	r.notify()
}

// commitLive prepends rec and trims the buffer to the retention cap.
func (r *Reconciler) commitLive(epoch uint64, rec fridge_monitor.Record) {
	r.mu.Lock()
	if !r.liveCurrentLocked(epoch) {
		r.discarded++
		r.mu.Unlock()
		return
	}
	next := make([]fridge_monitor.Record, 0, len(r.buffer)+1)
	next = append(next, rec)
	next = append(next, r.buffer...)
	r.buffer = truncate(next, r.opts.retention)
	r.recomputeLocked()
	r.mu.Unlock()
	r.notify()
}

func (r *Reconciler) liveClosed(epoch uint64, err error) {
	r.mu.Lock()
	if !r.liveCurrentLocked(epoch) {
		r.mu.Unlock()
		return
	}
	r.liveEnded = true
	r.liveConnected = false
	r.stream = nil
	if err != nil {
		r.lastErr = err
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Errorw("live_stream_closed", "epoch", epoch, "err", err)
	}
	r.notify()
}

func truncate(records []fridge_monitor.Record, n int) []fridge_monitor.Record {
	if len(records) > n {
		return records[:n]
	}
	return records
}
