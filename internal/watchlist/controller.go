package watchlist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"stockwatch/internal/models"
	"stockwatch/internal/query"
	"stockwatch/internal/upstream"
)

const (
	defaultViewPageSize = 20
	defaultLoadTimeout  = 15 * time.Second
)

// Options configures a Controller. API is required; everything else
// has a working default.
type Options struct {
	API    API
	Logger *zap.Logger

	Criteria Criteria

	DefaultPageSize int
	MaxPageSize     int

	MaterializePageSize int
	MaterializeMaxPages int

	LoadTimeout  time.Duration
	RefreshEvery time.Duration
}

// Controller owns the view state of one watchlist session. All loads
// go through a generation counter: the most recently initiated load
// wins, superseded loads are cancelled and never commit.
type Controller struct {
	api API
	mat *Materializer
	log *zap.Logger

	defPageSize  int
	maxPageSize  int
	loadTimeout  time.Duration
	refreshEvery time.Duration

	baseCtx context.Context
	stop    context.CancelFunc
	refresh *time.Ticker

	mu       sync.Mutex
	view     View
	gen      uint64
	cancel   context.CancelFunc
	matSet   []models.Record
	matCat   *int64
	matOK    bool
	watchers map[chan View]struct{}
	closed   bool
}

// NewController builds the controller and starts the auto-refresh loop
// when a refresh interval is configured. It does not load anything;
// call Reload for the first page.
func NewController(ctx context.Context, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	defPageSize := opts.DefaultPageSize
	if defPageSize <= 0 {
		defPageSize = defaultViewPageSize
	}
	maxPageSize := opts.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = defaultMaterializePageSize
	}
	loadTimeout := opts.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}

	baseCtx, stop := context.WithCancel(ctx)
	c := &Controller{
		api: opts.API,
		mat: &Materializer{
			API:      opts.API,
			PageSize: opts.MaterializePageSize,
			MaxPages: opts.MaterializeMaxPages,
			Logger:   log,
		},
		log:          log,
		defPageSize:  defPageSize,
		maxPageSize:  maxPageSize,
		loadTimeout:  loadTimeout,
		refreshEvery: opts.RefreshEvery,
		baseCtx:      baseCtx,
		stop:         stop,
		watchers:     map[chan View]struct{}{},
	}
	crit := c.normalize(opts.Criteria)
	c.view = View{Mode: crit.Mode(), Criteria: crit, Selected: []int64{}}

	if c.refreshEvery > 0 {
		c.refresh = time.NewTicker(c.refreshEvery)
		go c.refreshLoop()
	}
	return c
}

// View returns the current snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Reload re-runs the current mode against the backend: one remote page
// in native mode, a fresh materialize-filter-sort cycle in search mode.
func (c *Controller) Reload() View {
	return c.load()
}

// SetCriteria commits the new criteria and brings the view in line with
// them. While staying in search mode within the same category scope the
// materialized set is reused and no request is made; any other change
// loads. The criteria stick even if the load fails.
func (c *Controller) SetCriteria(crit Criteria) View {
	crit = c.normalize(crit)

	c.mu.Lock()
	if c.closed {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	c.view.Criteria = crit
	c.view.Mode = crit.Mode()
	if c.refresh != nil {
		c.refresh.Reset(c.refreshEvery)
	}

	if crit.Mode() == ModeSearch && c.matOK && sameCategory(c.matCat, crit.CategoryID) {
		// Same materialized scope: re-run filter+sort+page locally.
		c.gen++
		gen := c.gen
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		items, total := applyCriteria(c.matSet, crit)
		c.view.Items = items
		c.view.Total = total
		c.view.Error = ""
		c.view.Loading = false
		c.view.Selected = []int64{}
		c.view.Generation = gen
		c.notifyLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	if crit.Mode() == ModeNative {
		// Leaving search throws the materialized set away.
		c.matSet = nil
		c.matCat = nil
		c.matOK = false
	}
	c.mu.Unlock()
	return c.load()
}

// SetSelection replaces the row selection. Every items overwrite clears
// it again.
func (c *Controller) SetSelection(ids []int64) View {
	out := make([]int64, len(ids))
	copy(out, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.snapshotLocked()
	}
	c.view.Selected = out
	c.notifyLocked()
	return c.snapshotLocked()
}

// Subscribe returns a channel fed with view snapshots and a cancel
// function. Slow consumers miss intermediate snapshots instead of
// blocking loads.
func (c *Controller) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.watchers[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			if _, ok := c.watchers[ch]; ok {
				delete(c.watchers, ch)
				close(ch)
			}
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// Close cancels any in-flight load, stops the refresh loop, and closes
// all subscriber channels. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	for ch := range c.watchers {
		close(ch)
	}
	c.watchers = nil
	c.mu.Unlock()

	if c.refresh != nil {
		c.refresh.Stop()
	}
	c.stop()
}

func (c *Controller) refreshLoop() {
	for {
		select {
		case <-c.baseCtx.Done():
			return
		case <-c.refresh.C:
			c.load()
		}
	}
}

// load initiates a generation-stamped fetch of the current criteria and
// waits for it. If a newer load starts meanwhile, this one's result is
// dropped and the newest committed snapshot is returned instead.
func (c *Controller) load() View {
	c.mu.Lock()
	if c.closed {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	lctx, cancel := context.WithTimeout(c.baseCtx, c.loadTimeout)
	c.cancel = cancel
	crit := c.view.Criteria
	c.view.Loading = true
	c.notifyLocked()
	c.mu.Unlock()

	items, total, set, err := c.fetch(lctx, crit)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.closed {
		return c.snapshotLocked()
	}
	c.cancel = nil
	c.view.Loading = false
	c.view.Generation = gen
	c.view.Selected = []int64{}
	if err != nil {
		c.view.Items = nil
		c.view.Total = 0
		c.view.Error = err.Error()
		c.matSet = nil
		c.matCat = nil
		c.matOK = false
		c.log.Warn("watchlist load failed", zap.String("mode", string(crit.Mode())), zap.Error(err))
	} else {
		c.view.Items = items
		c.view.Total = total
		c.view.Error = ""
		if crit.Mode() == ModeSearch {
			c.matSet = set
			c.matCat = crit.CategoryID
			c.matOK = true
		} else {
			c.matSet = nil
			c.matCat = nil
			c.matOK = false
		}
	}
	c.notifyLocked()
	return c.snapshotLocked()
}

// fetch runs outside the lock. In search mode it materializes the full
// scope and applies the criteria; in native mode it asks the backend
// for one page, re-sorting it locally when the key is a realtime one
// the backend cannot order by.
func (c *Controller) fetch(ctx context.Context, crit Criteria) (items []models.Record, total int, set []models.Record, err error) {
	if crit.Mode() == ModeSearch {
		set, err = c.mat.Materialize(ctx, crit.CategoryID)
		if err != nil {
			return nil, 0, nil, err
		}
		items, total = applyCriteria(set, crit)
		return items, total, set, nil
	}

	params := upstream.ListParams{
		CategoryID: crit.CategoryID,
		Page:       crit.Page,
		PageSize:   crit.PageSize,
	}
	if crit.SortBy.Persistent() {
		params.SortBy = string(crit.SortBy)
		params.SortDir = crit.SortDir
	}
	res, err := c.api.ListWatch(ctx, params)
	if err != nil {
		return nil, 0, nil, err
	}
	items = res.Items
	if crit.SortBy.Realtime() {
		// The backend cannot order by quote fields; order the page we got.
		query.Sort(items, crit.SortBy, crit.desc())
	}
	return items, res.Total, nil, nil
}

func (c *Controller) normalize(crit Criteria) Criteria {
	if crit.Page < 1 {
		crit.Page = 1
	}
	if crit.PageSize <= 0 {
		crit.PageSize = c.defPageSize
	}
	if crit.PageSize > c.maxPageSize {
		crit.PageSize = c.maxPageSize
	}
	if _, ok := query.ParseSortKey(string(crit.SortBy)); !ok {
		crit.SortBy = query.SortCode
	}
	if crit.SortDir != "desc" {
		crit.SortDir = "asc"
	}
	return crit
}

func (c *Controller) snapshotLocked() View {
	snap := c.view
	snap.Items = make([]models.Record, len(c.view.Items))
	copy(snap.Items, c.view.Items)
	snap.Selected = make([]int64, len(c.view.Selected))
	copy(snap.Selected, c.view.Selected)
	return snap
}

func (c *Controller) notifyLocked() {
	if len(c.watchers) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for ch := range c.watchers {
		select {
		case ch <- snap:
		default:
		}
	}
}
