package browse

import (
	"time"

	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/core"
	"github.com/lansepyy/article-admin/internal/logging"
	"github.com/lansepyy/article-admin/internal/paging"
	"github.com/sirupsen/logrus"
)

// Options configures a Controller.
type Options struct {
	PageSize  int           // defaults to core.PageSize
	StaleTime time.Duration // defaults to core.StaleTime
	Compact   bool          // initial viewport class
	Now       func() time.Time
}

// discreteCache is the single page slot of discrete mode.
type discreteCache struct {
	filter     api.Filter
	page       int
	result     *api.PageResult
	fetchedAt  time.Time
	knownTotal int // last total seen for filter, kept across page changes
	loading    bool
	gen        uint64
	err        error
}

// cumulativeCache is the accumulated page sequence of cumulative mode.
type cumulativeCache struct {
	filter      api.Filter
	pages       []api.PageResult
	fetchedAt   time.Time
	total       int
	hasMore     bool
	loading     bool // page 1 in flight
	loadingMore bool // a later page in flight
	gen         uint64
	err         error
	primed      bool
}

func (c *cumulativeCache) loaded() int {
	n := 0
	for _, p := range c.pages {
		n += len(p.Items)
	}
	return n
}

// View is the normalized state handed to the render surface.
type View struct {
	Mode          FetchMode
	Filter        api.Filter // raw filter as typed
	Keyword       string     // debounced keyword in effect
	Items         []api.Item
	Total         int
	Page          int // discrete mode only
	TotalPages    int // discrete mode only
	Loading       bool
	IsLoadingMore bool // cumulative mode only
	HasMore       bool // cumulative mode only
	Err           error
}

// Controller owns the filter state, the debounced keyword, the viewport
// class and both fetch caches. It is not safe for concurrent use; the host
// calls it from a single goroutine.
type Controller struct {
	state      FilterState
	keyword    string
	mode       ModeKind
	pageSize   int
	staleTime  time.Duration
	now        func() time.Time
	gen        uint64
	discrete   discreteCache
	cumulative cumulativeCache
	log        *logrus.Entry
}

// NewController returns a controller in the initial state. Call Start for
// the first fetch.
func NewController(opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = core.PageSize
	}
	if opts.StaleTime <= 0 {
		opts.StaleTime = core.StaleTime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	mode := Discrete
	if opts.Compact {
		mode = Cumulative
	}
	return &Controller{
		state:     NewFilterState(),
		mode:      mode,
		pageSize:  opts.PageSize,
		staleTime: opts.StaleTime,
		now:       opts.Now,
		log:       logging.WithComponent("browse"),
	}
}

// Start issues the fetch for the initial state.
func (c *Controller) Start() []Request {
	return c.reconcile()
}

// ActiveMode returns the kind of the active strategy.
func (c *Controller) ActiveMode() ModeKind {
	return c.mode
}

// PageSize returns the page size used for every request.
func (c *Controller) PageSize() int {
	return c.pageSize
}

// effective is the filter as sent to the data source.
func (c *Controller) effective() api.Filter {
	f := c.state.Filter()
	f.Keyword = c.keyword
	return f
}

// SetFilter replaces the filter. An invalid time range is rejected and
// leaves the state unchanged. A change to the raw keyword alone keeps the
// page and issues nothing.
func (c *Controller) SetFilter(f api.Filter) ([]Request, error) {
	tr, err := core.NormalizeTimeRange(f.TimeRange)
	if err != nil {
		return nil, err
	}
	f.TimeRange = tr

	rest := c.state.Filter()
	rest.Keyword = f.Keyword
	if rest == f {
		// The raw keyword alone never reaches a query; the page resets
		// once it settles.
		c.state.SetKeyword(f.Keyword)
		return nil, nil
	}
	c.state.SetFilter(f, c.mode)
	return c.reconcile(), nil
}

// Reset clears the filter and the debounced keyword together.
func (c *Controller) Reset() []Request {
	c.state.Reset(c.mode)
	c.keyword = ""
	return c.reconcile()
}

// SetDebouncedKeyword applies a keyword that has settled and, in discrete
// mode, returns to page 1.
func (c *Controller) SetDebouncedKeyword(k string) []Request {
	if k == c.keyword {
		return nil
	}
	c.keyword = k
	c.state.FirstPage(c.mode)
	return c.reconcile()
}

// TotalPages is the page count for the current filter in discrete mode.
// While a page is loading the last known total is used.
func (c *Controller) TotalPages() int {
	if c.discrete.filter != c.effective() {
		return 0
	}
	return paging.TotalPages(c.discrete.knownTotal, c.pageSize)
}

// SetPage moves to page n in discrete mode. Out-of-range pages, the
// current page and any call in cumulative mode issue nothing.
func (c *Controller) SetPage(n int) []Request {
	if !c.state.SetPage(n, c.TotalPages(), c.mode) {
		return nil
	}
	return c.reconcile()
}

// JumpTo parses typed page input and moves there. Invalid input returns
// paging.ErrInvalidPage and changes nothing.
func (c *Controller) JumpTo(input string) ([]Request, error) {
	if c.mode != Discrete {
		return nil, nil
	}
	n, err := paging.ParseJump(input, c.TotalPages())
	if err != nil {
		return nil, err
	}
	return c.SetPage(n), nil
}

// SetCompact switches the active strategy. In-flight fetches of the other
// mode are left to resolve into their own cache.
func (c *Controller) SetCompact(compact bool) []Request {
	mode := Discrete
	if compact {
		mode = Cumulative
	}
	if mode == c.mode {
		return nil
	}
	c.log.WithFields(logrus.Fields{"from": c.mode, "to": mode}).Debug("mode switch")
	c.mode = mode
	return c.reconcile()
}

// CanFetchNext reports whether FetchNext would issue a request.
func (c *Controller) CanFetchNext() bool {
	cc := &c.cumulative
	return c.mode == Cumulative && cc.filter == c.effective() && cc.primed &&
		!cc.loading && !cc.loadingMore && cc.hasMore
}

// FetchNext requests the page after the accumulated ones. It is a no-op
// while any cumulative page is in flight or once everything is loaded.
func (c *Controller) FetchNext() []Request {
	if !c.CanFetchNext() {
		return nil
	}
	cc := &c.cumulative
	cc.loadingMore = true
	cc.err = nil
	return []Request{c.issue(Cumulative, cc.filter, len(cc.pages)+1, &cc.gen)}
}

// Refresh drops the active cache entry for the current key and fetches it
// again. This is the manual retry after a failure.
func (c *Controller) Refresh() []Request {
	if c.mode == Discrete {
		c.discrete.page = 0
		c.discrete.result = nil
	} else {
		c.cumulative.primed = false
	}
	return c.reconcile()
}

// reconcile issues at most one fetch for the active mode when its cache
// does not hold the current key. A key whose fetch failed holds nothing.
func (c *Controller) reconcile() []Request {
	eff := c.effective()
	now := c.now()

	if c.mode == Discrete {
		d := &c.discrete
		page := c.state.Page()
		sameKey := d.filter == eff && d.page == page
		stale := d.result != nil && now.Sub(d.fetchedAt) >= c.staleTime
		failed := d.result == nil && d.err != nil && !d.loading
		if sameKey && !stale && !failed {
			return nil
		}
		if sameKey && d.loading {
			return nil
		}
		if d.filter != eff {
			d.knownTotal = 0
		}
		d.filter, d.page = eff, page
		if !sameKey {
			d.result = nil
		}
		d.loading = true
		d.err = nil
		return []Request{c.issue(Discrete, eff, page, &d.gen)}
	}

	cc := &c.cumulative
	stale := len(cc.pages) > 0 && now.Sub(cc.fetchedAt) >= c.staleTime
	failed := len(cc.pages) == 0 && cc.err != nil && !cc.loading
	if cc.primed && cc.filter == eff && !stale && !failed {
		return nil
	}
	if cc.primed && cc.filter == eff && (cc.loading || cc.loadingMore) {
		return nil
	}
	*cc = cumulativeCache{filter: eff, loading: true, primed: true}
	return []Request{c.issue(Cumulative, eff, 1, &cc.gen)}
}

func (c *Controller) issue(mode ModeKind, f api.Filter, page int, slot *uint64) Request {
	c.gen++
	*slot = c.gen
	req := Request{Mode: mode, Filter: f, Page: page, PageSize: c.pageSize, Gen: c.gen}
	c.log.WithFields(logrus.Fields{"mode": mode, "key": f.Key(), "page": page, "gen": req.Gen}).Debug("fetch issued")
	return req
}

// Resolve applies the outcome of req. Outcomes for superseded requests are
// discarded. A failure of the active mode's current request is returned as
// *FetchFailed; the returned requests are follow-ups the host must issue.
func (c *Controller) Resolve(req Request, result api.PageResult, err error) ([]Request, error) {
	log := c.log.WithFields(logrus.Fields{"mode": req.Mode, "key": req.Filter.Key(), "page": req.Page, "gen": req.Gen})

	switch req.Mode {
	case Discrete:
		d := &c.discrete
		if req.Gen != d.gen || !d.loading {
			log.Debug("discarding superseded response")
			return nil, nil
		}
		d.loading = false
		if err != nil {
			d.result = nil
			d.err = err
			log.WithError(err).Warn("fetch failed")
			return nil, c.failure(req, err)
		}
		d.result = &result
		d.fetchedAt = c.now()
		d.knownTotal = result.Total

		// A page beyond the end, e.g. after the filter changed in the other
		// mode, is clamped to the last page.
		if last := paging.TotalPages(result.Total, c.pageSize); c.mode == Discrete && last > 0 {
			if p := paging.Clamp(c.state.Page(), last); p != c.state.Page() {
				c.state.page = p
				return c.reconcile(), nil
			}
		}
		return nil, nil

	case Cumulative:
		cc := &c.cumulative
		if req.Gen != cc.gen || req.Page != len(cc.pages)+1 || !(cc.loading || cc.loadingMore) {
			log.Debug("discarding superseded response")
			return nil, nil
		}
		cc.loading, cc.loadingMore = false, false
		if err != nil {
			cc.err = err
			log.WithError(err).Warn("fetch failed")
			return nil, c.failure(req, err)
		}
		if len(cc.pages) == 0 {
			cc.fetchedAt = c.now()
		}
		cc.pages = append(cc.pages, result)
		loaded := cc.loaded()
		cc.total = max(result.Total, loaded)
		cc.hasMore = loaded < cc.total && len(result.Items) > 0
		log.WithFields(logrus.Fields{"loaded": loaded, "total": cc.total, "has_more": cc.hasMore}).Debug("page appended")
		return nil, nil
	}
	return nil, nil
}

func (c *Controller) failure(req Request, err error) error {
	if req.Mode != c.mode {
		return nil
	}
	return &FetchFailed{Mode: req.Mode, Key: req.Filter, Page: req.Page, Err: err}
}

// View derives the render state from the active cache only.
func (c *Controller) View() View {
	v := View{Filter: c.state.Filter(), Keyword: c.keyword}
	eff := c.effective()

	if c.mode == Discrete {
		d := &c.discrete
		v.Mode = DiscreteMode{Page: c.state.Page()}
		v.Page = c.state.Page()
		v.TotalPages = c.TotalPages()
		if d.filter == eff && d.page == v.Page {
			v.Loading = d.loading
			v.Err = d.err
			if d.result != nil {
				v.Items = d.result.Items
				v.Total = d.result.Total
			}
		} else {
			v.Loading = true
		}
		return v
	}

	cc := &c.cumulative
	if cc.filter != eff || !cc.primed {
		v.Mode = CumulativeMode{}
		v.Loading = true
		return v
	}
	pages := append([]api.PageResult(nil), cc.pages...)
	v.Mode = CumulativeMode{Pages: pages}
	items := make([]api.Item, 0, cc.loaded())
	for _, p := range pages {
		items = append(items, p.Items...)
	}
	v.Items = items
	v.Total = cc.total
	v.Loading = cc.loading
	v.IsLoadingMore = cc.loadingMore
	v.HasMore = cc.hasMore
	v.Err = cc.err
	return v
}
