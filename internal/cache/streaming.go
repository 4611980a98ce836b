package cache

import (
	"context"

	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/core"
	"github.com/lansepyy/article-admin/internal/paging"
	"github.com/sirupsen/logrus"
)

// StreamOptions controls a cumulative export.
type StreamOptions struct {
	PageSize   int // defaults to core.PageSize
	MaxResults int // 0 means no limit
	Parallel   int // concurrent page fetches, defaults to core.ExportMaxWorkers
}

// pageSlot holds one page fetched by a worker. done is closed once
// result or err is set.
type pageSlot struct {
	done   chan struct{}
	result api.PageResult
	err    error
}

// StreamAll yields every item matching filter, in page order.
//
// Page 1 is fetched first to learn the total; pages 2..N are then fetched
// by a bounded pool of workers and emitted strictly in order. The error
// channel receives at most one error and is closed together with the item
// channel.
func (m *Manager) StreamAll(ctx context.Context, filter api.Filter, opts StreamOptions) (<-chan api.Item, <-chan error) {
	if opts.PageSize <= 0 {
		opts.PageSize = core.PageSize
	}
	if opts.Parallel <= 0 {
		opts.Parallel = core.ExportMaxWorkers
	}

	items := make(chan api.Item)
	errc := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errc)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		first, err := m.SearchItems(ctx, 1, opts.PageSize, filter)
		if err != nil {
			errc <- err
			return
		}

		lastPage := paging.TotalPages(first.Total, opts.PageSize)
		if opts.MaxResults > 0 {
			lastPage = min(lastPage, paging.TotalPages(opts.MaxResults, opts.PageSize))
		}
		m.log.WithFields(logrus.Fields{"total": first.Total, "pages": lastPage, "workers": opts.Parallel}).Debug("export started")

		emitted := 0
		emit := func(page []api.Item) bool {
			for _, it := range page {
				if opts.MaxResults > 0 && emitted >= opts.MaxResults {
					return false
				}
				select {
				case items <- it:
					emitted++
				case <-ctx.Done():
					errc <- ctx.Err()
					return false
				}
			}
			return true
		}

		if !emit(first.Items) || lastPage < 2 {
			return
		}

		slots := m.fetchPages(ctx, filter, opts, 2, lastPage)
		for page := 2; page <= lastPage; page++ {
			slot := slots[page-2]
			select {
			case <-slot.done:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
			if slot.err != nil {
				m.log.WithFields(logrus.Fields{"page": page, "error": slot.err}).Warn("export page failed")
				errc <- slot.err
				return
			}
			if !emit(slot.result.Items) {
				return
			}
		}
		m.log.WithField("items", emitted).Debug("export complete")
	}()

	return items, errc
}

// fetchPages starts one worker per page in [from, to], at most
// opts.Parallel running at a time.
func (m *Manager) fetchPages(ctx context.Context, filter api.Filter, opts StreamOptions, from, to int) []*pageSlot {
	slots := make([]*pageSlot, 0, to-from+1)
	semaphore := make(chan struct{}, opts.Parallel)

	for page := from; page <= to; page++ {
		slot := &pageSlot{done: make(chan struct{})}
		slots = append(slots, slot)

		go func(page int, slot *pageSlot) {
			defer close(slot.done)
			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				slot.err = ctx.Err()
				return
			}
			defer func() { <-semaphore }()

			slot.result, slot.err = m.SearchItems(ctx, page, opts.PageSize, filter)
		}(page, slot)
	}
	return slots
}
