// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package paging turns offset/limit page requests into a lazy sequence.
package paging

import (
	"context"
	"iter"

	"github.com/rs/zerolog"

	"github.com/ManuGH/dlcat/internal/future"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/metrics"
)

// Page is one response of a fetch. More is nil when the service does not
// say whether further pages exist. Returned is the number of entries the
// service sent, counting any dropped before they reached Items; zero means
// len(Items).
type Page[R any] struct {
	Items    []R
	Returned int
	More     *bool
}

func (p Page[R]) returned() int {
	return max(p.Returned, len(p.Items))
}

// More returns a pointer to b for Page.More.
func More(b bool) *bool {
	return &b
}

// FetchFunc requests up to limit items starting at offset.
type FetchFunc[R any] func(offset, limit int) *future.Future[Page[R]]

// Option configures an Iterator.
type Option func(*options)

type options struct {
	ctx    context.Context
	op     string
	logger zerolog.Logger
}

// WithContext bounds each page wait by ctx.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithOperation labels fetch metrics and log lines.
func WithOperation(op string) Option {
	return func(o *options) { o.op = op }
}

// WithLogger sets the logger used for skipped items.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Iterator is a pull based, single pass sequence over paged results. A page
// is only requested when the previous one has been consumed.
type Iterator[R, T any] struct {
	fetch     FetchFunc[R]
	translate func(R) (T, error)
	limit     int
	opts      options

	buf     []R
	idx     int
	offset  int
	done    bool
	fetches int
	cur     T
	err     error
}

// New creates an iterator. A limit of zero issues a single unbounded fetch.
// Items whose translation fails are logged and skipped.
func New[R, T any](fetch FetchFunc[R], limit int, translate func(R) (T, error), opts ...Option) *Iterator[R, T] {
	o := options{
		ctx:    context.Background(),
		logger: xglog.WithComponent("paging"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if limit < 0 {
		limit = 0
	}
	return &Iterator[R, T]{fetch: fetch, translate: translate, limit: limit, opts: o}
}

// Next advances to the next translated item. It returns false when the
// sequence is exhausted or a fetch failed; see Err.
func (it *Iterator[R, T]) Next() bool {
	for {
		for it.idx < len(it.buf) {
			raw := it.buf[it.idx]
			it.idx++
			v, err := it.translate(raw)
			if err != nil {
				metrics.IncCatalogSkipped(it.opts.op, "translate")
				it.opts.logger.Debug().Err(err).Str(xglog.FieldOperation, it.opts.op).Msg("skipping item")
				continue
			}
			it.cur = v
			return true
		}
		if it.done || it.err != nil {
			var zero T
			it.cur = zero
			return false
		}
		it.nextPage()
	}
}

func (it *Iterator[R, T]) nextPage() {
	it.fetches++
	metrics.IncPageFetch(it.opts.op)
	page, err := it.fetch(it.offset, it.limit).Wait(it.opts.ctx)
	if err != nil {
		it.err = err
		it.buf = nil
		return
	}
	n := page.returned()
	if dropped := n - len(page.Items); dropped > 0 {
		it.opts.logger.Warn().
			Str(xglog.FieldOperation, it.opts.op).
			Int(xglog.FieldOffset, it.offset).
			Int(xglog.FieldCount, dropped).
			Msg("page contained undecodable entries")
	}
	it.buf, it.idx = page.Items, 0
	it.offset += n

	switch {
	case n == 0, it.limit == 0:
		it.done = true
	case page.More != nil:
		it.done = !*page.More
	default:
		it.done = n < it.limit
	}
	it.opts.logger.Trace().
		Str(xglog.FieldOperation, it.opts.op).
		Int(xglog.FieldOffset, it.offset-n).
		Int(xglog.FieldLimit, it.limit).
		Int(xglog.FieldCount, n).
		Bool("done", it.done).
		Msg("fetched page")
}

// Value returns the current item.
func (it *Iterator[R, T]) Value() T {
	return it.cur
}

// Err returns the fetch error that stopped iteration, if any.
func (it *Iterator[R, T]) Err() error {
	return it.err
}

// Fetches returns the number of page requests issued so far.
func (it *Iterator[R, T]) Fetches() int {
	return it.fetches
}

// All returns the remaining items as a range-over-func sequence.
func (it *Iterator[R, T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

// Collect drains the iterator. On a fetch error it returns the items read
// before the failure together with the error.
func (it *Iterator[R, T]) Collect() ([]T, error) {
	var out []T
	for it.Next() {
		out = append(out, it.Value())
	}
	return out, it.Err()
}
