package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPageTimeout is returned when a page fetch exceeds PaginatorOptions.Timeout.
var ErrPageTimeout = errors.New("pagination: page fetch timed out")

// PageFetcher loads up to limit rows that sort strictly after the cursor.
// A nil cursor asks for the first page.
type PageFetcher[T any] func(ctx context.Context, after *Cursor, limit int) ([]T, error)

// PaginatorOptions configures a Paginator.
type PaginatorOptions struct {
	PageSize int
	// Timeout bounds a single fetch. Zero leaves the fetch bounded only by the
	// caller's context.
	Timeout time.Duration
}

// Paginator accumulates pages of a newest-first listing for one listing
// session. It is safe for concurrent use; overlapping FetchNextPage calls
// issue a single query.
type Paginator[T any] struct {
	fetch    PageFetcher[T]
	keyOf    func(T) Cursor
	pageSize int
	timeout  time.Duration

	mu         sync.Mutex
	items      []T
	cursor     *Cursor
	exhausted  bool
	inFlight   bool
	generation uint64
}

// NewPaginator creates a paginator. keyOf returns the sort key of a row.
func NewPaginator[T any](fetch PageFetcher[T], keyOf func(T) Cursor, opts PaginatorOptions) *Paginator[T] {
	if opts.PageSize < 1 {
		opts.PageSize = DefaultLimit
	}
	return &Paginator[T]{
		fetch:    fetch,
		keyOf:    keyOf,
		pageSize: opts.PageSize,
		timeout:  opts.Timeout,
	}
}

// FetchFirstPage replaces the accumulated list with the newest page.
// A next-page fetch still running when this starts has its result dropped.
func (p *Paginator[T]) FetchFirstPage(ctx context.Context) error {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.inFlight = true
	p.mu.Unlock()

	rows, err := p.load(ctx, nil)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil
	}
	p.inFlight = false
	if err != nil {
		return err
	}

	p.items = append(make([]T, 0, len(rows)), rows...)
	p.exhausted = len(rows) < p.pageSize
	p.cursor = nil
	if len(rows) > 0 {
		last := p.keyOf(rows[len(rows)-1])
		p.cursor = &last
	}
	return nil
}

// FetchNextPage appends the page after the cursor. It returns immediately
// when the listing is exhausted or another fetch is in flight.
func (p *Paginator[T]) FetchNextPage(ctx context.Context) error {
	p.mu.Lock()
	if p.exhausted || p.inFlight {
		p.mu.Unlock()
		return nil
	}
	p.inFlight = true
	gen := p.generation
	var after *Cursor
	if p.cursor != nil {
		c := *p.cursor
		after = &c
	}
	p.mu.Unlock()

	rows, err := p.load(ctx, after)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil
	}
	p.inFlight = false
	if err != nil {
		return err
	}

	p.items = append(p.items, rows...)
	p.exhausted = len(rows) < p.pageSize
	if len(rows) > 0 {
		last := p.keyOf(rows[len(rows)-1])
		p.cursor = &last
	}
	return nil
}

func (p *Paginator[T]) load(ctx context.Context, after *Cursor) ([]T, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	rows, err := p.fetch(ctx, after, p.pageSize)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrPageTimeout, err)
		}
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	if len(rows) > p.pageSize {
		rows = rows[:p.pageSize]
	}
	return rows, nil
}

// CurrentList returns a copy of everything fetched so far, newest first.
func (p *Paginator[T]) CurrentList() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append(make([]T, 0, len(p.items)), p.items...)
}

// Exhausted reports whether the last page came back short.
func (p *Paginator[T]) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Loading reports whether a fetch is in flight.
func (p *Paginator[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Cursor returns the sort key of the last accumulated row, or nil.
func (p *Paginator[T]) Cursor() *Cursor {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor == nil {
		return nil
	}
	c := *p.cursor
	return &c
}

// Drain fetches pages until the listing is exhausted and returns the full list.
// The paginator must not be shared with other callers while draining.
func (p *Paginator[T]) Drain(ctx context.Context) ([]T, error) {
	if err := p.FetchFirstPage(ctx); err != nil {
		return nil, err
	}
	for !p.Exhausted() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.FetchNextPage(ctx); err != nil {
			return nil, err
		}
	}
	return p.CurrentList(), nil
}
