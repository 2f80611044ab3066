// Package feed holds the stateful consumers of the article repository: a
// paginator that accumulates pages for infinite scroll and a live feed that
// mirrors a subscribed query.
package feed

import (
	"context"
	"sync"
	"sync/atomic"

	"masbate_today/internal/domain"
	"masbate_today/internal/service"
)

const DefaultPageSize = 10

// Loader is satisfied by *service.ArticleRepository.
type Loader interface {
	GetArticles(ctx context.Context, opts service.ListOptions) domain.Page
}

// Paginator accumulates pages of a listing in request order. Only one load
// runs at a time; calls made while a load is in flight are dropped.
type Paginator struct {
	loader   Loader
	pageSize int
	inFlight atomic.Bool

	mu         sync.Mutex
	category   *domain.Category
	featured   *bool
	articles   []domain.Article
	seen       map[string]struct{}
	cursor     domain.Cursor
	hasMore    bool
	generation uint64
}

func NewPaginator(loader Loader, category *domain.Category, featured *bool, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{
		loader:   loader,
		pageSize: pageSize,
		category: category,
		featured: featured,
		seen:     make(map[string]struct{}),
		hasMore:  true,
	}
}

// LoadMore fetches the next page and appends it. It reports false without
// calling the loader when a load is already running or the listing is
// exhausted.
//
// A page shorter than the page size, or one without a continuation cursor,
// ends the listing.
func (p *Paginator) LoadMore(ctx context.Context) bool {
	if !p.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer p.inFlight.Store(false)

	p.mu.Lock()
	if !p.hasMore {
		p.mu.Unlock()
		return false
	}
	opts := service.ListOptions{
		Category: p.category,
		Featured: p.featured,
		Limit:    p.pageSize,
		Cursor:   p.cursor,
	}
	generation := p.generation
	p.mu.Unlock()

	page := p.loader.GetArticles(ctx, opts)

	p.mu.Lock()
	defer p.mu.Unlock()

	// Reset while loading: the page belongs to the old listing.
	if generation != p.generation {
		return true
	}

	for _, a := range page.Articles {
		if _, dup := p.seen[a.ID]; dup {
			continue
		}
		p.seen[a.ID] = struct{}{}
		p.articles = append(p.articles, a)
	}
	p.cursor = page.Next
	p.hasMore = len(page.Articles) == p.pageSize && page.Next != ""

	return true
}

// Reset clears the accumulated listing so the next LoadMore starts over.
func (p *Paginator) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

// SetFilter switches the listing to a new category and featured filter and
// resets it.
func (p *Paginator) SetFilter(category *domain.Category, featured *bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.category = category
	p.featured = featured
	p.reset()
}

func (p *Paginator) reset() {
	p.articles = nil
	p.seen = make(map[string]struct{})
	p.cursor = ""
	p.hasMore = true
	p.generation++
}

// Articles returns a copy of everything loaded so far.
func (p *Paginator) Articles() []domain.Article {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Article, len(p.articles))
	copy(out, p.articles)
	return out
}

func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Paginator) Loading() bool {
	return p.inFlight.Load()
}
