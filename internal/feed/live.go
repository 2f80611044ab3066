package feed

import (
	"context"
	"log/slog"
	"sync"

	"masbate_today/internal/domain"
	"masbate_today/internal/metrics"
)

// Subscriber pushes the full result of q to fn whenever it changes. The
// returned function ends the subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, q domain.ArticleQuery, fn func([]domain.Article)) (func(), error)
}

type LiveOptions struct {
	Category *domain.Category
	Featured *bool
	Limit    int
}

// LiveFeed mirrors the latest snapshot of a subscribed query. Every push
// replaces the list wholesale; snapshots are applied in arrival order with
// no staleness check.
type LiveFeed struct {
	opts    LiveOptions
	logger  *slog.Logger
	changes chan struct{}

	mu       sync.RWMutex
	articles []domain.Article
	loading  bool
	closed   bool

	cancel      context.CancelFunc
	unsubscribe func()
	closeOnce   sync.Once
}

// Watch subscribes to the published articles selected by opts. With a nil
// subscriber the feed is empty and not loading. The subscription ends on
// Close or when ctx is cancelled.
func Watch(ctx context.Context, sub Subscriber, opts LiveOptions, logger *slog.Logger) *LiveFeed {
	f := &LiveFeed{
		opts:    opts,
		logger:  logger.With("component", "live_feed"),
		changes: make(chan struct{}, 1),
	}
	if sub == nil {
		return f
	}

	f.loading = true
	ctx, f.cancel = context.WithCancel(ctx)

	unsubscribe, err := sub.Subscribe(ctx, domain.ArticleQuery{
		Category: opts.Category,
		Featured: opts.Featured,
		Order:    domain.OrderNewest,
		Limit:    opts.Limit,
	}, f.apply)
	if err != nil {
		f.logger.Warn("failed to subscribe to articles", "error", err)
		f.cancel()
		f.mu.Lock()
		f.loading = false
		f.mu.Unlock()
		return f
	}
	f.unsubscribe = unsubscribe

	go func() {
		<-ctx.Done()
		f.Close()
	}()

	return f
}

func (f *LiveFeed) apply(snapshot []domain.Article) {
	articles := make([]domain.Article, 0, len(snapshot))
	for _, a := range domain.Dedupe(snapshot) {
		if f.opts.Category != nil && a.Category != *f.opts.Category {
			continue
		}
		if f.opts.Featured != nil && a.Featured != *f.opts.Featured {
			continue
		}
		articles = append(articles, a)
	}
	if f.opts.Limit > 0 && len(articles) > f.opts.Limit {
		articles = articles[:f.opts.Limit]
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.articles = articles
	f.loading = false
	f.mu.Unlock()

	metrics.LiveSnapshotsTotal.Inc()

	select {
	case f.changes <- struct{}{}:
	default:
	}
}

func (f *LiveFeed) Articles() []domain.Article {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]domain.Article, len(f.articles))
	copy(out, f.articles)
	return out
}

// Loading is true until the first snapshot arrives.
func (f *LiveFeed) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}

// Changes receives a signal after each applied snapshot. Signals coalesce
// when the reader falls behind.
func (f *LiveFeed) Changes() <-chan struct{} {
	return f.changes
}

// Close ends the subscription. It is safe to call more than once.
func (f *LiveFeed) Close() {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.loading = false
		f.mu.Unlock()

		if f.cancel != nil {
			f.cancel()
		}
		if f.unsubscribe != nil {
			f.unsubscribe()
		}
	})
}
