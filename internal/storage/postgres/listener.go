package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"masbate_today/internal/domain"
)

// ChangesChannel is the NOTIFY channel fed by the articles_changed trigger.
const ChangesChannel = "articles_changed"

const listenerPingInterval = 90 * time.Second

// ArticleFeed turns article change notifications into fresh query snapshots.
type ArticleFeed struct {
	store  *ArticleStore
	dsn    string
	logger *slog.Logger
}

func NewArticleFeed(store *ArticleStore, dsn string, logger *slog.Logger) *ArticleFeed {
	return &ArticleFeed{store: store, dsn: dsn, logger: logger}
}

// Subscribe delivers the current result of q to fn once, then again after
// every change to the articles table. Calls to fn are sequential. The
// returned function stops delivery and is safe to call more than once.
func (f *ArticleFeed) Subscribe(ctx context.Context, q domain.ArticleQuery, fn func([]domain.Article)) (func(), error) {
	listener := pq.NewListener(f.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			f.logger.Warn("article listener event", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(ChangesChannel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", ChangesChannel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		f.push(subCtx, q, fn)

		ticker := time.NewTicker(listenerPingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-listener.Notify:
				if !ok {
					return
				}
				// A nil notification follows a reconnect; changes may have
				// been missed, so it still triggers a refresh.
				f.push(subCtx, q, fn)
			case <-ticker.C:
				go func() { _ = listener.Ping() }()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := listener.Close(); err != nil {
				f.logger.Warn("failed to close article listener", "error", err)
			}
			<-done
		})
	}, nil
}

func (f *ArticleFeed) push(ctx context.Context, q domain.ArticleQuery, fn func([]domain.Article)) {
	page, err := f.store.List(ctx, q)
	if err != nil {
		if ctx.Err() == nil {
			f.logger.Warn("failed to refresh live articles", "error", err)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	fn(page.Articles)
}
