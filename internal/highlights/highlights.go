// Package highlights keeps the homepage article lists (trending, popular,
// breaking) and the article totals in a shared cache so that front ends do
// not each query the store for them.
package highlights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"masbate_today/internal/cache"
	"masbate_today/internal/config"
	"masbate_today/internal/domain"
	"masbate_today/internal/metrics"
)

type Kind string

const (
	KindTrending Kind = "trending"
	KindPopular  Kind = "popular"
	KindBreaking Kind = "breaking"
)

var Kinds = []Kind{KindTrending, KindPopular, KindBreaking}

const statsKey = "stats"

var ErrUnknownKind = errors.New("unknown highlight kind")

// Repository is the part of the article repository highlights are computed
// from. Its reads never fail; they degrade to the static dataset instead.
type Repository interface {
	GetTrendingArticles(ctx context.Context, limit int) []domain.Article
	GetPopularArticles(ctx context.Context, limit int) []domain.Article
	GetBreakingNews(ctx context.Context, limit int) []domain.Article
	GetArticleStats(ctx context.Context) domain.ArticleStats
}

type Service struct {
	repo   Repository
	cache  cache.Cache
	feed   config.FeedConfig
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewService stores snapshots for ttl; zero means the cache default.
func NewService(repo Repository, c cache.Cache, feed config.FeedConfig, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  c,
		feed:   feed,
		ttl:    ttl,
		logger: logger.With("component", "highlights"),
	}
}

// Articles returns the cached list for kind. On a miss the list is computed
// once for all concurrent callers and stored.
func (s *Service) Articles(ctx context.Context, kind Kind) ([]domain.Article, error) {
	compute, err := s.computer(kind)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, string(kind), compute), nil
}

func (s *Service) Stats(ctx context.Context) domain.ArticleStats {
	return cached(ctx, s, statsKey, s.repo.GetArticleStats)
}

// Refresh recomputes every highlight concurrently and overwrites the cache.
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	for _, kind := range Kinds {
		compute, _ := s.computer(kind)
		key := string(kind)
		g.Go(func() error {
			return s.store(gctx, key, compute(gctx))
		})
	}
	g.Go(func() error {
		return s.store(gctx, statsKey, s.repo.GetArticleStats(gctx))
	})

	if err := g.Wait(); err != nil {
		metrics.RecordRefresh("error")
		return fmt.Errorf("refresh highlights: %w", err)
	}

	metrics.RecordRefresh("ok")
	s.logger.Info("highlights refreshed", "duration", time.Since(start))
	return nil
}

func (s *Service) computer(kind Kind) (func(context.Context) []domain.Article, error) {
	switch kind {
	case KindTrending:
		return func(ctx context.Context) []domain.Article {
			return s.repo.GetTrendingArticles(ctx, s.feed.TrendingLimit)
		}, nil
	case KindPopular:
		return func(ctx context.Context) []domain.Article {
			return s.repo.GetPopularArticles(ctx, s.feed.PopularLimit)
		}, nil
	case KindBreaking:
		return func(ctx context.Context) []domain.Article {
			return s.repo.GetBreakingNews(ctx, s.feed.BreakingLimit)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (s *Service) store(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func cached[T any](ctx context.Context, s *Service, key string, compute func(context.Context) T) T {
	if data, ok := s.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v
		}
		s.logger.Warn("discarding unreadable cache entry", "key", key)
	}

	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		value := compute(ctx)
		if err := s.store(ctx, key, value); err != nil {
			s.logger.Warn("failed to cache highlight", "key", key, "error", err)
		}
		return value, nil
	})
	return v.(T)
}
