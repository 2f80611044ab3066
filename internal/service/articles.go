package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"masbate_today/internal/config"
	"masbate_today/internal/domain"
	"masbate_today/internal/metrics"
	"masbate_today/internal/source"
)

const (
	sourceRemote = "remote"
	sourceStatic = "static"
)

// ListOptions selects a page of published articles. Nil filters match
// everything; Cursor is the Next value of a previous page.
type ListOptions struct {
	Category *domain.Category
	Featured *bool
	Limit    int
	Cursor   domain.Cursor
}

// ArticleRepository reads and writes articles without exposing whether the
// remote store is reachable. Reads degrade to the bundled dataset and never
// fail; writes require the store.
type ArticleRepository struct {
	store     ArticleStore
	static    StaticDataset
	publisher Publisher
	media     MediaStore
	logger    *slog.Logger
	config    config.FeedConfig
	now       func() time.Time
}

// NewArticleRepository builds a repository. A nil store means the backend is
// not configured. A nil publisher disables change events.
func NewArticleRepository(
	store ArticleStore,
	static StaticDataset,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.FeedConfig,
) *ArticleRepository {
	return &ArticleRepository{
		store:     store,
		static:    static,
		publisher: publisher,
		logger:    logger.With("component", "articles"),
		config:    cfg,
		now:       time.Now,
	}
}

// WithMedia makes DeleteArticle also remove the article's uploaded files.
func (r *ArticleRepository) WithMedia(media MediaStore) *ArticleRepository {
	r.media = media
	return r
}

// Configured reports whether writes can succeed.
func (r *ArticleRepository) Configured() bool {
	return r.store != nil
}

func (r *ArticleRepository) GetArticles(ctx context.Context, opts ListOptions) domain.Page {
	limit := r.limitOr(opts.Limit, r.config.PageSize)

	var remote func(context.Context) (domain.Page, error)
	if r.store != nil {
		remote = func(ctx context.Context) (domain.Page, error) {
			page, err := r.store.List(ctx, domain.ArticleQuery{
				Category: opts.Category,
				Featured: opts.Featured,
				Order:    domain.OrderNewest,
				Limit:    limit,
				After:    opts.Cursor,
			})
			if err != nil {
				return domain.Page{}, fmt.Errorf("list articles: %w", err)
			}
			if len(page.Articles) < limit {
				page.Next = ""
			}
			page.Articles = domain.Dedupe(page.Articles)
			return page, nil
		}
	}

	// A continuation page that comes back empty is the end of the data, not
	// a reason to splice bundled articles into a remote listing.
	empty := func(p domain.Page) bool {
		return len(p.Articles) == 0 && opts.Cursor == ""
	}

	page, src, err := source.First(ctx, r.logger, empty,
		source.Attempt[domain.Page]{Name: sourceRemote, Fetch: remote},
		source.Attempt[domain.Page]{Name: sourceStatic, Fetch: func(context.Context) (domain.Page, error) {
			// The featured filter is not applied to bundled data.
			return domain.Page{Articles: r.staticArticles(opts.Category, limit)}, nil
		}},
	)
	metrics.RecordRead("get_articles", src)
	if err != nil {
		return domain.Page{}
	}

	return page
}

// GetArticle returns nil when the id is unknown to both the store and the
// bundled dataset.
func (r *ArticleRepository) GetArticle(ctx context.Context, id string) *domain.Article {
	var remote func(context.Context) (*domain.Article, error)
	if r.store != nil {
		remote = func(ctx context.Context) (*domain.Article, error) {
			a, err := r.store.Get(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("get article %s: %w", id, err)
			}
			return a, nil
		}
	}

	article, src, err := source.First(ctx, r.logger,
		func(a *domain.Article) bool { return a == nil },
		source.Attempt[*domain.Article]{Name: sourceRemote, Fetch: remote},
		source.Attempt[*domain.Article]{Name: sourceStatic, Fetch: func(context.Context) (*domain.Article, error) {
			a, ok := r.static.Find(id)
			if !ok {
				return nil, nil
			}
			return &a, nil
		}},
	)
	metrics.RecordRead("get_article", src)
	if err != nil {
		return nil
	}

	return article
}

func (r *ArticleRepository) CreateArticle(ctx context.Context, in domain.ArticleInput) (string, error) {
	if r.store == nil {
		metrics.RecordWriteError("create")
		return "", fmt.Errorf("create article: %w", domain.ErrNotConfigured)
	}
	if _, err := domain.ParseCategory(string(in.Category)); err != nil {
		return "", err
	}

	now := r.now()
	article := domain.Article{
		Category:      in.Category,
		Title:         in.Title,
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		Author:        in.Author,
		Tags:          in.Tags,
		Published:     in.Published,
		Featured:      in.Featured,
		Sponsored:     in.Sponsored,
		Premium:       in.Premium,
		FeaturedImage: in.FeaturedImage,
		Images:        in.Images,
		VideoURL:      in.VideoURL,
		VideoEmbed:    in.VideoEmbed,
		Views:         0,
		ReadingTime:   domain.ReadingTime(in.Content),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if article.Author == "" {
		article.Author = "staff"
	}
	if article.Published {
		article.PublishedAt = &now
	}

	id, err := r.store.Create(ctx, &article)
	if err != nil {
		metrics.RecordWriteError("create")
		return "", err
	}
	article.ID = id

	r.logger.Info("article created", "id", id, "category", article.Category, "published", article.Published)
	r.publish(ctx, domain.ActionCreate, id, &article)

	return id, nil
}

// UpdateArticle applies patch to the stored article. publishedAt is cleared
// when the result is unpublished, and otherwise set to the supplied value or
// the current time.
func (r *ArticleRepository) UpdateArticle(ctx context.Context, id string, patch domain.ArticlePatch) error {
	if r.store == nil {
		metrics.RecordWriteError("update")
		return fmt.Errorf("update article: %w", domain.ErrNotConfigured)
	}
	if patch.Category != nil {
		if _, err := domain.ParseCategory(string(*patch.Category)); err != nil {
			return err
		}
	}

	current, err := r.store.Get(ctx, id)
	if err != nil {
		metrics.RecordWriteError("update")
		return err
	}

	now := r.now()
	updated := *current
	patch.Apply(&updated)
	updated.ID = id
	updated.UpdatedAt = now

	switch {
	case !updated.Published:
		updated.PublishedAt = nil
	case patch.PublishedAt != nil:
		publishedAt := *patch.PublishedAt
		updated.PublishedAt = &publishedAt
	default:
		updated.PublishedAt = &now
	}

	if patch.Content != nil {
		updated.ReadingTime = domain.ReadingTime(updated.Content)
	}

	if err := r.store.Update(ctx, &updated); err != nil {
		metrics.RecordWriteError("update")
		return err
	}

	r.logger.Info("article updated", "id", id, "published", updated.Published)
	r.publish(ctx, domain.ActionUpdate, id, &updated)

	return nil
}

func (r *ArticleRepository) DeleteArticle(ctx context.Context, id string) error {
	if r.store == nil {
		metrics.RecordWriteError("delete")
		return fmt.Errorf("delete article: %w", domain.ErrNotConfigured)
	}

	var media []string
	if r.media != nil {
		if current, err := r.store.Get(ctx, id); err == nil {
			media = mediaURLs(current)
		}
	}

	if err := r.store.Delete(ctx, id); err != nil {
		metrics.RecordWriteError("delete")
		return err
	}

	r.logger.Info("article deleted", "id", id)
	r.publish(ctx, domain.ActionDelete, id, nil)

	for _, url := range media {
		r.media.Delete(ctx, url)
	}

	return nil
}

func mediaURLs(a *domain.Article) []string {
	var urls []string
	if a.FeaturedImage != nil && *a.FeaturedImage != "" {
		urls = append(urls, *a.FeaturedImage)
	}
	for _, img := range a.Images {
		if img != "" {
			urls = append(urls, img)
		}
	}
	if a.VideoURL != nil && *a.VideoURL != "" {
		urls = append(urls, *a.VideoURL)
	}
	return urls
}

// IncrementViews adds one view. Failures are logged and dropped; callers that
// must not wait run it in its own goroutine.
func (r *ArticleRepository) IncrementViews(ctx context.Context, id string) {
	if r.store == nil {
		r.logger.Debug("view not counted, backend not configured", "id", id)
		return
	}

	if err := r.store.IncrementViews(ctx, id); err != nil {
		metrics.RecordWriteError("increment_views")
		r.logger.Warn("failed to increment views", "id", id, "error", err)
	}
}

// SearchArticles matches term against title, excerpt and tags. The remote path
// only looks at the limit most recently published articles.
func (r *ArticleRepository) SearchArticles(ctx context.Context, term string, limit int) []domain.Article {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}
	limit = r.limitOr(limit, r.config.SearchLimit)

	var remote func(context.Context) ([]domain.Article, error)
	if r.store != nil {
		remote = func(ctx context.Context) ([]domain.Article, error) {
			page, err := r.store.List(ctx, domain.ArticleQuery{Order: domain.OrderNewest, Limit: limit})
			if err != nil {
				return nil, fmt.Errorf("search articles: %w", err)
			}
			return matching(domain.Dedupe(page.Articles), needle, 0), nil
		}
	}

	// A remote search with no matches is a valid answer.
	results, src, err := source.First(ctx, r.logger, nil,
		source.Attempt[[]domain.Article]{Name: sourceRemote, Fetch: remote},
		source.Attempt[[]domain.Article]{Name: sourceStatic, Fetch: func(context.Context) ([]domain.Article, error) {
			return matching(domain.Dedupe(r.static.All()), needle, limit), nil
		}},
	)
	metrics.RecordRead("search", src)
	if err != nil {
		return nil
	}

	return results
}

// GetTrendingArticles returns the most viewed articles published within the
// trending window.
func (r *ArticleRepository) GetTrendingArticles(ctx context.Context, limit int) []domain.Article {
	limit = r.limitOr(limit, r.config.TrendingLimit)
	return r.derived(ctx, "trending", limit, domain.ArticleQuery{
		PublishedSince: r.now().Add(-r.config.TrendingWindow),
		Order:          domain.OrderMostViewed,
		Limit:          limit,
	})
}

func (r *ArticleRepository) GetPopularArticles(ctx context.Context, limit int) []domain.Article {
	limit = r.limitOr(limit, r.config.PopularLimit)
	return r.derived(ctx, "popular", limit, domain.ArticleQuery{
		Order: domain.OrderMostViewed,
		Limit: limit,
	})
}

// GetBreakingNews returns the newest articles published within the breaking
// window.
func (r *ArticleRepository) GetBreakingNews(ctx context.Context, limit int) []domain.Article {
	limit = r.limitOr(limit, r.config.BreakingLimit)
	return r.derived(ctx, "breaking", limit, domain.ArticleQuery{
		PublishedSince: r.now().Add(-r.config.BreakingWindow),
		Order:          domain.OrderNewest,
		Limit:          limit,
	})
}

// GetRelatedArticles returns the newest articles sharing a's category,
// excluding a itself.
func (r *ArticleRepository) GetRelatedArticles(ctx context.Context, a domain.Article, limit int) []domain.Article {
	limit = r.limitOr(limit, r.config.TrendingLimit)
	category := a.Category

	var remote func(context.Context) ([]domain.Article, error)
	if r.store != nil {
		remote = func(ctx context.Context) ([]domain.Article, error) {
			page, err := r.store.List(ctx, domain.ArticleQuery{
				Category: &category,
				Order:    domain.OrderNewest,
				Limit:    limit + 1,
			})
			if err != nil {
				return nil, fmt.Errorf("list related articles: %w", err)
			}
			return truncate(without(domain.Dedupe(page.Articles), a.ID), limit), nil
		}
	}

	results, src, err := source.First(ctx, r.logger, isEmpty,
		source.Attempt[[]domain.Article]{Name: sourceRemote, Fetch: remote},
		source.Attempt[[]domain.Article]{Name: sourceStatic, Fetch: func(context.Context) ([]domain.Article, error) {
			return truncate(without(domain.Dedupe(r.static.ForCategory(category)), a.ID), limit), nil
		}},
	)
	metrics.RecordRead("related", src)
	if err != nil {
		return nil
	}

	return results
}

// GetArticleStats scans every published article once.
func (r *ArticleRepository) GetArticleStats(ctx context.Context) domain.ArticleStats {
	var remote func(context.Context) ([]domain.Article, error)
	if r.store != nil {
		remote = func(ctx context.Context) ([]domain.Article, error) {
			page, err := r.store.List(ctx, domain.ArticleQuery{Order: domain.OrderNewest})
			if err != nil {
				return nil, fmt.Errorf("list articles for stats: %w", err)
			}
			return domain.Dedupe(page.Articles), nil
		}
	}

	articles, src, _ := source.First(ctx, r.logger, isEmpty,
		source.Attempt[[]domain.Article]{Name: sourceRemote, Fetch: remote},
		source.Attempt[[]domain.Article]{Name: sourceStatic, Fetch: func(context.Context) ([]domain.Article, error) {
			return domain.Dedupe(r.static.All()), nil
		}},
	)
	metrics.RecordRead("stats", src)

	return computeStats(articles, r.now())
}

func (r *ArticleRepository) derived(ctx context.Context, name string, limit int, q domain.ArticleQuery) []domain.Article {
	var remote func(context.Context) ([]domain.Article, error)
	if r.store != nil {
		remote = func(ctx context.Context) ([]domain.Article, error) {
			page, err := r.store.List(ctx, q)
			if err != nil {
				return nil, fmt.Errorf("list %s articles: %w", name, err)
			}
			return domain.Dedupe(page.Articles), nil
		}
	}

	results, src, err := source.First(ctx, r.logger.With("list", name), isEmpty,
		source.Attempt[[]domain.Article]{Name: sourceRemote, Fetch: remote},
		source.Attempt[[]domain.Article]{Name: sourceStatic, Fetch: func(context.Context) ([]domain.Article, error) {
			return truncate(byViews(domain.Dedupe(r.static.All())), limit), nil
		}},
	)
	metrics.RecordRead(name, src)
	if err != nil {
		return nil
	}

	return results
}

func (r *ArticleRepository) staticArticles(category *domain.Category, limit int) []domain.Article {
	var articles []domain.Article
	if category != nil {
		articles = r.static.ForCategory(*category)
	} else {
		articles = r.static.All()
	}
	return truncate(domain.Dedupe(articles), limit)
}

func (r *ArticleRepository) publish(ctx context.Context, action domain.EventAction, id string, article *domain.Article) {
	if r.publisher == nil {
		return
	}

	event := &domain.ArticleEvent{
		Action:    action,
		ArticleID: id,
		Article:   article,
		Timestamp: r.now().UTC(),
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Error("failed to publish article event",
			"id", id,
			"action", action,
			"error", err,
		)
	}
}

func (r *ArticleRepository) limitOr(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}

func computeStats(articles []domain.Article, now time.Time) domain.ArticleStats {
	stats := domain.ArticleStats{Total: len(articles)}

	year, month, _ := now.Date()
	for _, a := range articles {
		stats.TotalViews += a.Views
		if a.PublishedAt != nil {
			y, m, _ := a.PublishedAt.In(now.Location()).Date()
			if y == year && m == month {
				stats.PublishedThisMonth++
			}
		}
	}

	if stats.Total > 0 {
		total := int64(stats.Total)
		stats.AverageViews = (stats.TotalViews + total/2) / total
	}

	return stats
}

// matching keeps articles whose title, excerpt or a tag contains needle.
// needle must already be lower case. A limit of 0 keeps every match.
func matching(articles []domain.Article, needle string, limit int) []domain.Article {
	var out []domain.Article
	for _, a := range articles {
		if limit > 0 && len(out) == limit {
			break
		}
		if matches(a, needle) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a domain.Article, needle string) bool {
	if strings.Contains(strings.ToLower(a.Title), needle) ||
		strings.Contains(strings.ToLower(a.Excerpt), needle) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func byViews(articles []domain.Article) []domain.Article {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Views > articles[j].Views
	})
	return articles
}

func without(articles []domain.Article, id string) []domain.Article {
	out := articles[:0]
	for _, a := range articles {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func truncate(articles []domain.Article, limit int) []domain.Article {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}

func isEmpty(articles []domain.Article) bool {
	return len(articles) == 0
}
