package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"masbate_today/internal/domain"
)

type ArticleStore interface {
	List(ctx context.Context, q domain.ArticleQuery) (domain.Page, error)
	Get(ctx context.Context, id string) (*domain.Article, error)
	Create(ctx context.Context, article *domain.Article) (string, error)
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

type StaticDataset interface {
	ForCategory(c domain.Category) []domain.Article
	All() []domain.Article
	Find(id string) (domain.Article, bool)
}

type PollStore interface {
	Create(ctx context.Context, poll *domain.Poll) (string, error)
	Get(ctx context.Context, id string) (*domain.Poll, error)
	FindByArticle(ctx context.Context, articleID string) (*domain.Poll, error)
	Vote(ctx context.Context, pollID, optionID string) error
}

type NewsletterStore interface {
	Subscribe(ctx context.Context, subscriber *domain.Subscriber) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.ArticleEvent) error
	Close() error
}

type MediaStore interface {
	Delete(ctx context.Context, url string)
}
