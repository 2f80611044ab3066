package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"masbate_today/internal/domain"
)

type NewsletterStore struct {
	db *sqlx.DB
}

func NewNewsletterStore(db *sqlx.DB) *NewsletterStore {
	return &NewsletterStore{db: db}
}

// Subscribe is idempotent per address; the first subscription date is kept.
func (s *NewsletterStore) Subscribe(ctx context.Context, sub *domain.Subscriber) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO newsletter (email, subscribed_at) VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING`, sub.Email, sub.SubscribedAt)
	return err
}
