package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"masbate_today/internal/domain"
	"masbate_today/internal/metrics"
)

type NewsletterService struct {
	store  NewsletterStore
	logger *slog.Logger
	now    func() time.Time
}

func NewNewsletterService(store NewsletterStore, logger *slog.Logger) *NewsletterService {
	return &NewsletterService{
		store:  store,
		logger: logger.With("component", "newsletter"),
		now:    time.Now,
	}
}

// Subscribe adds email to the newsletter list. Subscribing twice is not an
// error.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))

	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return fmt.Errorf("%w: %q", domain.ErrInvalidEmail, email)
	}

	if s.store == nil {
		metrics.RecordWriteError("subscribe")
		return fmt.Errorf("subscribe: %w", domain.ErrNotConfigured)
	}

	if err := s.store.Subscribe(ctx, &domain.Subscriber{
		Email:        normalized,
		SubscribedAt: s.now().UTC(),
	}); err != nil {
		metrics.RecordWriteError("subscribe")
		return err
	}

	s.logger.Info("newsletter subscription added")

	return nil
}
