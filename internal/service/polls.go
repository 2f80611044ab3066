package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"masbate_today/internal/domain"
	"masbate_today/internal/metrics"
)

type PollService struct {
	store  PollStore
	logger *slog.Logger
	now    func() time.Time
}

// NewPollService builds the poll service. A nil store means the backend is
// not configured.
func NewPollService(store PollStore, logger *slog.Logger) *PollService {
	return &PollService{
		store:  store,
		logger: logger.With("component", "polls"),
		now:    time.Now,
	}
}

// GetPollByArticle returns the first poll attached to the article, or nil.
// With several polls per article the first one found wins.
func (s *PollService) GetPollByArticle(ctx context.Context, articleID string) *domain.Poll {
	if s.store == nil {
		return nil
	}

	poll, err := s.store.FindByArticle(ctx, articleID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("failed to load poll", "article_id", articleID, "error", err)
		}
		return nil
	}

	return poll
}

func (s *PollService) CreatePoll(ctx context.Context, articleID, question string, options []string, expiresAt *time.Time) (string, error) {
	if s.store == nil {
		metrics.RecordWriteError("create_poll")
		return "", fmt.Errorf("create poll: %w", domain.ErrNotConfigured)
	}

	poll := &domain.Poll{
		ArticleID: articleID,
		Question:  strings.TrimSpace(question),
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	for _, text := range options {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		poll.Options = append(poll.Options, domain.PollOption{Text: text})
	}

	if poll.Question == "" || len(poll.Options) < 2 {
		return "", fmt.Errorf("%w: need a question and at least two options", domain.ErrInvalidPoll)
	}

	id, err := s.store.Create(ctx, poll)
	if err != nil {
		metrics.RecordWriteError("create_poll")
		return "", err
	}

	s.logger.Info("poll created", "id", id, "article_id", articleID, "options", len(poll.Options))

	return id, nil
}

func (s *PollService) Vote(ctx context.Context, pollID, optionID string) error {
	if s.store == nil {
		metrics.RecordWriteError("vote")
		return fmt.Errorf("vote: %w", domain.ErrNotConfigured)
	}

	poll, err := s.store.Get(ctx, pollID)
	if err != nil {
		return err
	}

	if !poll.Open(s.now()) {
		return domain.ErrPollClosed
	}
	if _, ok := poll.Option(optionID); !ok {
		return domain.ErrUnknownOption
	}

	if err := s.store.Vote(ctx, pollID, optionID); err != nil {
		metrics.RecordWriteError("vote")
		return err
	}

	return nil
}
