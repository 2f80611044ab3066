package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"masbate_today/internal/domain"
)

type PollStore struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewPollStore(db *sqlx.DB, tx *TransactionManager) *PollStore {
	return &PollStore{db: db, tx: tx}
}

// Create writes the poll and its options atomically and assigns ids to both.
func (s *PollStore) Create(ctx context.Context, poll *domain.Poll) (string, error) {
	poll.ID = uuid.NewString()

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		_, err := exec.ExecContext(ctx, `
			INSERT INTO polls (id, article_id, question, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			poll.ID, poll.ArticleID, poll.Question, poll.ExpiresAt, poll.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert poll: %w", err)
		}

		for i := range poll.Options {
			opt := &poll.Options[i]
			opt.ID = uuid.NewString()

			_, err := exec.ExecContext(ctx, `
				INSERT INTO poll_options (id, poll_id, position, text, votes)
				VALUES ($1, $2, $3, $4, $5)`,
				opt.ID, poll.ID, i, opt.Text, opt.Votes,
			)
			if err != nil {
				return fmt.Errorf("insert poll option: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return poll.ID, nil
}

func (s *PollStore) Get(ctx context.Context, id string) (*domain.Poll, error) {
	var poll domain.Poll
	err := s.db.GetContext(ctx, &poll, `
		SELECT id, article_id, question, expires_at, created_at
		FROM polls WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.SelectContext(ctx, &poll.Options, `
		SELECT id, text, votes FROM poll_options
		WHERE poll_id = $1 ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("select poll options: %w", err)
	}

	return &poll, nil
}

// FindByArticle returns the oldest poll attached to the article.
func (s *PollStore) FindByArticle(ctx context.Context, articleID string) (*domain.Poll, error) {
	var id string
	err := s.db.GetContext(ctx, &id, `
		SELECT id FROM polls WHERE article_id = $1
		ORDER BY created_at, id LIMIT 1`, articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *PollStore) Vote(ctx context.Context, pollID, optionID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE poll_options SET votes = votes + 1
		WHERE poll_id = $1 AND id = $2`, pollID, optionID)
	if err != nil {
		return err
	}
	return expectRow(res)
}
