package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"masbate_today/internal/domain"
	"masbate_today/internal/service/mocks"
)

type PollServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	store   *mocks.MockPollStore
	service *PollService
	now     time.Time
}

func (s *PollServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockPollStore(s.ctrl)
	s.now = time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.service = NewPollService(s.store, logger)
	s.service.now = func() time.Time { return s.now }
}

func (s *PollServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestPollServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PollServiceTestSuite))
}

func (s *PollServiceTestSuite) poll(expiresAt *time.Time) *domain.Poll {
	return &domain.Poll{
		ID:        "p1",
		ArticleID: "a1",
		Question:  "Best fiesta food?",
		Options: []domain.PollOption{
			{ID: "o1", Text: "Lechon"},
			{ID: "o2", Text: "Kinilaw"},
		},
		ExpiresAt: expiresAt,
	}
}

func (s *PollServiceTestSuite) TestGetPollByArticle_Found() {
	ctx := context.Background()

	s.store.EXPECT().FindByArticle(ctx, "a1").Return(s.poll(nil), nil)

	poll := s.service.GetPollByArticle(ctx, "a1")
	s.Require().NotNil(poll)
	s.Equal("p1", poll.ID)
}

func (s *PollServiceTestSuite) TestGetPollByArticle_NotFoundAndErrorsAreNil() {
	ctx := context.Background()

	s.store.EXPECT().FindByArticle(ctx, "none").Return(nil, domain.ErrNotFound)
	s.store.EXPECT().FindByArticle(ctx, "broken").Return(nil, errors.New("connection reset"))

	s.Nil(s.service.GetPollByArticle(ctx, "none"))
	s.Nil(s.service.GetPollByArticle(ctx, "broken"))
}

func (s *PollServiceTestSuite) TestCreatePoll() {
	ctx := context.Background()

	s.store.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, p *domain.Poll) (string, error) {
			s.Equal("a1", p.ArticleID)
			s.Equal("Best fiesta food?", p.Question)
			s.Require().Len(p.Options, 2)
			s.Equal("Lechon", p.Options[0].Text)
			s.Equal(s.now, p.CreatedAt)
			return "p1", nil
		},
	)

	id, err := s.service.CreatePoll(ctx, "a1", " Best fiesta food? ", []string{"Lechon", " ", "Kinilaw "}, nil)
	s.NoError(err)
	s.Equal("p1", id)
}

func (s *PollServiceTestSuite) TestCreatePoll_NeedsTwoOptions() {
	_, err := s.service.CreatePoll(context.Background(), "a1", "Question?", []string{"Only one"}, nil)
	s.ErrorIs(err, domain.ErrInvalidPoll)
}

func (s *PollServiceTestSuite) TestVote() {
	ctx := context.Background()
	future := s.now.Add(time.Hour)

	s.store.EXPECT().Get(ctx, "p1").Return(s.poll(&future), nil)
	s.store.EXPECT().Vote(ctx, "p1", "o2").Return(nil)

	s.NoError(s.service.Vote(ctx, "p1", "o2"))
}

func (s *PollServiceTestSuite) TestVote_ClosedPoll() {
	ctx := context.Background()
	past := s.now.Add(-time.Minute)

	s.store.EXPECT().Get(ctx, "p1").Return(s.poll(&past), nil)

	s.ErrorIs(s.service.Vote(ctx, "p1", "o1"), domain.ErrPollClosed)
}

func (s *PollServiceTestSuite) TestVote_UnknownOption() {
	ctx := context.Background()

	s.store.EXPECT().Get(ctx, "p1").Return(s.poll(nil), nil)

	s.ErrorIs(s.service.Vote(ctx, "p1", "o9"), domain.ErrUnknownOption)
}

func (s *PollServiceTestSuite) TestNotConfigured() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	service := NewPollService(nil, logger)

	s.Nil(service.GetPollByArticle(ctx, "a1"))

	_, err := service.CreatePoll(ctx, "a1", "Q?", []string{"a", "b"}, nil)
	s.ErrorIs(err, domain.ErrNotConfigured)

	s.ErrorIs(service.Vote(ctx, "p1", "o1"), domain.ErrNotConfigured)
}
