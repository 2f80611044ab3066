package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"masbate_today/internal/domain"
	"masbate_today/internal/service/mocks"
)

func newsletterLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewsletterService_Subscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockNewsletterStore(ctrl)
	service := NewNewsletterService(store, newsletterLogger())
	ctx := context.Background()

	store.EXPECT().Subscribe(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, sub *domain.Subscriber) error {
			assert.Equal(t, "reader@masbate.ph", sub.Email)
			assert.False(t, sub.SubscribedAt.IsZero())
			return nil
		},
	)

	require.NoError(t, service.Subscribe(ctx, "  Reader@Masbate.PH "))
}

func TestNewsletterService_InvalidEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockNewsletterStore(ctrl)
	service := NewNewsletterService(store, newsletterLogger())

	for _, email := range []string{"", "not-an-email", "Reader <reader@masbate.ph>", "@masbate.ph"} {
		err := service.Subscribe(context.Background(), email)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail, "email %q", email)
	}
}

func TestNewsletterService_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockNewsletterStore(ctrl)
	service := NewNewsletterService(store, newsletterLogger())
	storeErr := errors.New("write failed")

	store.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(storeErr)

	assert.Equal(t, storeErr, service.Subscribe(context.Background(), "reader@masbate.ph"))
}

func TestNewsletterService_NotConfigured(t *testing.T) {
	service := NewNewsletterService(nil, newsletterLogger())

	err := service.Subscribe(context.Background(), "reader@masbate.ph")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
