//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"

	"masbate_today/internal/domain"
	"masbate_today/testdata/utils"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) config(name string) Config {
	return Config{
		URL:        s.amqpURL,
		Exchange:   "test-exchange-" + name,
		RoutingKey: "articles",
		QueueName:  "test-queue-" + name,
	}
}

func (s *RabbitMQIntegrationSuite) TestPublisher_Connection() {
	pub, err := NewRabbitMQ(s.config("connect"), s.logger)
	s.Require().NoError(err)
	s.NoError(pub.Close())
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishCreate() {
	cfg := s.config("create")
	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	article := &domain.Article{
		ID:            "a-1",
		Category:      domain.CategoryMasbate,
		Title:         "Rodeo opens",
		Tags:          []string{"rodeo"},
		Published:     true,
		FeaturedImage: utils.Ptr("https://cdn.example.com/rodeo.jpg"),
		PublishedAt:   &now,
	}

	err = pub.Publish(s.ctx, &domain.ArticleEvent{
		Action:    domain.ActionCreate,
		ArticleID: "a-1",
		Article:   article,
		Timestamp: now,
	})
	s.Require().NoError(err)

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)
	s.Equal("application/json", msg.ContentType)
	s.Equal("articles.create", msg.RoutingKey)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)

	var received ArticleMessage
	s.Require().NoError(json.Unmarshal(msg.Body, &received))
	s.Equal(domain.ActionCreate, received.Action)
	s.Equal("a-1", received.ArticleID)
	s.Require().NotNil(received.Article)
	s.Equal("Rodeo opens", received.Article.Title)
	s.Equal(domain.CategoryMasbate, received.Article.Category)
	s.Equal("https://cdn.example.com/rodeo.jpg", *received.Article.FeaturedImage)
	s.True(now.Equal(received.Timestamp))
}

func (s *RabbitMQIntegrationSuite) TestPublisher_PublishDelete() {
	cfg := s.config("delete")
	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	err = pub.Publish(s.ctx, &domain.ArticleEvent{Action: domain.ActionDelete, ArticleID: "a-2"})
	s.Require().NoError(err)

	msg := s.consumeMessage(cfg)
	s.Require().NotNil(msg)
	s.Equal("articles.delete", msg.RoutingKey)

	var received ArticleMessage
	s.Require().NoError(json.Unmarshal(msg.Body, &received))
	s.Equal(domain.ActionDelete, received.Action)
	s.Equal("a-2", received.ArticleID)
	s.Nil(received.Article)
	s.False(received.Timestamp.IsZero())
}

func (s *RabbitMQIntegrationSuite) consumeMessage(cfg Config) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(cfg.QueueName, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
