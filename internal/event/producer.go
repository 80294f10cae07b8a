package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/archillexx/reviewnest/internal/domain"
	pkgkafka "github.com/archillexx/reviewnest/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated  = "reviewnest.review.created"
	TopicReviewUpdated  = "reviewnest.review.updated"
	TopicReviewDeleted  = "reviewnest.review.deleted"
	TopicUserRegistered = "reviewnest.user.registered"
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeUser   = "user"
)

// Source identifier for events originating from this service.
const SourceReviewService = "reviewnest"

// ReviewData is the payload for review.created and review.updated events.
type ReviewData struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	ProductName   string  `json:"product_name"`
	ReviewContent string  `json:"review_content"`
	Rating        float64 `json:"rating"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, rev *domain.Review) error {
	return p.publishReview(ctx, TopicReviewCreated, rev)
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, rev *domain.Review) error {
	return p.publishReview(ctx, TopicReviewUpdated, rev)
}

func (p *Producer) publishReview(ctx context.Context, topic string, rev *domain.Review) error {
	data := ReviewData{
		ID:            rev.ID,
		UserID:        rev.UserID,
		ProductName:   rev.ProductName,
		ReviewContent: rev.ReviewContent,
		Rating:        rev.Rating,
	}

	event, err := pkgkafka.NewEvent(topic, rev.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", rev.ID),
		slog.String("user_id", rev.UserID),
	)

	return nil
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, userID string) error {
	data := ReviewDeletedData{
		ID:     reviewID,
		UserID: userID,
	}

	event, err := pkgkafka.NewEvent(TopicReviewDeleted, reviewID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.deleted event",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
	)

	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}
