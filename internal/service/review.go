package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/archillexx/reviewnest/internal/domain"
	"github.com/archillexx/reviewnest/internal/event"
	"github.com/archillexx/reviewnest/internal/repository"
	apperrors "github.com/archillexx/reviewnest/pkg/errors"
)

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	feedCache  repository.FeedCache
	feedTTL    time.Duration
	producer   *event.Producer
	logger     *slog.Logger
}

// NewReviewService creates a new review service. feedCache may be nil, in
// which case the public feed is always read from the database.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	feedCache repository.FeedCache,
	feedTTL time.Duration,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		feedCache:  feedCache,
		feedTTL:    feedTTL,
		producer:   producer,
		logger:     logger,
	}
}

// SubmitReview creates a new review owned by the given user.
func (s *ReviewService) SubmitReview(ctx context.Context, userID string, input *domain.CreateReviewInput) (*domain.Review, error) {
	if input.ProductName == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.ReviewContent == "" {
		return nil, apperrors.InvalidInput("review content is required")
	}
	if err := domain.ValidateRating(input.Rating); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:            uuid.New().String(),
		UserID:        userID,
		ProductName:   input.ProductName,
		ReviewContent: input.ReviewContent,
		Rating:        input.Rating,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.invalidateFeed(ctx)

	// Publish creation event (non-blocking on failure).
	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("user_id", review.UserID),
		slog.Float64("rating", review.Rating),
	)

	return review, nil
}

// ListOwnReviews returns all reviews submitted by the given user. A user with
// no reviews gets an empty list, not an error.
func (s *ReviewService) ListOwnReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	reviews, err := s.reviewRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list own reviews: %w", err)
	}
	return reviews, nil
}

// ListAllReviews returns the public feed of every review with its author's
// display name. The feed is served from cache when available; storage
// failures surface only as a generic internal error.
func (s *ReviewService) ListAllReviews(ctx context.Context) ([]domain.ReviewWithAuthor, error) {
	if s.feedCache != nil {
		feed, err := s.feedCache.Get(ctx)
		if err == nil {
			return feed, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "feed cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}

	feed, err := s.reviewRepo.ListAllWithAuthor(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load public feed",
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Internal(err)
	}

	if s.feedCache != nil {
		if err := s.feedCache.Set(ctx, feed, s.feedTTL); err != nil {
			s.logger.WarnContext(ctx, "feed cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return feed, nil
}

// UpdateReview applies a partial update to a review owned by the given user.
// Absent or empty fields retain their stored values. The rating, when
// present, is validated before anything is persisted.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID string, input *domain.UpdateReviewInput) (*domain.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("review", reviewID)
		}
		return nil, fmt.Errorf("get review for update: %w", err)
	}

	if review.UserID != userID {
		return nil, apperrors.Forbidden("you can only modify your own reviews")
	}

	if input.Rating != nil {
		if err := domain.ValidateRating(*input.Rating); err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
	}

	if input.ProductName != nil && *input.ProductName != "" {
		review.ProductName = *input.ProductName
	}
	if input.ReviewContent != nil && *input.ReviewContent != "" {
		review.ReviewContent = *input.ReviewContent
	}
	if input.Rating != nil {
		review.Rating = *input.Rating
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.invalidateFeed(ctx)

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("user_id", userID),
	)

	return review, nil
}

// DeleteReview removes a review owned by the given user. Deleting a review
// that no longer exists reports not found.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("review", reviewID)
		}
		return fmt.Errorf("get review for delete: %w", err)
	}

	if review.UserID != userID {
		return apperrors.Forbidden("you can only modify your own reviews")
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.invalidateFeed(ctx)

	if err := s.producer.PublishReviewDeleted(ctx, reviewID, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
	)

	return nil
}

// invalidateFeed drops the cached public feed after a write. Cache failures
// are logged and otherwise ignored.
func (s *ReviewService) invalidateFeed(ctx context.Context) {
	if s.feedCache == nil {
		return
	}
	if err := s.feedCache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "feed cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}
