package repository

import (
	"context"
	"time"

	"github.com/archillexx/reviewnest/internal/domain"
)

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByOwner returns all reviews submitted by the given user, newest first.
	ListByOwner(ctx context.Context, userID string) ([]domain.Review, error)

	// ListAllWithAuthor returns every review joined with its author's display
	// name, newest first.
	ListAllWithAuthor(ctx context.Context) ([]domain.ReviewWithAuthor, error)

	// Update persists the full state of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// FeedCache caches the rendered public feed for a short TTL.
type FeedCache interface {
	// Get returns the cached feed, or a NotFound error on a miss.
	Get(ctx context.Context) ([]domain.ReviewWithAuthor, error)

	// Set stores the feed with the given TTL.
	Set(ctx context.Context, feed []domain.ReviewWithAuthor, ttl time.Duration) error

	// Invalidate drops the cached feed.
	Invalidate(ctx context.Context) error
}
