package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/archillexx/reviewnest/internal/domain"
	"github.com/archillexx/reviewnest/pkg/database"
	apperrors "github.com/archillexx/reviewnest/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review into the database.
func (r *ReviewRepository) Create(ctx context.Context, rev *domain.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, product_name, review_content, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		rev.ID,
		rev.UserID,
		rev.ProductName,
		rev.ReviewContent,
		rev.Rating,
		rev.CreatedAt,
		rev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT id, user_id, product_name, review_content, rating, created_at, updated_at
		FROM reviews
		WHERE id = $1`

	var rev domain.Review
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rev.ID,
		&rev.UserID,
		&rev.ProductName,
		&rev.ReviewContent,
		&rev.Rating,
		&rev.CreatedAt,
		&rev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rev, nil
}

// ListByOwner returns all reviews submitted by the given user, newest first.
func (r *ReviewRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Review, error) {
	query := `
		SELECT id, user_id, product_name, review_content, rating, created_at, updated_at
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by owner: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(
			&rev.ID,
			&rev.UserID,
			&rev.ProductName,
			&rev.ReviewContent,
			&rev.Rating,
			&rev.CreatedAt,
			&rev.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}

// ListAllWithAuthor returns every review joined with its author's display
// name, newest first. Reviews whose owning account was removed carry the
// display name "Anonymous".
func (r *ReviewRepository) ListAllWithAuthor(ctx context.Context) ([]domain.ReviewWithAuthor, error) {
	query := `
		SELECT r.id, r.user_id, r.product_name, r.review_content, r.rating, r.created_at, r.updated_at,
		       COALESCE(u.name, 'Anonymous') AS author_name
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.ReviewWithAuthor
	for rows.Next() {
		var rev domain.ReviewWithAuthor
		if err := rows.Scan(
			&rev.ID,
			&rev.UserID,
			&rev.ProductName,
			&rev.ReviewContent,
			&rev.Rating,
			&rev.CreatedAt,
			&rev.UpdatedAt,
			&rev.AuthorName,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.ReviewWithAuthor{}
	}

	return reviews, nil
}

// Update persists the full state of an existing review.
func (r *ReviewRepository) Update(ctx context.Context, rev *domain.Review) error {
	rev.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET product_name = $1, review_content = $2, rating = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.db.Exec(ctx, query,
		rev.ProductName,
		rev.ReviewContent,
		rev.Rating,
		rev.UpdatedAt,
		rev.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", rev.ID)
	}

	return nil
}

// Delete removes a review from the database by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}
