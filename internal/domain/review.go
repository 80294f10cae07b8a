package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"time"
)

// Review represents a product review submitted by a user.
type Review struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ProductName   string    `json:"product_name"`
	ReviewContent string    `json:"review_content"`
	Rating        float64   `json:"rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReviewWithAuthor is a review joined with its author's display name, used
// by the public feed. AuthorName falls back to "Anonymous" when the owning
// account no longer exists.
type ReviewWithAuthor struct {
	Review
	AuthorName string `json:"author_name"`
}

// CreateReviewInput carries the fields required to submit a new review.
type CreateReviewInput struct {
	ProductName   string
	ReviewContent string
	Rating        float64
}

// UpdateReviewInput carries a partial update. Nil or empty fields leave the
// stored value unchanged.
type UpdateReviewInput struct {
	ProductName   *string
	ReviewContent *string
	Rating        *float64
}

const (
	RatingMin = 1.0
	RatingMax = 5.0
)

// ratingPattern accepts an integer or a value with exactly one decimal digit.
var ratingPattern = regexp.MustCompile(`^[0-9]+(\.[0-9])?$`)

// ErrRatingOutOfRange is the message returned for any rejected rating value.
const ratingErrMsg = "rating must be between 1 and 5 with at most one decimal place"

// ParseRating parses a JSON rating value and validates it. The textual form
// is checked directly so that values like 3.55 are rejected even when their
// float64 representation rounds close to a valid step.
func ParseRating(raw json.Number) (float64, error) {
	if !ratingPattern.MatchString(raw.String()) {
		return 0, fmt.Errorf("%s", ratingErrMsg)
	}

	r, err := raw.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s", ratingErrMsg)
	}

	if r < RatingMin || r > RatingMax {
		return 0, fmt.Errorf("%s", ratingErrMsg)
	}

	return r, nil
}

// ValidateRating checks an already-parsed rating value: it must lie in
// [1, 5] and land on a tenth.
func ValidateRating(r float64) error {
	if r < RatingMin || r > RatingMax {
		return fmt.Errorf("%s", ratingErrMsg)
	}

	scaled := r * 10
	if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
		return fmt.Errorf("%s", ratingErrMsg)
	}

	return nil
}
