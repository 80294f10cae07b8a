package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/archillexx/reviewnest/internal/domain"
	"github.com/archillexx/reviewnest/internal/event"
	"github.com/archillexx/reviewnest/internal/service"
	apperrors "github.com/archillexx/reviewnest/pkg/errors"
	"github.com/archillexx/reviewnest/pkg/httputil"
	pkgkafka "github.com/archillexx/reviewnest/pkg/kafka"
	"github.com/archillexx/reviewnest/pkg/middleware"
)

// ============================================================================
// Mock Review Repository
// ============================================================================

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByOwner(ctx context.Context, userID string) ([]domain.Review, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepo) ListAllWithAuthor(ctx context.Context) ([]domain.ReviewWithAuthor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewWithAuthor), args.Error(1)
}

func (m *mockReviewRepo) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ============================================================================
// Test Helpers
// ============================================================================

func reviewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func reviewTestEventProducer() *event.Producer {
	logger := reviewTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func reviewTestHandler(repo *mockReviewRepo) *ReviewHandler {
	svc := service.NewReviewService(repo, nil, 30*time.Second, reviewTestEventProducer(), reviewTestLogger())
	return NewReviewHandler(svc, reviewTestLogger())
}

// fakeTokenValidator returns a middleware.TokenValidator that always succeeds
// and injects the given userID into the request context.
func fakeTokenValidator(userID string) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		return &middleware.Claims{UserID: userID, Email: "test@example.com"}, nil
	}
}

// setupReviewRouter creates a chi router that mirrors the production review
// routes, using a fake token validator for auth.
func setupReviewRouter(handler *ReviewHandler, userID string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/all", handler.ListAll)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(fakeTokenValidator(userID)))
			r.Post("/", handler.Create)
			r.Get("/", handler.ListMine)
			r.Put("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
		})
	})
	return r
}

// setupReviewRouterNoAuth creates a chi router WITHOUT auth middleware so
// unauthenticated requests can be tested.
func setupReviewRouterNoAuth(handler *ReviewHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Post("/", handler.Create)
		r.Get("/", handler.ListMine)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
	})
	return r
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

const testUserID = "550e8400-e29b-41d4-a716-446655440001"
const testReviewID = "550e8400-e29b-41d4-a716-446655440002"

func sampleStoredReview(ownerID string) *domain.Review {
	now := time.Now().UTC()
	return &domain.Review{
		ID:            testReviewID,
		UserID:        ownerID,
		ProductName:   "Mechanical Keyboard",
		ReviewContent: "Clicky and satisfying.",
		Rating:        4.5,
		CreatedAt:     now.Add(-time.Hour),
		UpdatedAt:     now.Add(-time.Hour),
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// ============================================================================
// Create Tests
// ============================================================================

func TestCreateReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)

	body := jsonBody(t, map[string]any{
		"product_name":   "Mechanical Keyboard",
		"review_content": "Clicky and satisfying.",
		"rating":         4.5,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/", body)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	repo.AssertExpectations(t)
}

func TestCreateReview_TwoDecimalRatingRejected(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	body := jsonBody(t, map[string]any{
		"product_name":   "Mechanical Keyboard",
		"review_content": "Clicky.",
		"rating":         3.55,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/", body)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "one decimal place")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_RatingOutOfRange(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	for _, rating := range []any{0.9, 7, 0} {
		body := jsonBody(t, map[string]any{
			"product_name":   "Mechanical Keyboard",
			"review_content": "Clicky.",
			"rating":         rating,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/", body)
		req.Header.Set("Authorization", "Bearer test-token")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "rating %v should be rejected", rating)
	}
}

func TestCreateReview_MissingFields(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	body := jsonBody(t, map[string]any{"rating": 4})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/", body)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateReview_Unauthenticated(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouterNoAuth(handler)

	body := jsonBody(t, map[string]any{
		"product_name":   "Mechanical Keyboard",
		"review_content": "Clicky.",
		"rating":         4,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================================================
// ListMine Tests
// ============================================================================

func TestListMine_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	stored := sampleStoredReview(testUserID)
	repo.On("ListByOwner", mock.Anything, testUserID).Return([]domain.Review{*stored}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	repo.AssertExpectations(t)
}

func TestListMine_EmptyList(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	repo.On("ListByOwner", mock.Anything, testUserID).Return([]domain.Review{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	items, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Empty(t, items)
}

// ============================================================================
// ListAll Tests
// ============================================================================

func TestListAll_PublicNoAuthRequired(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	feed := []domain.ReviewWithAuthor{
		{Review: *sampleStoredReview(testUserID), AuthorName: "Alice"},
		{Review: *sampleStoredReview("u-gone"), AuthorName: "Anonymous"},
	}
	repo.On("ListAllWithAuthor", mock.Anything).Return(feed, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/all", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	items, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	second := items[1].(map[string]any)
	assert.Equal(t, "Anonymous", second["author_name"])
}

func TestListAll_StorageFailureStaysGeneric(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	repo.On("ListAllWithAuthor", mock.Anything).
		Return(nil, fmt.Errorf("pq: connection refused on host db-internal-01"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/all", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "db-internal-01")
}

// ============================================================================
// Update Tests
// ============================================================================

func TestUpdateReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	stored := sampleStoredReview(testUserID)
	repo.On("GetByID", mock.Anything, testReviewID).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)

	body := jsonBody(t, map[string]any{
		"review_content": "Changed my mind, keys wobble.",
		"rating":         3,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/reviews/"+testReviewID, body)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "Changed my mind, keys wobble.", data["review_content"])
	assert.Equal(t, "Mechanical Keyboard", data["product_name"])
	repo.AssertExpectations(t)
}

func TestUpdateReview_ForbiddenForNonOwner(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	stored := sampleStoredReview("someone-else")
	repo.On("GetByID", mock.Anything, testReviewID).Return(stored, nil)

	body := jsonBody(t, map[string]any{"review_content": "hijacked"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/reviews/"+testReviewID, body)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateReview_NotFound(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	repo.On("GetByID", mock.Anything, testReviewID).Return(nil, apperrors.ErrNotFound)

	body := jsonBody(t, map[string]any{"review_content": "anything"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/reviews/"+testReviewID, body)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReview_InvalidRatingRejected(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	body := jsonBody(t, map[string]any{"rating": 3.55})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/reviews/"+testReviewID, body)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// ============================================================================
// Delete Tests
// ============================================================================

func TestDeleteReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	stored := sampleStoredReview(testUserID)
	repo.On("GetByID", mock.Anything, testReviewID).Return(stored, nil)
	repo.On("Delete", mock.Anything, testReviewID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+testReviewID, nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestDeleteReview_NotFound(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	repo.On("GetByID", mock.Anything, testReviewID).Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+testReviewID, nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteReview_ForbiddenForNonOwner(t *testing.T) {
	repo := new(mockReviewRepo)
	handler := reviewTestHandler(repo)
	router := setupReviewRouter(handler, testUserID)

	stored := sampleStoredReview("someone-else")
	repo.On("GetByID", mock.Anything, testReviewID).Return(stored, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+testReviewID, nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
