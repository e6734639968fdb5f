package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"adgate/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) RecordCompletion(ctx context.Context, entry *Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockRepository) RecentByUser(ctx context.Context, userID int, since time.Time) ([]Entry, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entry), args.Error(1)
}

func (m *MockRepository) CountSince(ctx context.Context, userID int, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func setupHistoryRouter(repo Repository, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/rewards/history", func(c *gin.Context) {
		c.Set("user_id", userID)
		(&Handler{repo: repo}).GetHistory(c)
	})
	return router
}

func TestGetHistory(t *testing.T) {
	repo := new(MockRepository)
	repo.On("RecentByUser", mock.Anything, 42, mock.Anything).Return([]Entry{
		{ID: 2, UserID: 42, TransactionID: "tx-2", RewardItem: ItemToken, RewardAmount: 1},
		{ID: 1, UserID: 42, TransactionID: "tx-1", RewardItem: ItemToken, RewardAmount: 1},
	}, nil)

	router := setupHistoryRouter(repo, 42)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rewards/history", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var entries []Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "tx-2", entries[0].TransactionID)

	repo.AssertExpectations(t)
}

func TestGetHistory_Empty(t *testing.T) {
	repo := new(MockRepository)
	repo.On("RecentByUser", mock.Anything, 42, mock.Anything).Return(nil, nil)

	router := setupHistoryRouter(repo, 42)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rewards/history", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGetHistory_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("RecentByUser", mock.Anything, 42, mock.Anything).Return(nil, errors.New("connection refused"))

	router := setupHistoryRouter(repo, 42)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rewards/history", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetHistory_Unauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/rewards/history", (&Handler{repo: new(MockRepository)}).GetHistory)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rewards/history", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
