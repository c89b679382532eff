package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"libraryapi/internal/httpx"
)

const sessionID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), userID, "USER"))
}

func TestHTTPHandler_ListSessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(repo, NewMockBlacklistRepository(ctrl)))

	t.Run("success", func(t *testing.T) {
		created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		repo.EXPECT().ListByUserID(gomock.Any(), "u-1").Return([]Session{{
			ID:               sessionID,
			UserID:           "u-1",
			RefreshTokenHash: "secret-hash",
			UserAgent:        "curl/8",
			CreatedAt:        created,
			LastUsedAt:       created,
			ExpiresAt:        created.Add(time.Hour),
		}}, nil)

		w := httptest.NewRecorder()
		handler.ListSessions(w, withUser(httptest.NewRequest(http.MethodGet, "/v1/me/sessions", nil), "u-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"created_at":"2026-03-01T10:00:00Z"`)
		assert.NotContains(t, w.Body.String(), "secret-hash")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListSessions(w, httptest.NewRequest(http.MethodGet, "/v1/me/sessions", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHTTPHandler_DeleteSession(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		setupMock  func(m *MockRepository)
		wantStatus int
	}{
		{
			name: "deleted",
			id:   sessionID,
			setupMock: func(m *MockRepository) {
				m.EXPECT().DeleteForUser(gomock.Any(), "u-1", sessionID).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "other user's session",
			id:   sessionID,
			setupMock: func(m *MockRepository) {
				m.EXPECT().DeleteForUser(gomock.Any(), "u-1", sessionID).Return(ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed id",
			id:         "not-a-uuid",
			setupMock:  func(m *MockRepository) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			repo := NewMockRepository(ctrl)
			tt.setupMock(repo)
			handler := NewHTTPHandler(NewService(repo, NewMockBlacklistRepository(ctrl)))

			r := withUser(httptest.NewRequest(http.MethodDelete, "/v1/me/sessions/"+tt.id, nil), "u-1")
			r.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()
			handler.DeleteSession(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
