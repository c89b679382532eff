package borrowing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/book"
	"libraryapi/internal/httpx"
	"libraryapi/internal/testutil"
	"libraryapi/internal/user"
)

func newHandler(t *testing.T) (*HTTPHandler, *MockRepository) {
	service, mockRepo := newService(t)
	return NewHTTPHandler(service), mockRepo
}

func as(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), userID, role))
}

func TestHTTPHandler_List(t *testing.T) {
	handler, mockRepo := newHandler(t)
	overdue := Borrowing{ID: 1, UserID: "u-1", BookID: 3, BorrowDate: date("2024-05-01"), ExpectedReturnDate: date("2024-05-08")}

	t.Run("user sees own borrowings", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, f Filter) ([]Borrowing, int, error) {
			assert.Equal(t, "u-1", f.OwnerID)
			require.NotNil(t, f.Active)
			assert.True(t, *f.Active)
			assert.Equal(t, int64(3), f.BookID)
			return []Borrowing{overdue}, 1, nil
		})

		w := httptest.NewRecorder()
		r := as(httptest.NewRequest(http.MethodGet, "/v1/borrowings?is_active=True&book_id=3", nil), "u-1", user.RoleUser)
		handler.List(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		body := testutil.DecodeBody(t, w)
		items := body["data"].([]any)
		require.Len(t, items, 1)
		first := items[0].(map[string]any)
		assert.Equal(t, "u-1", first["user"])
		assert.Equal(t, "2024-05-08", first["expected_return_date"])
		assert.Nil(t, first["actual_return_date"])
		assert.Equal(t, true, first["is_active"])
		assert.Equal(t, true, first["is_overdue"])
	})

	t.Run("staff overdue filter", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, f Filter) ([]Borrowing, int, error) {
			assert.Empty(t, f.OwnerID)
			assert.Nil(t, f.Active)
			require.NotNil(t, f.OverdueBefore)
			assert.Equal(t, date("2024-05-10"), *f.OverdueBefore)
			return []Borrowing{}, 0, nil
		})

		w := httptest.NewRecorder()
		r := as(httptest.NewRequest(http.MethodGet, "/v1/borrowings?overdue=true&is_active=maybe", nil), "s-1", user.RoleStaff)
		handler.List(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid user_id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := as(httptest.NewRequest(http.MethodGet, "/v1/borrowings?user_id=nope", nil), "s-1", user.RoleStaff)
		handler.List(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/v1/borrowings", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	handler, mockRepo := newHandler(t)

	tests := []struct {
		name     string
		body     any
		repoErr  error
		callRepo bool
		status   int
		code     string
	}{
		{"success", map[string]any{"book": 3, "expected_return_date": "2024-05-20"}, nil, true, http.StatusCreated, ""},
		{"missing book", map[string]any{"expected_return_date": "2024-05-20"}, nil, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad date format", map[string]any{"book": 3, "expected_return_date": "20/05/2024"}, nil, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"date in the past", map[string]any{"book": 3, "expected_return_date": "2024-05-01"}, nil, false, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown book", map[string]any{"book": 99, "expected_return_date": "2024-05-20"}, ErrBookNotFound, true, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"no copies", map[string]any{"book": 3, "expected_return_date": "2024-05-20"}, book.ErrNoCopiesAvailable, true, http.StatusBadRequest, "NO_COPIES_AVAILABLE"},
		{"malformed body", "{", nil, false, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.callRepo {
				mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, b *Borrowing) error {
					b.ID = 5
					return tt.repoErr
				})
			}

			w := httptest.NewRecorder()
			r := as(testutil.NewRequest(http.MethodPost, "/v1/borrowings", tt.body), "u-1", user.RoleUser)
			handler.Create(w, r)

			assert.Equal(t, tt.status, w.Code)
			body := testutil.DecodeBody(t, w)
			if tt.code != "" {
				errBody := body["error"].(map[string]any)
				assert.Equal(t, tt.code, errBody["code"])
				return
			}
			data := body["data"].(map[string]any)
			assert.EqualValues(t, 5, data["id"])
			assert.Equal(t, "2024-05-10", data["borrow_date"])
			assert.Equal(t, false, data["is_overdue"])
		})
	}
}

func TestHTTPHandler_Get(t *testing.T) {
	handler, mockRepo := newHandler(t)

	t.Run("other user's borrowing is hidden", func(t *testing.T) {
		mockRepo.EXPECT().Get(gomock.Any(), int64(2), "u-1").Return(Borrowing{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := as(httptest.NewRequest(http.MethodGet, "/v1/borrowings/2", nil), "u-1", user.RoleUser)
		r.SetPathValue("id", "2")
		handler.Get(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := as(httptest.NewRequest(http.MethodGet, "/v1/borrowings/x", nil), "u-1", user.RoleUser)
		r.SetPathValue("id", "x")
		handler.Get(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_Return(t *testing.T) {
	handler, mockRepo := newHandler(t)
	active := Borrowing{ID: 1, UserID: "u-1", BookID: 3, BorrowDate: date("2024-05-01"), ExpectedReturnDate: date("2024-05-08")}

	returnWith := func(current Borrowing) func(ctx context.Context, id int64, ownerID string, apply func(*Borrowing) error) (Borrowing, error) {
		return func(ctx context.Context, id int64, ownerID string, apply func(*Borrowing) error) (Borrowing, error) {
			b := current
			if err := apply(&b); err != nil {
				return Borrowing{}, err
			}
			return b, nil
		}
	}

	t.Run("empty body returns today", func(t *testing.T) {
		mockRepo.EXPECT().Return(gomock.Any(), int64(1), "u-1", gomock.Any()).DoAndReturn(returnWith(active))

		w := httptest.NewRecorder()
		r := as(httptest.NewRequest(http.MethodPut, "/v1/borrowings/1/return", nil), "u-1", user.RoleUser)
		r.SetPathValue("id", "1")
		handler.Return(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		data := testutil.DecodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "2024-05-10", data["actual_return_date"])
		assert.Equal(t, false, data["is_active"])
		assert.Equal(t, false, data["is_overdue"])
	})

	t.Run("already returned", func(t *testing.T) {
		done := active
		returned := date("2024-05-02")
		done.ActualReturnDate = &returned
		mockRepo.EXPECT().Return(gomock.Any(), int64(1), "u-1", gomock.Any()).DoAndReturn(returnWith(done))

		w := httptest.NewRecorder()
		r := as(testutil.NewRequest(http.MethodPatch, "/v1/borrowings/1/return", map[string]any{"actual_return_date": "2024-05-09"}), "u-1", user.RoleUser)
		r.SetPathValue("id", "1")
		handler.Return(w, r)

		require.Equal(t, http.StatusBadRequest, w.Code)
		errBody := testutil.DecodeBody(t, w)["error"].(map[string]any)
		assert.Equal(t, "ALREADY_RETURNED", errBody["code"])
	})

	t.Run("before borrow date", func(t *testing.T) {
		mockRepo.EXPECT().Return(gomock.Any(), int64(1), "u-1", gomock.Any()).DoAndReturn(returnWith(active))

		w := httptest.NewRecorder()
		r := as(testutil.NewRequest(http.MethodPut, "/v1/borrowings/1/return", map[string]any{"actual_return_date": "2024-04-01"}), "u-1", user.RoleUser)
		r.SetPathValue("id", "1")
		handler.Return(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := as(testutil.NewRequest(http.MethodPut, "/v1/borrowings/1/return", map[string]any{"actual_return_date": "yesterday"}), "u-1", user.RoleUser)
		r.SetPathValue("id", "1")
		handler.Return(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
