package user

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/platform/crypto"
)

func TestService_Register(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(m *MockRepository)
		wantErr   error
	}{
		{
			name: "success",
			setupMock: func(m *MockRepository) {
				m.EXPECT().GetByEmail(gomock.Any(), "reader@example.com").Return(User{}, ErrNotFound)
				m.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, u *User) error {
					u.ID = "u-1"
					return nil
				})
			},
		},
		{
			name: "email taken",
			setupMock: func(m *MockRepository) {
				m.EXPECT().GetByEmail(gomock.Any(), "reader@example.com").Return(User{ID: "u-0"}, nil)
			},
			wantErr: ErrAlreadyExists,
		},
		{
			name: "race on insert",
			setupMock: func(m *MockRepository) {
				m.EXPECT().GetByEmail(gomock.Any(), "reader@example.com").Return(User{}, ErrNotFound)
				m.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ErrAlreadyExists)
			},
			wantErr: ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockRepo := NewMockRepository(ctrl)
			tt.setupMock(mockRepo)

			u, err := NewService(mockRepo).Register(context.Background(), "  Reader@Example.com ", " reader ", "Secret123!")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", u.ID)
			assert.Equal(t, "reader@example.com", u.Email)
			assert.Equal(t, "reader", u.Username)
			assert.Equal(t, RoleUser, u.Role)
			assert.False(t, u.IsStaff())
			assert.True(t, crypto.VerifyPassword(u.PasswordHash, "Secret123!"))
		})
	}
}

func TestService_Register_LookupFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	mockRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(User{}, errors.New("connection reset"))

	_, err := NewService(mockRepo).Register(context.Background(), "a@b.co", "abc", "Secret123!")
	assert.ErrorContains(t, err, "lookup email")
}

func TestService_CreateStaff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	mockRepo.EXPECT().GetByEmail(gomock.Any(), "staff@library.test").Return(User{}, ErrNotFound)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	u, err := NewService(mockRepo).CreateStaff(context.Background(), "staff@library.test", "staff", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, u.Role)
	assert.True(t, u.IsStaff())
}
