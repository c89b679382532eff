package session

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	repo          Repository
	blacklistRepo BlacklistRepository
}

func NewService(repo Repository, blacklistRepo BlacklistRepository) *Service {
	return &Service{
		repo:          repo,
		blacklistRepo: blacklistRepo,
	}
}

func (s *Service) Create(ctx context.Context, session *Session) error {
	return s.repo.Create(ctx, session)
}

func (s *Service) GetByTokenHash(ctx context.Context, hash string) (Session, error) {
	return s.repo.GetByTokenHash(ctx, hash)
}

func (s *Service) ListByUserID(ctx context.Context, userID string) ([]Session, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// DeleteForUser removes a session only if it belongs to userID.
func (s *Service) DeleteForUser(ctx context.Context, userID, sessionID string) error {
	return s.repo.DeleteForUser(ctx, userID, sessionID)
}

func (s *Service) DeleteByTokenHash(ctx context.Context, hash string) error {
	return s.repo.DeleteByTokenHash(ctx, hash)
}

func (s *Service) AddToBlacklist(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	return s.blacklistRepo.AddToken(ctx, jti, userID, expiresAt)
}

func (s *Service) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.blacklistRepo.IsBlacklisted(ctx, jti)
}

// CleanupExpired deletes expired sessions and blacklist entries.
func (s *Service) CleanupExpired(ctx context.Context) (sessions, tokens int64, err error) {
	sessions, err = s.repo.CleanupExpired(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	tokens, err = s.blacklistRepo.CleanupExpired(ctx)
	if err != nil {
		return sessions, 0, fmt.Errorf("cleanup blacklist: %w", err)
	}
	return sessions, tokens, nil
}
