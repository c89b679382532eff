package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"libraryapi/internal/platform/crypto"
	"libraryapi/internal/session"
	"libraryapi/internal/user"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
)

type TokenConfig struct {
	Secret        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RememberMeTTL time.Duration
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type Service struct {
	cfg            TokenConfig
	userService    *user.Service
	sessionService *session.Service
}

func NewService(cfg TokenConfig, userService *user.Service, sessionService *session.Service) *Service {
	return &Service{
		cfg:            cfg,
		userService:    userService,
		sessionService: sessionService,
	}
}

func (s *Service) refreshTTL(rememberMe bool) time.Duration {
	if rememberMe {
		return s.cfg.RememberMeTTL
	}
	return s.cfg.RefreshTTL
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// issue signs an access token for u and stores a fresh refresh-token session.
func (s *Service) issue(ctx context.Context, u user.User, template session.Session) (TokenPair, error) {
	accessToken, _, err := crypto.GenerateToken(s.cfg.Secret, u.ID, u.Role, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	sess := template
	sess.ID = ""
	sess.UserID = u.ID
	sess.RefreshTokenHash = crypto.HashToken(refreshToken)
	sess.ExpiresAt = time.Now().Add(s.refreshTTL(sess.RememberMe))

	if err := s.sessionService.Create(ctx, &sess); err != nil {
		return TokenPair{}, fmt.Errorf("create session: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.AccessTTL.Seconds()),
	}, nil
}

func (s *Service) Login(ctx context.Context, email, password string, rememberMe bool, userAgent, ipAddress string) (TokenPair, error) {
	u, err := s.userService.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrUnauthorized
	}

	return s.issue(ctx, u, session.Session{
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		RememberMe: rememberMe,
	})
}

// RefreshToken rotates a refresh token: the presented one is consumed and a new pair is returned.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	tokenHash := crypto.HashToken(refreshToken)
	sess, err := s.sessionService.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, err
	}

	u, err := s.userService.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, err
	}

	// A concurrent refresh may have consumed the token first.
	if err := s.sessionService.DeleteByTokenHash(ctx, tokenHash); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, err
	}

	return s.issue(ctx, u, sess)
}

// Logout revokes the access token and, when given, the refresh token of the same login.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken, userID string) error {
	claims, err := crypto.ParseToken(s.cfg.Secret, accessToken)
	if err != nil {
		return ErrUnauthorized
	}

	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.sessionService.AddToBlacklist(ctx, claims.ID, userID, expiresAt); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	if refreshToken == "" {
		return nil
	}
	err = s.sessionService.DeleteByTokenHash(ctx, crypto.HashToken(refreshToken))
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
