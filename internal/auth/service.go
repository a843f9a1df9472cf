package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/careloop/clinic-booking/internal/booking"
)

var nowFunc = time.Now

// Service is the identity provider: account creation, credential checks
// and the backend session lookup the API middleware performs per request.
type Service struct {
	repo     Repository
	sessions SessionStore
	tokens   *TokenIssuer
	logger   *zap.Logger
}

func NewService(repo Repository, sessions SessionStore, tokens *TokenIssuer, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// SignUp registers an account with a role-specific profile. The password
// is stored bcrypt-hashed.
func (s *Service) SignUp(ctx context.Context, email, password string, role booking.Role, name string) (booking.User, error) {
	if role != booking.RoleDoctor && role != booking.RolePatient {
		return booking.User{}, fmt.Errorf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return booking.User{}, fmt.Errorf("hash password: %w", err)
	}

	rec := &UserRecord{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    nowFunc(),
	}

	if err := s.repo.CreateUser(ctx, rec); err != nil {
		return booking.User{}, err
	}

	s.logger.Info("user signed up",
		zap.String("user_id", rec.ID.String()),
		zap.String("role", string(role)))

	return rec.User(), nil
}

// SignIn verifies the credentials and opens a session. The returned token
// is the client's handle on that session.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, booking.User, error) {
	rec, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", booking.User{}, ErrInvalidCredentials
		}
		return "", booking.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return "", booking.User{}, ErrInvalidCredentials
	}

	token, sessionID, err := s.tokens.Issue(rec.ID, rec.Email)
	if err != nil {
		return "", booking.User{}, fmt.Errorf("issue token: %w", err)
	}

	sess := Session{
		UserID:    rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Role:      rec.Role,
		CreatedAt: nowFunc(),
	}
	if err := s.sessions.Save(ctx, sessionID, sess); err != nil {
		return "", booking.User{}, fmt.Errorf("open session: %w", err)
	}

	s.logger.Info("user signed in", zap.String("user_id", rec.ID.String()))

	return token, rec.User(), nil
}

// SignOut closes the session behind the token. Unknown or expired tokens
// are not an error; the session is gone either way.
func (s *Service) SignOut(ctx context.Context, token string) error {
	sessionID, err := s.tokens.SessionID(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// CurrentUser resolves a token to the session identity.
func (s *Service) CurrentUser(ctx context.Context, token string) (booking.User, error) {
	sessionID, err := s.tokens.SessionID(token)
	if err != nil {
		return booking.User{}, ErrSessionNotFound
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return booking.User{}, err
	}

	return sess.User(), nil
}
