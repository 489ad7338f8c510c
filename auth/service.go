package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/models"
)

const (
	Issuer   = "snap-code"
	Audience = "snap-code-app"
)

type Options struct {
	Secret      string
	TokenTTL    time.Duration
	FrontendURL string
}

// UserLookup confirms that a token's subject still has a live account.
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Service issues and verifies bearer credentials.
type Service struct {
	auth    *auth.Service
	ttl     time.Duration
	revoked Revoker
	users   UserLookup
	now     func() time.Time
}

// SetupAuthService builds the token service. revoked may be nil. When users is
// nil, Verify trusts the token subject without an account lookup.
func SetupAuthService(opts Options, revoked Revoker, users UserLookup) *Service {
	if revoked == nil {
		revoked = NewMemoryRevoker()
	}

	service := auth.NewService(auth.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return opts.Secret, nil
		}),
		TokenDuration:  opts.TokenTTL,
		CookieDuration: opts.TokenTTL,
		Issuer:         Issuer,
		URL:            opts.FrontendURL,
		AudienceReader: token.AudienceFunc(func() ([]string, error) {
			return []string{Audience}, nil
		}),
		AvatarStore: avatar.NewNoOp(),
	})

	return &Service{
		auth:    service,
		ttl:     opts.TokenTTL,
		revoked: revoked,
		users:   users,
		now:     time.Now,
	}
}

// IssueToken signs a credential for user.
func (s *Service) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := token.Claims{
		User: &token.User{
			ID:    strconv.FormatUint(uint64(user.ID), 10),
			Name:  user.FullName,
			Email: user.Email,
			Attributes: map[string]interface{}{
				"username": user.Username,
			},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  []string{Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenStr, err := s.auth.TokenService().Token(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenStr, expiresAt, nil
}

// Verify resolves a credential to a user id. Missing, malformed, expired and
// revoked tokens, and tokens whose account was deleted, all fail with
// apperror.Unauthenticated.
func (s *Service) Verify(ctx context.Context, tokenStr string) (uint, error) {
	claims, err := s.parse(ctx, tokenStr)
	if err != nil {
		return 0, err
	}

	userID, err := strconv.ParseUint(claims.User.ID, 10, 32)
	if err != nil || userID == 0 {
		return 0, apperror.Newf(apperror.Unauthenticated, "auth.verify", "bad subject %q", claims.User.ID)
	}

	if s.users != nil {
		user, err := s.users.FindByID(ctx, uint(userID))
		if err != nil {
			return 0, apperror.New(apperror.Unauthenticated, "auth.verify", err)
		}
		if user == nil {
			return 0, apperror.Newf(apperror.Unauthenticated, "auth.verify", "account %d no longer exists", userID)
		}
	}
	return uint(userID), nil
}

// Revoke blacklists tokenStr until it would have expired anyway.
func (s *Service) Revoke(ctx context.Context, tokenStr string) error {
	claims, err := s.parse(ctx, tokenStr)
	if err != nil {
		return err
	}
	return s.revoked.Revoke(ctx, tokenStr, claims.ExpiresAt.Time)
}

func (s *Service) parse(ctx context.Context, tokenStr string) (token.Claims, error) {
	if tokenStr == "" {
		return token.Claims{}, apperror.New(apperror.Unauthenticated, "auth.verify", errors.New("missing credential"))
	}

	claims, err := s.auth.TokenService().Parse(tokenStr)
	if err != nil {
		return token.Claims{}, apperror.New(apperror.Unauthenticated, "auth.verify", err)
	}
	if claims.User == nil {
		return token.Claims{}, apperror.New(apperror.Unauthenticated, "auth.verify", errors.New("no user in token"))
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(s.now()) {
		return token.Claims{}, apperror.New(apperror.Unauthenticated, "auth.verify", errors.New("token expired"))
	}
	if claims.Issuer != Issuer {
		return token.Claims{}, apperror.Newf(apperror.Unauthenticated, "auth.verify", "unexpected issuer %q", claims.Issuer)
	}

	revoked, err := s.revoked.IsRevoked(ctx, tokenStr)
	if err != nil {
		return token.Claims{}, apperror.New(apperror.Unauthenticated, "auth.verify", err)
	}
	if revoked {
		return token.Claims{}, apperror.New(apperror.Unauthenticated, "auth.verify", errors.New("token revoked"))
	}

	return claims, nil
}
