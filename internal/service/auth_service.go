package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	tokenIssuer   = "inkwell"
	tokenAudience = "inkwell-api"

	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

// TokenClaims are the JWT claims minted for both token types.
type TokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is an access token plus an optional refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	users      repository.UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	adminUsername string
	adminPassword string
	adminEmail    string
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) *AuthService {
	s := &AuthService{
		users:      users,
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
	}
	if cfg != nil {
		s.secret = []byte(cfg.JWTSecret)
		s.adminUsername = cfg.AdminUsername
		s.adminPassword = cfg.AdminPassword
		s.adminEmail = cfg.AdminEmail
		if cfg.AccessTokenTTLMinutes > 0 {
			s.accessTTL = time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
		}
		if cfg.RefreshTokenTTLDays > 0 {
			s.refreshTTL = time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour
		}
	}
	return s
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *AuthService) AccessTokenTTL() time.Duration { return s.accessTTL }

// RefreshTokenTTL returns the configured refresh token lifetime.
func (s *AuthService) RefreshTokenTTL() time.Duration { return s.refreshTTL }

// EnsureAdmin creates or updates the admin account from configuration. Run
// at startup so login always works against current credentials.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	if s.adminUsername == "" || s.adminPassword == "" {
		middleware.Logger.Warn("admin credentials not configured, skipping admin bootstrap")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user, err := s.users.GetByUsername(ctx, s.adminUsername)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &models.User{
			Username: s.adminUsername,
			Email:    s.adminEmail,
			Password: string(hash),
			IsAdmin:  true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		middleware.Logger.Info("admin user created", "username", s.adminUsername)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	user.Email = s.adminEmail
	user.Password = string(hash)
	user.IsAdmin = true
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update admin user: %w", err)
	}
	return nil
}

// Login authenticates the user and mints tokens. The refresh token is only
// issued when rememberMe is set.
func (s *AuthService) Login(ctx context.Context, username, password string, rememberMe bool) (*models.User, *TokenPair, error) {
	if !usernamePattern.MatchString(username) {
		return nil, nil, models.NewValidationError("Username must be 3-20 characters (letters, digits, _ or -)")
	}
	if password == "" {
		return nil, nil, models.NewValidationError("Password is required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewUnauthorizedError("Invalid username or password")
		}
		return nil, nil, models.NewInternalError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, models.NewUnauthorizedError("Invalid username or password")
	}

	pair := &TokenPair{}
	pair.AccessToken, err = s.mintToken(user.ID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	if rememberMe {
		pair.RefreshToken, err = s.mintToken(user.ID, TokenTypeRefresh, s.refreshTTL)
		if err != nil {
			return nil, nil, models.NewInternalError(err)
		}
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token's ID is blacklisted
// for its remaining lifetime and a fresh pair is issued. A replayed token
// therefore fails even before it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	claims, err := s.VerifyToken(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, nil, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return nil, nil, models.NewUnauthorizedError("Invalid token subject")
	}
	user, err := s.users.GetByID(ctx, uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewUnauthorizedError("Unknown user")
		}
		return nil, nil, models.NewInternalError(err)
	}

	s.blacklistClaims(ctx, claims)

	pair := &TokenPair{}
	pair.AccessToken, err = s.mintToken(user.ID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	pair.RefreshToken, err = s.mintToken(user.ID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	return user, pair, nil
}

// Logout revokes whichever of the two tokens are present. Invalid tokens
// are ignored; logout never fails on a malformed cookie.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) {
	if accessToken != "" {
		if claims, err := s.VerifyToken(ctx, accessToken, TokenTypeAccess); err == nil {
			s.blacklistClaims(ctx, claims)
		}
	}
	if refreshToken != "" {
		if claims, err := s.VerifyToken(ctx, refreshToken, TokenTypeRefresh); err == nil {
			s.blacklistClaims(ctx, claims)
		}
	}
}

// GetUser loads a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// VerifyToken parses and validates a token of the expected type, including
// the revocation check. Returns the claims on success.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString, expectedType string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if claims.TokenType != expectedType {
		return nil, models.NewUnauthorizedError("Invalid token type")
	}
	if claims.ID != "" && cache.IsTokenBlacklisted(ctx, claims.ID) {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, nil
}

// UserIDFromClaims extracts the numeric user ID from the subject claim.
func UserIDFromClaims(claims *TokenClaims) (uint, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		return 0, models.NewUnauthorizedError("Invalid token subject")
	}
	return uint(id), nil
}

func (s *AuthService) mintToken(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &TokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) blacklistClaims(ctx context.Context, claims *TokenClaims) {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if err := cache.BlacklistToken(ctx, claims.ID, remaining); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to blacklist token", "error", err)
	}
}
