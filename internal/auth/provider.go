// Package auth is the account half of the remote client: password accounts, signed session
// tokens and revocation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"crwn/internal/cache"
	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/repository"
	"crwn/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	Issuer   = "crwn-api"
	Audience = "crwn-app"
	// TokenTTL is how long an access token stays valid.
	TokenTTL  = 7 * 24 * time.Hour
	TokenType = "bearer"
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	return uint(id), nil
}

// Session is an issued access token together with its account.
type Session struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Provider implements sign-up, sign-in and token lifecycle.
type Provider struct {
	users  repository.UserRepository
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewProvider returns a Provider. rdb may be nil, in which case revocations are kept in process.
func NewProvider(users repository.UserRepository, rdb *redis.Client, secret string) *Provider {
	return &Provider{
		users:   users,
		rdb:     rdb,
		secret:  []byte(secret),
		ttl:     TokenTTL,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// SignUp creates an account. It does not sign the user in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already registered", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn checks credentials and issues a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid login credentials")
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid login credentials")
	}

	now := p.now()
	if err := p.users.UpdateLastSignIn(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastSignInAt = &now
	return p.IssueSession(user)
}

// IssueSession signs a new access token for user.
func (p *Provider) IssueSession(user *models.User) (*Session, error) {
	if len(p.secret) == 0 {
		return nil, models.NewInternalError(errors.New("JWT secret not configured"))
	}

	now := p.now()
	expiresAt := now.Add(p.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Email: user.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresAt:   expiresAt.Truncate(time.Second),
		User:        user,
	}, nil
}

// Verify parses and validates token, rejecting revoked ones.
func (p *Provider) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := p.parse(token, true)
	if err != nil {
		return nil, err
	}
	revoked, err := p.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if revoked {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, nil
}

// VerifyUserID is Verify reduced to the token's user ID.
func (p *Provider) VerifyUserID(ctx context.Context, token string) (uint, error) {
	claims, err := p.Verify(ctx, token)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

func (p *Provider) parse(token string, validateTime bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithTimeFunc(p.now),
	}
	if !validateTime {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, models.NewUnauthorizedError("Invalid user ID in token")
	}
	return claims, nil
}

// GetSession resolves a still-valid token to its session.
func (p *Provider) GetSession(ctx context.Context, token string) (*Session, error) {
	claims, err := p.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	userID, _ := claims.UserID()
	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Account no longer exists")
		}
		return nil, err
	}
	return &Session{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user,
	}, nil
}

// Refresh swaps a valid token for a new one and revokes the old token.
func (p *Provider) Refresh(ctx context.Context, token string) (*Session, error) {
	current, err := p.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	next, err := p.IssueSession(current.User)
	if err != nil {
		return nil, err
	}
	if err := p.SignOut(ctx, token); err != nil {
		return nil, err
	}
	return next, nil
}

// SignOut revokes token until its natural expiry. Signing out an expired token is a no-op.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token, false)
	if err != nil {
		return err
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return models.NewUnauthorizedError("Invalid token claims")
	}
	remaining := claims.ExpiresAt.Sub(p.now())
	if remaining <= 0 {
		return nil
	}
	return p.revoke(ctx, claims.ID, remaining)
}

func (p *Provider) revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if p.rdb != nil {
		ctx, span := observability.TraceRedisOperation(ctx, "revoke_token")
		defer span.End()
		if err := p.rdb.Set(ctx, cache.RevokedTokenKey(jti), "1", ttl).Err(); err != nil {
			span.RecordError(err)
			return models.NewInternalError(err)
		}
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for id, until := range p.revoked {
		if !until.After(now) {
			delete(p.revoked, id)
		}
	}
	p.revoked[jti] = now.Add(ttl)
	return nil
}

func (p *Provider) isRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	if p.rdb != nil {
		n, err := p.rdb.Exists(ctx, cache.RevokedTokenKey(jti)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	until, ok := p.revoked[jti]
	return ok && until.After(p.now()), nil
}
