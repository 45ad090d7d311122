package auth

import (
	"campus-market/internal/marketerrors"
	"campus-market/utils"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the only role allowed into the admin panel
const RoleAdmin = "admin"

// Claims are the JWT claims of an admin session
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Session is what a successful login hands back to the client
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticator issues and verifies admin session tokens
type Authenticator struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	store        TokenStore
}

// NewAuthenticator creates an Authenticator for a single admin account
func NewAuthenticator(username string, passwordHash, secret []byte, ttl time.Duration, store TokenStore) *Authenticator {
	return &Authenticator{
		username:     username,
		passwordHash: passwordHash,
		secret:       secret,
		ttl:          ttl,
		store:        store,
	}
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Login checks the admin credentials and issues a signed session token
func (a *Authenticator) Login(_ context.Context, username, password string) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// always run bcrypt so a wrong username costs the same as a wrong password
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return Session{}, fmt.Errorf("auth: invalid username or password: %w", marketerrors.ErrUnauthorized)
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(a.ttl)
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.GenerateID(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Session{}, fmt.Errorf("auth: failed to sign token: %w", err)
	}
	return Session{Token: token, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Authenticate verifies signature, expiry, revocation and role of a token
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := a.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := a.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to check revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("auth: token has been revoked: %w", marketerrors.ErrUnauthorized)
	}
	if claims.Role != RoleAdmin {
		return nil, fmt.Errorf("auth: role %q: %w", claims.Role, marketerrors.ErrForbidden)
	}
	return claims, nil
}

// Logout revokes a token for the rest of its lifetime
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.parse(token)
	if err != nil {
		return err
	}
	if err := a.store.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("auth: failed to revoke token: %w", err)
	}
	return nil
}

func (a *Authenticator) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("auth: token required: %w", marketerrors.ErrUnauthorized)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, fmt.Errorf("auth: %v: %w", err, marketerrors.ErrUnauthorized)
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("auth: token missing jti or exp: %w", marketerrors.ErrUnauthorized)
	}
	return claims, nil
}
