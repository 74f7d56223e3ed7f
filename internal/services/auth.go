package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	jose "github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "classtrib-api"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// HashPassword returns a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type identityClaims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// TokenService issues and verifies HS256 session tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the identity and returns it with its expiry
func (s *TokenService) Issue(identity models.Identity) (string, time.Time, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: s.secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create signer: %w", err)
	}

	now := s.now()
	expires := now.Add(s.ttl)
	std := jwt.Claims{
		Issuer:   tokenIssuer,
		Subject:  strconv.FormatInt(identity.UserID, 10),
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(expires),
	}
	custom := identityClaims{Username: identity.Username, IsAdmin: identity.IsAdmin}

	raw, err := jwt.Signed(signer).Claims(std).Claims(custom).CompactSerialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return raw, expires, nil
}

// Verify checks signature, issuer and expiry and returns the embedded identity
func (s *TokenService) Verify(raw string) (*models.Identity, error) {
	tok, err := jwt.ParseSigned(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if len(tok.Headers) != 1 || tok.Headers[0].Algorithm != string(jose.HS256) {
		return nil, ErrInvalidToken
	}

	var std jwt.Claims
	var custom identityClaims
	if err := tok.Claims(s.secret, &std, &custom); err != nil {
		return nil, ErrInvalidToken
	}

	if err := std.ValidateWithLeeway(jwt.Expected{Issuer: tokenIssuer, Time: s.now()}, 0); err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrInvalidToken
	}

	return &models.Identity{
		UserID:   userID,
		Username: custom.Username,
		IsAdmin:  custom.IsAdmin,
	}, nil
}
