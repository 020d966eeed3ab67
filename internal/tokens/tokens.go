package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// ErrInvalidToken covers bad signatures, malformed payloads and expiry alike.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	ttl           time.Duration
	now           func() time.Time
}

func NewService(accessSecret, refreshSecret []byte, ttl time.Duration) *Service {
	return &Service{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		ttl:           ttl,
		now:           time.Now,
	}
}

func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) IssueAccessToken(email string) (string, error) {
	return s.issue(email, s.accessSecret)
}

func (s *Service) IssueRefreshToken(email string) (string, error) {
	return s.issue(email, s.refreshSecret)
}

func (s *Service) IssuePair(email string) (Pair, error) {
	access, err := s.IssueAccessToken(email)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.IssueRefreshToken(email)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) issue(email string, secret []byte) (string, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) Verify(tokenStr string, kind Kind) (*Claims, error) {
	var secret []byte
	switch kind {
	case KindAccess:
		secret = s.accessSecret
	case KindRefresh:
		secret = s.refreshSecret
	default:
		return nil, ErrInvalidToken
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
