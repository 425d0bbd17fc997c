package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shreyescodes/erp-portal/internal/app/models"
)

// JWT errors
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
	ErrInvalidFormat = errors.New("invalid token format")
)

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey       string
	AccessTokenExp  time.Duration
	RefreshTokenExp time.Duration
	TokenIssuer     string
}

// JWTService signs and verifies access tokens. Refresh tokens are opaque
// random strings persisted by the caller.
type JWTService struct {
	config JWTConfig
	parser *jwt.Parser
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{
		config: config,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		now:    time.Now,
	}
}

// Claims defines JWT token content
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful sign in or refresh
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int // seconds
	RefreshExpiresIn int // seconds
	RefreshExpiresAt time.Time
}

// GenerateTokenPair signs an access token for user and mints a refresh token
func (s *JWTService) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	issuedAt := s.now()

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExp)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    s.config.TokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     uuid.NewString(),
		ExpiresIn:        int(s.config.AccessTokenExp.Seconds()),
		RefreshExpiresIn: int(s.config.RefreshTokenExp.Seconds()),
		RefreshExpiresAt: issuedAt.Add(s.config.RefreshTokenExp),
	}, nil
}

// ValidateToken verifies the signature and lifetime of an access token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearerToken extracts the token from the Authorization header.
// A bare token without the Bearer scheme is accepted too.
func ExtractBearerToken(authHeader string) (string, error) {
	fields := strings.Fields(authHeader)
	switch {
	case len(fields) == 2 && strings.EqualFold(fields[0], "Bearer"):
		return fields[1], nil
	case len(fields) == 1 && !strings.EqualFold(fields[0], "Bearer"):
		return fields[0], nil
	default:
		return "", ErrInvalidFormat
	}
}

// ValidateAndExtractClaims validates a token and requires it to name a user
func (s *JWTService) ValidateAndExtractClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
