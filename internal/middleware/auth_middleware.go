package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appAuth "github.com/shreyescodes/erp-portal/internal/app/auth"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/auth"
)

// Context keys set by the auth middleware
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextEmail    = "email"
)

// UserLookup loads the account behind a token
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	users      UserLookup
	logger     zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, users UserLookup, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
		logger:     logger,
	}
}

// tokenFromRequest reads the bearer token from the Authorization header, or
// from the token query parameter for clients that cannot set headers
// (browser websockets, Swagger UI).
func tokenFromRequest(c *gin.Context) (string, error) {
	header := strings.Trim(c.GetHeader("Authorization"), "\"'")
	if header == "" {
		header = c.Query("token")
	}
	if header == "" {
		return "", nil
	}
	return auth.ExtractBearerToken(header)
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorAPIResponse(dto.NewErrorDetail(code, message)))
}

// authenticate validates the token and loads its user. A nil user with a nil
// error means no token was sent.
func (m *AuthMiddleware) authenticate(c *gin.Context) (*models.User, *dto.ErrorDetail) {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		return nil, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token format")
	}
	if tokenString == "" {
		return nil, nil
	}

	claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token has expired")
		}
		return nil, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")
	}

	user, err := m.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrResourceNotFound) {
			m.logger.Error().Err(err).Int64("userId", claims.UserID).Msg("Failed to load token owner")
		}
		return nil, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token. User not found.")
	}
	if !user.IsActive {
		return nil, dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, "Account is deactivated")
	}
	return user, nil
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(ContextUserID, user.ID)
	c.Set(ContextUserRole, user.Role)
	c.Set(ContextEmail, user.Email)
}

// JWTAuth requires a valid token of an existing, active user
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, detail := m.authenticate(c)
		if detail != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorAPIResponse(detail))
			return
		}
		if user == nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthenticated, "Access denied. No token provided.")
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets
// anonymous or badly authenticated requests through as anonymous.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, detail := m.authenticate(c); detail == nil && user != nil {
			setUser(c, user)
		}
		c.Next()
	}
}

// RoleRequired rejects callers without the given role. It must run after JWTAuth.
func (m *AuthMiddleware) RoleRequired(role models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserID); !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthenticated, "Authentication required")
			return
		}
		if current, _ := c.Get(ContextUserRole); current != role {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorAPIResponse(
				dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied. Admin only.")))
			return
		}
		c.Next()
	}
}

// Requester returns the authenticated caller, or the anonymous requester.
func Requester(c *gin.Context) appAuth.Requester {
	id := c.GetInt64(ContextUserID)
	role, _ := c.Get(ContextUserRole)
	roleType, _ := role.(models.RoleType)
	return appAuth.Requester{ID: id, Role: roleType}
}
