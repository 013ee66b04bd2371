package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stemsi/examenv-backend/internal/response"
	"github.com/stemsi/examenv-backend/internal/service"
)

const (
	// HeaderEnvironmentToken carries the signed exam environment authorization token.
	HeaderEnvironmentToken = "exam-environment-authorization-token"

	// ContextKeyToken is the Gin context key for the authenticated token.
	ContextKeyToken = "exam_environment_token"
)

// Authenticator resolves an encoded token to the stored token it refers to.
type Authenticator interface {
	Authenticate(ctx context.Context, encoded string) (*model.AuthorizationToken, error)
}

// RequireEnvironmentToken rejects requests without a valid exam environment
// authorization token and stores the token in the Gin context.
func RequireEnvironmentToken(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		encoded := ExtractToken(c)
		if encoded == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		token, err := auth.Authenticate(c.Request.Context(), encoded)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrTokenExpired):
			response.AbortFail(c, http.StatusForbidden, response.ErrTokenExpired)
			return
		case errors.Is(err, service.ErrTokenInvalid):
			response.AbortFail(c, http.StatusForbidden, response.ErrTokenInvalid)
			return
		default:
			_ = c.Error(err)
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Set(ContextKeyToken, token)
		c.Next()
	}
}

// ExtractToken reads the encoded token from the exam environment header,
// falling back to an Authorization bearer token.
func ExtractToken(c *gin.Context) string {
	if token := c.GetHeader(HeaderEnvironmentToken); token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// GetToken retrieves the authenticated token from the Gin context.
func GetToken(c *gin.Context) *model.AuthorizationToken {
	val, exists := c.Get(ContextKeyToken)
	if !exists {
		return nil
	}
	token, ok := val.(*model.AuthorizationToken)
	if !ok {
		return nil
	}
	return token
}

// GetUserID returns the id of the authenticated user, or uuid.Nil.
func GetUserID(c *gin.Context) uuid.UUID {
	if token := GetToken(c); token != nil {
		return token.UserID
	}
	return uuid.Nil
}
