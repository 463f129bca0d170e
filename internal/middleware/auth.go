package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemacademy/site-api/pkg/jwt"
	"github.com/stemacademy/site-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	// AdminClaimsContextKey stores the authenticated admin claims in request context.
	AdminClaimsContextKey = "admin_claims"

	// WebhookSecretHeader carries the shared secret on CMS webhooks
	WebhookSecretHeader = "X-Webhook-Secret"
)

var (
	ErrAdminClaimsNotFound = errors.New("admin claims not found in context")
	ErrInvalidAdminClaims  = errors.New("invalid admin claims type")
)

// AdminAuthMiddleware validates the admin bearer token and stores its claims in context.
// A nil token manager rejects every request.
func AdminAuthMiddleware(tokenManager *jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenManager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin API is not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Warn("Missing admin token",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := tokenManager.ValidateToken(token)
		if err != nil {
			_ = c.Error(fmt.Errorf("invalid admin token: %w", err)) //nolint:errcheck
			if errors.Is(err, jwt.ErrExpiredToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			}
			c.Abort()
			return
		}

		c.Set(AdminClaimsContextKey, claims)
		c.Next()
	}
}

// RequireRole rejects admins whose role is not in roles. It must run after AdminAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetAdminClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		logger.Warn("Admin role not allowed",
			zap.String("path", c.Request.URL.Path),
			zap.String("email", claims.Email),
			zap.String("role", claims.Role),
		)
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		c.Abort()
	}
}

func GetAdminClaims(c *gin.Context) (*jwt.AdminClaims, error) {
	val, exists := c.Get(AdminClaimsContextKey)
	if !exists {
		return nil, ErrAdminClaimsNotFound
	}

	claims, ok := val.(*jwt.AdminClaims)
	if !ok {
		return nil, ErrInvalidAdminClaims
	}

	return claims, nil
}

// WebhookSecretMiddleware validates the shared secret the CMS sends with change notifications
func WebhookSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(WebhookSecretHeader)

		if secret == "" || token == "" || !jwt.TimingSafeCompare(token, secret) {
			logger.Warn("Invalid webhook secret",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing webhook secret"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
