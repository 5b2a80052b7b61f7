// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. Authenticated callers present an
// HS256 bearer token whose subject is their user ID; during development the
// X-User-ID header can stand in for a token. Requests with neither proceed as
// guests, and routes that need a user add RequireUser.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ctxKeyUserID is the Gin context key holding the authenticated user ID.
	ctxKeyUserID = "userID"
	// HeaderUserID carries a user ID directly when header identity is allowed.
	HeaderUserID = "X-User-ID"
	// QueryAccessToken carries a bearer token on GET requests whose client
	// cannot set headers (browser EventSource).
	QueryAccessToken = "access_token"
)

// IdentityOptions configures Identity.
type IdentityOptions struct {
	// Secret verifies HS256 bearer tokens. Empty disables bearer tokens.
	Secret []byte
	// Issuer, when set, must match the token's iss claim.
	Issuer string
	// AllowHeader accepts X-User-ID without a token.
	AllowHeader bool
}

// Identity returns a middleware that stores the caller's user ID in the Gin
// context. An invalid or unacceptable token is rejected with 401 rather than
// downgraded to a guest.
func Identity(opts IdentityOptions) gin.HandlerFunc {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	return func(c *gin.Context) {
		if raw := bearerToken(c); raw != "" {
			uid, err := verify(parser, opts.Secret, raw)
			if err != nil {
				unauthorized(c, "invalid bearer token")
				return
			}
			c.Set(ctxKeyUserID, uid)
			c.Next()
			return
		}
		if opts.AllowHeader {
			if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
				c.Set(ctxKeyUserID, h)
			}
		}
		c.Next()
	}
}

// RequireUser rejects guests with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user ID, or "" for guests.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IssueToken signs an HS256 token for subject, valid for ttl.
func IssueToken(secret []byte, issuer, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func verify(parser *jwt.Parser, secret []byte, raw string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("bearer tokens are not accepted")
	}
	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		const prefix = "Bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
		return ""
	}
	if c.Request.Method == http.MethodGet {
		return c.Query(QueryAccessToken)
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
