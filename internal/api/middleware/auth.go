package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/orrn/batchfarm/internal/config"
)

const (
	cookieName = "batchfarm_auth"
	issuer     = "batchfarm"
	subject    = "operator"

	// ClaimsKey is the gin context key RequireAuth stores verified claims under.
	ClaimsKey = "claims"
)

var (
	ErrNoToken      = errors.New("no token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims identify the farm operator. There is a single operator account, so
// the subject is fixed.
type Claims struct {
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret       []byte
	passwordHash []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type StatusResponse struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// errorBody has the same shape as handlers.ErrorResponse.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewAuthMiddleware(cfg config.AuthConfig) *AuthMiddleware {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthMiddleware{
		secret:       []byte(cfg.JWTSecret),
		passwordHash: []byte(cfg.PasswordHash),
		tokenTTL:     ttl,
		now:          time.Now,
	}
}

// Issue signs a new operator token.
func (a *AuthMiddleware) Issue() (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, issuer, subject and expiry of raw.
func (a *AuthMiddleware) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// tokenFrom prefers an Authorization bearer header and falls back to the
// session cookie set by LoginHandler.
func tokenFrom(c *gin.Context) string {
	if raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(raw)
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

func (a *AuthMiddleware) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "password is required"})
		return
	}

	if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid_credentials", Message: "wrong password"})
		return
	}

	token, exp, err := a.Issue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "could not issue token"})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cookieName, token, int(a.tokenTTL.Seconds()), "/api", "", true, true)
	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp})
}

func (a *AuthMiddleware) LogoutHandler(c *gin.Context) {
	c.SetCookie(cookieName, "", -1, "/api", "", true, true)
	c.Status(http.StatusNoContent)
}

// StatusHandler never fails; an absent or bad token reports unauthenticated.
func (a *AuthMiddleware) StatusHandler(c *gin.Context) {
	claims, err := a.Verify(tokenFrom(c))
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{})
		return
	}
	exp := claims.ExpiresAt.Time
	c.JSON(http.StatusOK, StatusResponse{Authenticated: true, ExpiresAt: &exp})
}

func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.Verify(tokenFrom(c))
		switch {
		case errors.Is(err, ErrNoToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "authentication required"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "invalid or expired token"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
