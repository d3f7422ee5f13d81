package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/orrn/batchfarm/internal/config"
)

func newTestAuth(t *testing.T) (*AuthMiddleware, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAuthMiddleware(config.AuthConfig{
		Enabled:      true,
		JWTSecret:    "0123456789abcdef0123456789abcdef",
		PasswordHash: string(hash),
		TokenTTL:     time.Hour,
	})

	r := gin.New()
	r.POST("/login", a.LoginHandler)
	r.GET("/status", a.StatusHandler)
	r.GET("/private", a.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return a, r
}

func login(t *testing.T, r *gin.Engine, password string) (*httptest.ResponseRecorder, LoginResponse) {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{Password: password})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body)))

	var resp LoginResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestLogin(t *testing.T) {
	_, r := newTestAuth(t)

	w, resp := login(t, r, "wrong")
	if w.Code != http.StatusUnauthorized || resp.Token != "" {
		t.Errorf("expected 401 for wrong password, got %d %+v", w.Code, resp)
	}

	w, resp = login(t, r, "hunter22")
	if w.Code != http.StatusOK || resp.Token == "" {
		t.Fatalf("expected token, got %d %+v", w.Code, resp)
	}
	if resp.ExpiresAt.IsZero() {
		t.Error("expected token expiry in response")
	}
	if len(w.Result().Cookies()) == 0 {
		t.Error("expected auth cookie")
	}
}

func TestVerify(t *testing.T) {
	a, _ := newTestAuth(t)

	good, _, err := a.Issue()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Verify(good); err != nil {
		t.Errorf("expected issued token to verify, got %v", err)
	}

	if _, err := a.Verify(""); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	foreign, err := other.SignedString(a.secret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Verify(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected foreign issuer to be rejected, got %v", err)
	}

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:  issuer,
		Subject: subject,
	}})
	forever, err := noExp.SignedString(a.secret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Verify(forever); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected token without expiry to be rejected, got %v", err)
	}
}

func TestRequireAuth(t *testing.T) {
	_, r := newTestAuth(t)
	_, resp := login(t, r, "hunter22")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid bearer", "Bearer " + resp.Token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	a, r := newTestAuth(t)
	_, resp := login(t, r, "hunter22")

	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	_, r := newTestAuth(t)
	_, resp := login(t, r, "hunter22")

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: resp.Token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var status StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if !status.Authenticated || status.ExpiresAt == nil {
		t.Errorf("expected authenticated status with cookie, got %+v", status)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	status = StatusResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusOK || status.Authenticated {
		t.Errorf("expected unauthenticated 200 without token, got %d %+v", w.Code, status)
	}
}
