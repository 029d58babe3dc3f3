package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("s3cret")

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key interface{}) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestParseToken(t *testing.T) {
	claims, err := ParseToken(sign(t, jwt.SigningMethodHS256, Claims{UserID: 7}, secret), secret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)

	subject := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}}
	claims, err = ParseToken(sign(t, jwt.SigningMethodHS256, subject, secret), secret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestParseTokenRejects(t *testing.T) {
	expired := Claims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	tests := map[string]string{
		"wrong secret":    sign(t, jwt.SigningMethodHS256, Claims{UserID: 7}, []byte("other")),
		"wrong method":    sign(t, jwt.SigningMethodHS512, Claims{UserID: 7}, secret),
		"expired":         sign(t, jwt.SigningMethodHS256, expired, secret),
		"no user":         sign(t, jwt.SigningMethodHS256, Claims{}, secret),
		"non-numeric sub": sign(t, jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "bob"}}, secret),
		"garbage":         "not.a.token",
	}
	for name, tok := range tests {
		_, err := ParseToken(tok, secret)
		assert.Error(t, err, name)
	}
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("session"))))
	r.Use(LoadUser(string(secret)))
	r.GET("/login-as/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set("user_id", uint(5))
		_ = s.Save()
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c)})
	})...)
	return r
}

func TestLoadUserFromBearer(t *testing.T) {
	r := newEngine(AuthRequired())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, Claims{UserID: 9}, secret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":9}`, w.Body.String())
}

func TestLoadUserFromSession(t *testing.T) {
	r := newEngine(AuthRequired())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login-as/5", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":5}`, w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	r := newEngine(AuthRequired())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("HX-Request", "true")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/login", w.Header().Get("HX-Redirect"))
}

func TestReactionRateLimit(t *testing.T) {
	r := newEngine(ReactionRateLimit(1, 1))
	tok := sign(t, jwt.SigningMethodHS256, Claims{UserID: 3}, secret)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)

	// Another user has their own bucket.
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, Claims{UserID: 4}, secret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
