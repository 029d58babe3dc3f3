package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"agora/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// UserIDKey holds the caller's user id (uint) once LoadUser resolved it.
const UserIDKey = "user_id"

// Claims is the access token issued by the account service.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 access token and extracts the user id, from
// user_id or a numeric subject.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 && claims.Subject != "" {
		id, err := strconv.ParseUint(claims.Subject, 10, strconv.IntSize)
		if err != nil {
			return nil, errors.New("token subject is not a user id")
		}
		claims.UserID = uint(id)
	}
	if claims.UserID == 0 {
		return nil, errors.New("token carries no user id")
	}
	return claims, nil
}

// LoadUser resolves the caller from the session cookie or, failing that,
// from a bearer token / access_token cookie. Anonymous requests pass through.
func LoadUser(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		if id := sessionUserID(c); id != 0 {
			c.Set(UserIDKey, id)
			c.Next()
			return
		}

		if tokenStr := bearerToken(c); tokenStr != "" && len(secret) > 0 {
			if claims, err := ParseToken(tokenStr, secret); err == nil {
				c.Set(UserIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

func sessionUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	switch v := session.Get("user_id").(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}

// CurrentUserID returns the id LoadUser stored, or 0.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) != 0 {
			c.Next()
			return
		}
		if c.GetHeader("HX-Request") == "true" {
			// HTMX follows the header and shows the login page.
			c.Header("HX-Redirect", "/login")
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
	}
}

// AdminRequired checks the caller's role in the users table.
func AdminRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentUserID(c)
		if id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		var user models.User
		if err := db.WithContext(c.Request.Context()).Select("id", "role").Take(&user, id).Error; err != nil || user.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
