package middleware

import (
	"errors"
	"net/http"
	"strings"

	"backend_nae/models"
	"backend_nae/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// AuthMiddleware проверяет аутентификацию пользователя: JWT несёт
// идентификатор сессии, сама сессия проверяется по базе на каждом
// запросе. Истёкшая сессия отклоняется ещё до физической очистки.
type AuthMiddleware struct {
	DB        *gorm.DB
	Sessions  *services.SessionService
	JWTSecret string
}

// NewAuthMiddleware создает новый экземпляр AuthMiddleware
func NewAuthMiddleware(db *gorm.DB, sessions *services.SessionService, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		DB:        db,
		Sessions:  sessions,
		JWTSecret: jwtSecret,
	}
}

// RequireAuth middleware для проверки аутентификации
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Authorization header is required",
			})
			c.Abort()
			return
		}

		sid, err := am.parseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid token: " + err.Error(),
			})
			c.Abort()
			return
		}

		session, err := am.Sessions.Validate(sid)
		if err != nil {
			message := "Invalid session"
			if errors.Is(err, services.ErrSessionExpired) {
				message = "Session expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  message,
			})
			c.Abort()
			return
		}

		userID, err := am.Sessions.UserID(session)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid session payload",
			})
			c.Abort()
			return
		}

		var user models.User
		if err := am.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "User not found",
			})
			c.Abort()
			return
		}

		c.Set("user", &user)
		c.Set("session_id", session.SID)

		c.Next()
	}
}

// extractToken достает токен из заголовка Authorization.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		authHeader = c.GetHeader("authorization")
	}
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if strings.HasPrefix(authHeader, "Token ") {
		return strings.TrimPrefix(authHeader, "Token ")
	}
	return authHeader
}

// parseToken проверяет подпись JWT и возвращает идентификатор сессии.
func (am *AuthMiddleware) parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(am.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("token has no session id")
	}
	return sid, nil
}

// GetCurrentUser возвращает текущего пользователя из контекста
func GetCurrentUser(c *gin.Context) *models.User {
	if value, exists := c.Get("user"); exists {
		if user, ok := value.(*models.User); ok {
			return user
		}
	}
	return nil
}
