package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"backend_nae/middleware"
	"backend_nae/models"
	"backend_nae/services"
	"backend_nae/validation"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthAPI управляет регистрацией, входом и профилем пользователя
type AuthAPI struct {
	DB        *gorm.DB
	Sessions  *services.SessionService
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// NewAuthAPI создает новый экземпляр AuthAPI
func NewAuthAPI(db *gorm.DB, sessions *services.SessionService, jwtSecret, issuer string, tokenTTL time.Duration) *AuthAPI {
	return &AuthAPI{
		DB:        db,
		Sessions:  sessions,
		JWTSecret: jwtSecret,
		Issuer:    issuer,
		TokenTTL:  tokenTTL,
	}
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required,min=8,max=100"`
	FirstName string `json:"first_name" binding:"max=50"`
	LastName  string `json:"last_name" binding:"max=50"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProfileRequest представляет запрос на обновление профиля
type ProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50"`
	LastName  string `json:"last_name" binding:"required,max=50"`
}

// Структурированное логирование для авторизации
func logAuthOperation(operation, email string, details map[string]interface{}) {
	logData := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"operation": operation,
		"email":     email,
	}
	for key, value := range details {
		logData[key] = value
	}

	logJSON, _ := json.Marshal(logData)
	log.Printf("AUTH_LOG: %s", string(logJSON))
}

// RegisterAuthRoutes регистрирует маршруты аутентификации
func (api *AuthAPI) RegisterAuthRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/auth")
	{
		group.POST("/register", api.Register)
		group.POST("/login", api.Login)
		group.GET("/me", auth.RequireAuth(), api.Me)
		group.PUT("/profile", auth.RequireAuth(), api.UpdateProfile)
		group.POST("/logout", auth.RequireAuth(), api.Logout)
	}
}

// Register создает пользователя. Регистрация разрешена только с двух
// почтовых доменов; бесформенный адрес и чужой домен различаются
// и статусом, и сообщением.
func (api *AuthAPI) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request: " + err.Error()})
		return
	}

	if msg := validation.EmailValidationError(req.Email); msg != "" {
		status := http.StatusBadRequest
		if msg == validation.MsgEmailDomain {
			status = http.StatusForbidden
		}
		logAuthOperation("register_rejected", req.Email, map[string]interface{}{"reason": msg})
		c.JSON(status, gin.H{"status": "error", "error": msg})
		return
	}

	// Занятый адрес определяем заранее, чтобы отдать осмысленный
	// конфликт вместо ошибки драйвера.
	var taken int64
	if err := api.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&taken).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create user: " + err.Error()})
		return
	}
	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Email is already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to hash password"})
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}

	if err := createWithUserNumber(api.DB, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Email is already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create user: " + err.Error()})
		return
	}

	logAuthOperation("register_success", user.Email, map[string]interface{}{"user_id": user.ID, "user_number": user.UserNumber})

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data": gin.H{
			"user":                user,
			"needs_profile_setup": validation.NeedsProfileSetup(&user),
		},
	})
}

// createWithUserNumber вставляет пользователя со следующим порядковым
// номером (max+1 в транзакции). Две одновременные регистрации могут
// вычислить один номер; проигравшая получает нарушение уникальности
// user_number, и попытка повторяется со свежим номером.
func createWithUserNumber(db *gorm.DB, user *models.User) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			var maxNumber int
			if err := tx.Model(&models.User{}).Select("COALESCE(MAX(user_number), 0)").Scan(&maxNumber).Error; err != nil {
				return err
			}
			user.UserNumber = maxNumber + 1
			return tx.Create(user).Error
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

// Login проверяет учетные данные и выдает JWT с идентификатором сессии
func (api *AuthAPI) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid email or password"})
		return
	}

	var user models.User
	if err := api.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		logAuthOperation("login_failed", req.Email, map[string]interface{}{"reason": "user_not_found", "ip_address": c.ClientIP()})
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logAuthOperation("login_failed", req.Email, map[string]interface{}{"reason": "bad_password", "ip_address": c.ClientIP()})
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Invalid email or password"})
		return
	}

	session, err := api.Sessions.Create(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create session: " + err.Error()})
		return
	}

	token, err := api.signToken(session.SID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to sign token"})
		return
	}

	logAuthOperation("login_success", user.Email, map[string]interface{}{"user_id": user.ID, "session_id": session.SID})

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"token":               token,
			"user":                user,
			"needs_profile_setup": validation.NeedsProfileSetup(&user),
		},
	})
}

// signToken подписывает JWT с идентификатором сессии в claims.
func (api *AuthAPI) signToken(sid, userID string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"sub": userID,
		"iss": api.Issuer,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(api.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(api.JWTSecret))
}

// Me возвращает текущего пользователя и производные поля профиля
func (api *AuthAPI) Me(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"user":                user,
			"display_name":        displayName(user),
			"needs_profile_setup": validation.NeedsProfileSetup(user),
		},
	})
}

// UpdateProfile задает имя и фамилию; до этого профиль считается неполным
func (api *AuthAPI) UpdateProfile(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "Not authenticated"})
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "First name and last name are required"})
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	if err := api.DB.Save(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update profile: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"user":                user,
			"needs_profile_setup": validation.NeedsProfileSetup(user),
		},
	})
}

// Logout уничтожает текущую сессию
func (api *AuthAPI) Logout(c *gin.Context) {
	sid := c.GetString("session_id")
	if sid != "" {
		if err := api.Sessions.Destroy(sid); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to destroy session: " + err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
