package api

import (
	"errors"
	"net/http"

	"backend_nae/middleware"
	"backend_nae/models"
	"backend_nae/validation"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UsersAPI управляет справочником пользователей
type UsersAPI struct {
	DB *gorm.DB
}

// NewUsersAPI создает новый экземпляр UsersAPI
func NewUsersAPI(db *gorm.DB) *UsersAPI {
	return &UsersAPI{DB: db}
}

// RegisterUserRoutes регистрирует маршруты пользователей
func (api *UsersAPI) RegisterUserRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("", api.GetUsers)
		users.GET("/:id", api.GetUser)
		users.DELETE("/:id", api.DeleteUser)
	}
}

// userResponse собирает публичное представление пользователя.
func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":                 user.ID,
		"email":              user.Email,
		"first_name":         user.FirstName,
		"last_name":          user.LastName,
		"user_number":         user.UserNumber,
		"display_name":        displayName(user),
		"needs_profile_setup": validation.NeedsProfileSetup(user),
		"created_at":          user.CreatedAt,
	}
}

// GetUsers возвращает пользователей по порядку регистрации
func (api *UsersAPI) GetUsers(c *gin.Context) {
	var users []models.User
	if err := api.DB.Order("user_number").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to list users: " + err.Error()})
		return
	}

	data := make([]gin.H, 0, len(users))
	for i := range users {
		data = append(data, userResponse(&users[i]))
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data, "total": len(data)})
}

// GetUser возвращает пользователя по идентификатору
func (api *UsersAPI) GetUser(c *gin.Context) {
	var user models.User
	if err := api.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": userResponse(&user)})
}

// DeleteUser удаляет собственную учётную запись. Чужую запись удалить
// нельзя. Лист не существует без владельца, поэтому листы пользователя
// удаляются в той же транзакции вместе со строками тестов.
func (api *UsersAPI) DeleteUser(c *gin.Context) {
	current := middleware.GetCurrentUser(c)
	if current.ID != c.Param("id") {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "Access denied"})
		return
	}

	err := api.DB.Transaction(func(tx *gorm.DB) error {
		var sheetIDs []string
		if err := tx.Model(&models.TestSheet{}).Where("user_id = ?", current.ID).Pluck("id", &sheetIDs).Error; err != nil {
			return err
		}
		if len(sheetIDs) > 0 {
			if err := tx.Where("test_sheet_id IN ?", sheetIDs).Delete(&models.TestItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", current.ID).Delete(&models.TestSheet{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, "id = ?", current.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete user: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
