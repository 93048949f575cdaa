package api

import (
	"errors"
	"net/http"
	"strconv"

	"backend_nae/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TestTemplatesAPI управляет шаблонами тестов в админ-панели
type TestTemplatesAPI struct {
	DB *gorm.DB
}

// NewTestTemplatesAPI создает новый экземпляр TestTemplatesAPI
func NewTestTemplatesAPI(db *gorm.DB) *TestTemplatesAPI {
	return &TestTemplatesAPI{DB: db}
}

// TemplateRequest представляет запрос на создание/обновление шаблона
type TemplateRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=100"`
	Items     []string `json:"items" binding:"required,min=1"`
	IsDefault bool     `json:"is_default"`
}

// templateResponse собирает ответ с расшифрованным списком тестов.
func templateResponse(tpl *models.TestTemplate) (gin.H, error) {
	keys, err := tpl.ItemKeys()
	if err != nil {
		return nil, err
	}
	return gin.H{
		"id":         tpl.ID,
		"name":       tpl.Name,
		"items":      keys,
		"is_default": tpl.IsDefault,
		"created_at": tpl.CreatedAt,
		"updated_at": tpl.UpdatedAt,
	}, nil
}

// RegisterTemplateRoutes регистрирует маршруты шаблонов
func (api *TestTemplatesAPI) RegisterTemplateRoutes(r *gin.RouterGroup) {
	templates := r.Group("/templates")
	{
		templates.GET("", api.GetTemplates)
		templates.POST("", api.CreateTemplate)
		templates.GET("/:id", api.GetTemplate)
		templates.PUT("/:id", api.UpdateTemplate)
		templates.DELETE("/:id", api.DeleteTemplate)
	}
}

// validateTemplateItems проверяет, что все ключи шаблона известны.
func validateTemplateItems(items []string) string {
	for _, key := range items {
		if _, ok := models.TestItemName(key); !ok {
			return "Unknown test item: " + key
		}
	}
	return ""
}

// GetTemplates возвращает все шаблоны тестов
func (api *TestTemplatesAPI) GetTemplates(c *gin.Context) {
	var templates []models.TestTemplate
	if err := api.DB.Order("is_default DESC, name").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to list templates: " + err.Error()})
		return
	}

	data := make([]gin.H, 0, len(templates))
	for i := range templates {
		resp, err := templateResponse(&templates[i])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to parse template items: " + err.Error()})
			return
		}
		data = append(data, resp)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data, "total": len(data)})
}

// CreateTemplate создает шаблон; при is_default прежний шаблон по
// умолчанию разжалуется в той же транзакции
func (api *TestTemplatesAPI) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request body: " + err.Error()})
		return
	}
	if msg := validateTemplateItems(req.Items); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	tpl := models.TestTemplate{Name: req.Name, IsDefault: req.IsDefault}
	if err := tpl.SetItemKeys(req.Items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to serialize template items: " + err.Error()})
		return
	}

	err := api.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.TestTemplate{}).Where("is_default = ?", true).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&tpl).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "A template with this name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create template: " + err.Error()})
		return
	}

	resp, _ := templateResponse(&tpl)
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": resp})
}

// GetTemplate возвращает шаблон по идентификатору
func (api *TestTemplatesAPI) GetTemplate(c *gin.Context) {
	tpl, ok := api.findTemplate(c)
	if !ok {
		return
	}
	resp, err := templateResponse(tpl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to parse template items: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": resp})
}

// UpdateTemplate обновляет шаблон, сохраняя единственность default
func (api *TestTemplatesAPI) UpdateTemplate(c *gin.Context) {
	tpl, ok := api.findTemplate(c)
	if !ok {
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request body: " + err.Error()})
		return
	}
	if msg := validateTemplateItems(req.Items); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": msg})
		return
	}

	tpl.Name = req.Name
	tpl.IsDefault = req.IsDefault
	if err := tpl.SetItemKeys(req.Items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to serialize template items: " + err.Error()})
		return
	}

	err := api.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.TestTemplate{}).
				Where("is_default = ? AND id <> ?", true, tpl.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(tpl).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update template: " + err.Error()})
		return
	}

	resp, _ := templateResponse(tpl)
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": resp})
}

// DeleteTemplate удаляет шаблон; шаблон по умолчанию удалить нельзя
func (api *TestTemplatesAPI) DeleteTemplate(c *gin.Context) {
	tpl, ok := api.findTemplate(c)
	if !ok {
		return
	}
	if tpl.IsDefault {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Cannot delete the default template"})
		return
	}

	if err := api.DB.Delete(tpl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete template: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// findTemplate загружает шаблон по :id или пишет ошибку в ответ.
func (api *TestTemplatesAPI) findTemplate(c *gin.Context) (*models.TestTemplate, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid template id"})
		return nil, false
	}

	var tpl models.TestTemplate
	if err := api.DB.First(&tpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Template not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load template: " + err.Error()})
		return nil, false
	}
	return &tpl, true
}
