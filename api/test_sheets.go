package api

import (
	"errors"
	"net/http"

	"backend_nae/middleware"
	"backend_nae/models"
	"backend_nae/services"
	"backend_nae/validation"

	"github.com/gin-gonic/gin"
)

// TestSheetAPI управляет API тест-листов
type TestSheetAPI struct {
	Sheets *services.TestSheetService
	Drafts *services.DraftService
	Notify *services.NotificationService
}

// NewTestSheetAPI создает новый экземпляр TestSheetAPI
func NewTestSheetAPI(sheets *services.TestSheetService, drafts *services.DraftService, notify *services.NotificationService) *TestSheetAPI {
	return &TestSheetAPI{
		Sheets: sheets,
		Drafts: drafts,
		Notify: notify,
	}
}

// SubmitSheetRequest представляет отправку формы: данные формы, опциональная
// подпись администратора и идентификатор пользователя (информационный;
// владельцем становится аутентифицированный пользователь).
type SubmitSheetRequest struct {
	FormData  models.TestSheetFormData `json:"formData"`
	Signature string                   `json:"signature,omitempty"`
	UserID    string                   `json:"userId,omitempty"`
}

// RegisterTestSheetRoutes регистрирует маршруты тест-листов
func (api *TestSheetAPI) RegisterTestSheetRoutes(r *gin.RouterGroup) {
	sheets := r.Group("/sheets")
	{
		sheets.GET("", api.ListTestSheets)
		sheets.POST("", api.CreateTestSheet)
		sheets.GET("/:id", api.GetTestSheet)
		sheets.PUT("/:id", api.UpdateTestSheet)
		sheets.DELETE("/:id", api.DeleteTestSheet)
	}
}

// ListTestSheets возвращает листы текущего пользователя, новые первыми
func (api *TestSheetAPI) ListTestSheets(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	sheets, err := api.Sheets.ListByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to list test sheets: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   sheets,
		"total":  len(sheets),
	})
}

// CreateTestSheet валидирует форму целиком и транзакционно сохраняет
// лист со строками тестов. Ошибки валидации возвращаются списком по
// полям; дубликат tech_reference отдается конфликтом, а не общей ошибкой.
func (api *TestSheetAPI) CreateTestSheet(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	var req SubmitSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request body: " + err.Error()})
		return
	}

	form, fieldErrors := validation.ValidateAndNormalize(req.FormData)
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Validation failed",
			"errors": fieldErrors,
		})
		return
	}

	sheet, err := api.Sheets.Create(form, user.ID, req.Signature)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateReference) {
			c.JSON(http.StatusConflict, gin.H{
				"status": "error",
				"error":  "A test sheet with this tech reference already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create test sheet: " + err.Error()})
		return
	}

	// Черновик пользователя отработал свое: форма сдана.
	if api.Drafts != nil {
		_ = api.Drafts.Clear(c.Request.Context(), user.ID)
	}
	if api.Notify != nil {
		api.Notify.NotifySheetSubmitted(sheet)
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"id": sheet.ID},
	})
}

// GetTestSheet возвращает лист, строки тестов и проекцию данных формы
func (api *TestSheetAPI) GetTestSheet(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	sheet, items, err := api.Sheets.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrSheetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Test sheet not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load test sheet: " + err.Error()})
		return
	}

	if sheet.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "Access denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"sheet":    sheet,
			"items":    items,
			"formData": sheet.ToFormData(items),
		},
	})
}

// UpdateTestSheet перезаписывает поля листа; tech_reference неизменяем
func (api *TestSheetAPI) UpdateTestSheet(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	sheet, _, err := api.Sheets.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrSheetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Test sheet not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load test sheet: " + err.Error()})
		return
	}
	if sheet.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "Access denied"})
		return
	}

	var req SubmitSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request body: " + err.Error()})
		return
	}

	form, fieldErrors := validation.ValidateAndNormalize(req.FormData)
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Validation failed",
			"errors": fieldErrors,
		})
		return
	}

	updated, err := api.Sheets.Update(sheet.ID, form)
	if err != nil {
		if errors.Is(err, services.ErrReferenceImmutable) {
			c.JSON(http.StatusConflict, gin.H{"status": "error", "error": "Tech reference cannot be changed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to update test sheet: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": updated})
}

// DeleteTestSheet удаляет лист вместе со строками тестов (каскад)
func (api *TestSheetAPI) DeleteTestSheet(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	sheet, _, err := api.Sheets.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrSheetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Test sheet not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load test sheet: " + err.Error()})
		return
	}
	if sheet.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "Access denied"})
		return
	}

	if err := api.Sheets.Delete(sheet.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to delete test sheet: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
