package api

import (
	"errors"
	"net/http"

	"backend_nae/middleware"
	"backend_nae/models"
	"backend_nae/services"

	"github.com/gin-gonic/gin"
)

// DraftsAPI управляет черновиками формы, один слот на пользователя
type DraftsAPI struct {
	Drafts *services.DraftService
}

// NewDraftsAPI создает новый экземпляр DraftsAPI
func NewDraftsAPI(drafts *services.DraftService) *DraftsAPI {
	return &DraftsAPI{Drafts: drafts}
}

// RegisterDraftRoutes регистрирует маршруты черновиков
func (api *DraftsAPI) RegisterDraftRoutes(r *gin.RouterGroup) {
	drafts := r.Group("/drafts")
	{
		drafts.PUT("", api.SaveDraft)
		drafts.GET("", api.GetDraft)
		drafts.DELETE("", api.ClearDraft)
	}
}

// SaveDraft перезаписывает черновик текущего пользователя. Черновик не
// валидируется: он сохраняет незаконченный ввод как есть.
func (api *DraftsAPI) SaveDraft(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	var form models.TestSheetFormData
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request body: " + err.Error()})
		return
	}

	if err := api.Drafts.Save(c.Request.Context(), user.ID, form); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to save draft: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetDraft возвращает сохранённый черновик текущего пользователя
func (api *DraftsAPI) GetDraft(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	form, err := api.Drafts.Get(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrDraftNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Draft not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load draft: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": form})
}

// ClearDraft удаляет черновик текущего пользователя
func (api *DraftsAPI) ClearDraft(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	if err := api.Drafts.Clear(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to clear draft: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
