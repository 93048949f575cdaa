package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"backend_nae/middleware"
	"backend_nae/models"
	"backend_nae/services"
	"backend_nae/validation"

	"github.com/gin-gonic/gin"
)

// ReportsAPI управляет экспортом тест-листов в PDF и Excel
type ReportsAPI struct {
	Sheets     *services.TestSheetService
	Reports    *services.ReportService
	Render     *services.RenderClient
	ReportsDir string
}

// NewReportsAPI создает новый экземпляр ReportsAPI
func NewReportsAPI(sheets *services.TestSheetService, reports *services.ReportService, render *services.RenderClient, reportsDir string) *ReportsAPI {
	return &ReportsAPI{
		Sheets:     sheets,
		Reports:    reports,
		Render:     render,
		ReportsDir: reportsDir,
	}
}

// RenderPDFRequest представляет запрос на генерацию PDF: либо данные
// формы (документ строится локально), либо сырой HTML для внешнего
// сервиса рендеринга.
type RenderPDFRequest struct {
	FormData   *models.TestSheetFormData `json:"formData,omitempty"`
	HTML       string                    `json:"html,omitempty"`
	Options    map[string]interface{}    `json:"options,omitempty"`
	Filename   string                    `json:"filename,omitempty"`
	SaveToDisk bool                      `json:"saveToDisk,omitempty"`
}

// RegisterReportRoutes регистрирует маршруты экспорта
func (api *ReportsAPI) RegisterReportRoutes(r *gin.RouterGroup) {
	r.GET("/sheets/:id/pdf", api.ExportPDF)
	r.GET("/sheets/:id/excel", api.ExportExcel)
	r.POST("/pdf", api.RenderPDF)
}

// loadOwnedSheet загружает лист и проверяет владельца.
func (api *ReportsAPI) loadOwnedSheet(c *gin.Context) (*models.TestSheet, []models.TestItem, bool) {
	user := middleware.GetCurrentUser(c)

	sheet, items, err := api.Sheets.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrSheetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Test sheet not found"})
			return nil, nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to load test sheet: " + err.Error()})
		return nil, nil, false
	}
	if sheet.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "Access denied"})
		return nil, nil, false
	}
	return sheet, items, true
}

// adminDisplayName возвращает отображаемое имя владельца листа.
func adminDisplayName(sheet *models.TestSheet) string {
	if sheet.User != nil {
		return displayName(sheet.User)
	}
	return "User"
}

// ExportPDF отдает постраничный PDF тест-листа
func (api *ReportsAPI) ExportPDF(c *gin.Context) {
	sheet, items, ok := api.loadOwnedSheet(c)
	if !ok {
		return
	}

	data, err := api.Reports.BuildPDF(sheet, items, adminDisplayName(sheet))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to build PDF: " + err.Error()})
		return
	}

	filename := services.PDFFileName(sheet.TechReference)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ExportExcel отдает плоскую Excel-книгу тест-листа
func (api *ReportsAPI) ExportExcel(c *gin.Context) {
	sheet, items, ok := api.loadOwnedSheet(c)
	if !ok {
		return
	}

	data, err := api.Reports.BuildExcel(sheet, items, adminDisplayName(sheet))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to build workbook: " + err.Error()})
		return
	}

	filename := services.ExcelFileName(sheet.TechReference)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// RenderPDF строит PDF из данных формы или пересылает сырой HTML во
// внешний сервис рендеринга. При saveToDisk документ дополнительно
// сохраняется на сервере.
func (api *ReportsAPI) RenderPDF(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	var req RenderPDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request body: " + err.Error()})
		return
	}

	var data []byte
	var filename string

	switch {
	case req.FormData != nil:
		form, fieldErrors := validation.ValidateAndNormalize(*req.FormData)
		if len(fieldErrors) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  "Validation failed",
				"errors": fieldErrors,
			})
			return
		}

		// Временный лист, без сохранения: предпросмотр перед отправкой.
		sheet := form.ToSheet()
		items := services.BuildPreviewItems(form)

		var err error
		data, err = api.Reports.BuildPDF(sheet, items, displayName(user))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to build PDF: " + err.Error()})
			return
		}
		filename = services.PDFFileName(sheet.TechReference)

	case req.HTML != "":
		var err error
		data, err = api.Render.RenderHTML(c.Request.Context(), req.HTML, req.Options)
		if err != nil {
			// Ошибка восходящего сервиса передается как есть.
			c.JSON(http.StatusBadGateway, gin.H{"status": "error", "error": err.Error()})
			return
		}
		filename = "document.pdf"

	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Either formData or html is required"})
		return
	}

	if req.Filename != "" {
		filename = req.Filename
	}

	if req.SaveToDisk {
		if err := os.MkdirAll(api.ReportsDir, 0755); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to create reports directory: " + err.Error()})
			return
		}
		path := filepath.Join(api.ReportsDir, filepath.Base(filename))
		if err := os.WriteFile(path, data, 0644); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to save report: " + err.Error()})
			return
		}
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
