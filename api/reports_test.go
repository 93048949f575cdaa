package api

import (
	"net/http"
	"strings"
	"testing"

	"backend_nae/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportPDF(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	id := submitSheet(t, env, token, testutils.SampleFormData("TR-100"))

	w := env.request(t, http.MethodGet, "/api/sheets/"+id+"/pdf", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Test_Sheet_TR-100.pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestExportExcel(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	id := submitSheet(t, env, token, testutils.SampleFormData("TR-100"))

	w := env.request(t, http.MethodGet, "/api/sheets/"+id+"/excel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Test_Sheet_TR-100.xlsx")
	// XLSX упакован как zip-архив, сигнатура PK.
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestExportForeignSheetForbidden(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.registerAndLogin(t, "owner@nae.co.za")
	intruder := env.registerAndLogin(t, "intruder@gmail.com")

	id := submitSheet(t, env, owner, testutils.SampleFormData("TR-100"))

	w := env.request(t, http.MethodGet, "/api/sheets/"+id+"/pdf", intruder, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRenderPDFFromFormData(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	// Предпросмотр: форма не сохраняется, документ строится на лету.
	w := env.request(t, http.MethodPost, "/api/pdf", token, gin.H{
		"formData": testutils.SampleFormData("TR-PREVIEW"),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Contains(t, w.Header().Get("Content-Disposition"), "Test_Sheet_TR-PREVIEW.pdf")
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	// Лист не появился в базе.
	listed := env.request(t, http.MethodGet, "/api/sheets", token, nil)
	assert.NotContains(t, listed.Body.String(), "TR-PREVIEW")
}

func TestRenderPDFValidatesFormData(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	w := env.request(t, http.MethodPost, "/api/pdf", token, gin.H{
		"formData": gin.H{"customer": "Exxaro"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderPDFRequiresInput(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	w := env.request(t, http.MethodPost, "/api/pdf", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "formData or html")
}

func TestRenderPDFHTMLWithoutService(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	// Внешний сервис рендеринга не настроен: ошибка шлюза.
	w := env.request(t, http.MethodPost, "/api/pdf", token, gin.H{
		"html": "<html><body>sheet</body></html>",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
