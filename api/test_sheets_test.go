package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"backend_nae/models"
	"backend_nae/services"
	"backend_nae/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sheetResponse struct {
	Data struct {
		Sheet    models.TestSheet         `json:"sheet"`
		Items    []models.TestItem        `json:"items"`
		FormData models.TestSheetFormData `json:"formData"`
	} `json:"data"`
}

func submitSheet(t *testing.T, env *testEnv, token string, form models.TestSheetFormData) string {
	t.Helper()

	w := env.request(t, http.MethodPost, "/api/sheets", token, gin.H{"formData": form})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func TestSubmitSheetCreatesAllItems(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	// Минимально заполненная форма: статусы не трогаем вовсе.
	form := testutils.SampleFormData("TR-100")
	form.Items = nil

	id := submitSheet(t, env, token, form)

	w := env.request(t, http.MethodGet, "/api/sheets/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp sheetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Все 22 проверки созданы со статусом "N/A".
	require.Len(t, resp.Data.Items, 22)
	for _, item := range resp.Data.Items {
		assert.Equal(t, models.StatusNA, item.Status)
	}
	assert.Equal(t, "TR-100", resp.Data.Sheet.TechReference)
	assert.Equal(t, models.StatusNA, resp.Data.FormData.Items["horn"].Status)
}

func TestSubmitSheetValidationErrors(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	w := env.request(t, http.MethodPost, "/api/sheets", token, gin.H{
		"formData": models.TestSheetFormData{Customer: "Exxaro"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	fields := make(map[string]bool)
	for _, e := range resp.Errors {
		fields[e.Field] = true
	}
	assert.True(t, fields["techReference"])
	assert.True(t, fields["startTime"])
	assert.False(t, fields["customer"])
}

func TestSubmitSheetDuplicateReference(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	submitSheet(t, env, token, testutils.SampleFormData("TR-200"))

	w := env.request(t, http.MethodPost, "/api/sheets", token, gin.H{
		"formData": testutils.SampleFormData("TR-200"),
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestSubmitSheetClearsDraft(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	w := env.request(t, http.MethodPut, "/api/drafts", token, testutils.SampleFormData("TR-300"))
	require.Equal(t, http.StatusOK, w.Code)

	submitSheet(t, env, token, testutils.SampleFormData("TR-300"))

	w = env.request(t, http.MethodGet, "/api/drafts", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSheetsOnlyOwn(t *testing.T) {
	env := setupTestEnv(t)
	mine := env.registerAndLogin(t, "mine@nae.co.za")
	other := env.registerAndLogin(t, "other@gmail.com")

	submitSheet(t, env, mine, testutils.SampleFormData("TR-400"))
	submitSheet(t, env, other, testutils.SampleFormData("TR-401"))

	w := env.request(t, http.MethodGet, "/api/sheets", mine, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data  []models.TestSheet `json:"data"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "TR-400", resp.Data[0].TechReference)
}

func TestGetSheetForeignOwnerForbidden(t *testing.T) {
	env := setupTestEnv(t)
	owner := env.registerAndLogin(t, "owner@nae.co.za")
	intruder := env.registerAndLogin(t, "intruder@gmail.com")

	id := submitSheet(t, env, owner, testutils.SampleFormData("TR-500"))

	w := env.request(t, http.MethodGet, "/api/sheets/"+id, intruder, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodDelete, "/api/sheets/"+id, intruder, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateSheetImmutableReference(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	id := submitSheet(t, env, token, testutils.SampleFormData("TR-600"))

	w := env.request(t, http.MethodPut, "/api/sheets/"+id, token, gin.H{
		"formData": testutils.SampleFormData("TR-601"),
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Tech reference cannot be changed")
}

func TestUpdateSheetChangesStatuses(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	id := submitSheet(t, env, token, testutils.SampleFormData("TR-700"))

	form := testutils.SampleFormData("TR-700")
	form.Items["gps"] = models.TestItemEntry{Status: models.StatusFaulty, Comment: "no fix"}

	w := env.request(t, http.MethodPut, "/api/sheets/"+id, token, gin.H{"formData": form})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/sheets/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp sheetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusFaulty, resp.Data.FormData.Items["gps"].Status)
	assert.Equal(t, "no fix", resp.Data.FormData.Items["gps"].Comment)
}

func TestDeleteSheet(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	id := submitSheet(t, env, token, testutils.SampleFormData("TR-800"))

	w := env.request(t, http.MethodDelete, "/api/sheets/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/sheets/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var items int64
	require.NoError(t, env.DB.Model(&models.TestItem{}).Where("test_sheet_id = ?", id).Count(&items).Error)
	assert.Zero(t, items)
}

func TestDraftRoundTripOverAPI(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	form := testutils.SampleFormData("TR-900")
	form.Notes = "half-finished"

	w := env.request(t, http.MethodPut, "/api/drafts", token, form)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/drafts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.TestSheetFormData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TR-900", resp.Data.TechReference)
	assert.Equal(t, "half-finished", resp.Data.Notes)

	w = env.request(t, http.MethodDelete, "/api/drafts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/drafts", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Хранилище черновиков пусто и на уровне сервиса.
	_, err := env.Drafts.Get(context.Background(), "any")
	assert.ErrorIs(t, err, services.ErrDraftNotFound)
}
