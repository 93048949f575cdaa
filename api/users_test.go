package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"backend_nae/models"
	"backend_nae/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsersOrderedByNumber(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "first@nae.co.za")
	env.registerAndLogin(t, "second@gmail.com")

	w := env.request(t, http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Email       string  `json:"email"`
			UserNumber  float64 `json:"user_number"`
			DisplayName string  `json:"display_name"`
		} `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "first@nae.co.za", resp.Data[0].Email)
	assert.Equal(t, float64(1), resp.Data[0].UserNumber)
	assert.Equal(t, "second@gmail.com", resp.Data[1].Email)

	// PasswordHash не попадает в ответ.
	assert.NotContains(t, w.Body.String(), "password")
}

func TestGetUserNotFound(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	w := env.request(t, http.MethodGet, "/api/users/no-such-id", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUserOnlySelf(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")
	env.registerAndLogin(t, "victim@gmail.com")

	var victim models.User
	require.NoError(t, env.DB.First(&victim, "email = ?", "victim@gmail.com").Error)

	// Чужую запись удалить нельзя.
	w := env.request(t, http.MethodDelete, "/api/users/"+victim.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var me models.User
	require.NoError(t, env.DB.First(&me, "email = ?", "tech@nae.co.za").Error)

	w = env.request(t, http.MethodDelete, "/api/users/"+me.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.User{}).Where("id = ?", me.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteUserRemovesSheets(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	sheetID := submitSheet(t, env, token, testutils.SampleFormData("TR-700"))

	var me models.User
	require.NoError(t, env.DB.First(&me, "email = ?", "tech@nae.co.za").Error)

	w := env.request(t, http.MethodDelete, "/api/users/"+me.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Лист не существует без владельца: вместе с учётной записью
	// уходят и листы, и их строки тестов.
	var sheets, items int64
	require.NoError(t, env.DB.Model(&models.TestSheet{}).Where("id = ?", sheetID).Count(&sheets).Error)
	assert.Zero(t, sheets)
	require.NoError(t, env.DB.Model(&models.TestItem{}).Where("test_sheet_id = ?", sheetID).Count(&items).Error)
	assert.Zero(t, items)
}
