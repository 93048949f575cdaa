package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend_nae/middleware"
	"backend_nae/services"
	"backend_nae/testutils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret-for-api-tests-0123456789"

// testEnv поднимает полный стек API поверх sqlite в памяти, как в боевой сборке,
// но без Redis и внешних сервисов.
type testEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	Drafts *services.DraftService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutils.SetupTestDBWithTemplate()
	require.NoError(t, err)

	crypto, err := services.NewCryptoService("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	sheets := services.NewTestSheetService(db, crypto)
	reports := services.NewReportService()
	drafts := services.NewDraftService(services.NewMemoryDraftStore())
	render := services.NewRenderClient("", 0, nil)
	notify := services.NewNotificationService("", "", nil)
	sessions := services.NewSessionService(db, time.Hour, nil)

	auth := middleware.NewAuthMiddleware(db, sessions, testJWTSecret)

	router := gin.New()
	public := router.Group("/api")
	NewAuthAPI(db, sessions, testJWTSecret, "test", time.Hour).RegisterAuthRoutes(public, auth)

	protected := router.Group("/api")
	protected.Use(auth.RequireAuth())
	NewTestSheetAPI(sheets, drafts, notify).RegisterTestSheetRoutes(protected)
	NewReportsAPI(sheets, reports, render, t.TempDir()).RegisterReportRoutes(protected)
	NewDraftsAPI(drafts).RegisterDraftRoutes(protected)
	NewTestTemplatesAPI(db).RegisterTemplateRoutes(protected)
	NewUsersAPI(db).RegisterUserRoutes(protected)

	return &testEnv{DB: db, Router: router, Drafts: drafts}
}

// request выполняет запрос к тестовому роутеру; body сериализуется в JSON.
func (env *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

// registerAndLogin создает пользователя и возвращает токен для запросов.
func (env *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	w := env.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":      email,
		"password":   "correct-horse",
		"first_name": "Test",
		"last_name":  "Technician",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}
