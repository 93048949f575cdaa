package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"backend_nae/models"
	"backend_nae/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRegisterEmailRules(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name           string
		email          string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Company domain accepted",
			email:          "tech@nae.co.za",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Gmail accepted",
			email:          "tech.two@gmail.com",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Malformed address",
			email:          "not-an-email",
			expectedStatus: http.StatusBadRequest,
			expectedError:  validation.MsgEmailInvalid,
		},
		{
			name:           "Foreign domain",
			email:          "tech@example.com",
			expectedStatus: http.StatusForbidden,
			expectedError:  validation.MsgEmailDomain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
				"email":    tt.email,
				"password": "correct-horse",
			})
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)

	body := gin.H{"email": "dup@nae.co.za", "password": "correct-horse"}
	w := env.request(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestRegisterAssignsSequentialUserNumbers(t *testing.T) {
	env := setupTestEnv(t)

	numbers := make([]float64, 0, 2)
	for _, email := range []string{"first@nae.co.za", "second@nae.co.za"} {
		w := env.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
			"email":    email,
			"password": "correct-horse",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data struct {
				User struct {
					UserNumber float64 `json:"user_number"`
				} `json:"user"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		numbers = append(numbers, resp.Data.User.UserNumber)
	}

	assert.Equal(t, float64(1), numbers[0])
	assert.Equal(t, float64(2), numbers[1])
}

func TestRegisterRetriesTakenUserNumber(t *testing.T) {
	env := setupTestEnv(t)
	env.registerAndLogin(t, "first@nae.co.za")

	// Соперник занимает вычисленный номер прямо перед вставкой: так
	// выглядит проигранная гонка двух одновременных регистраций.
	stolen := false
	err := env.DB.Callback().Create().Before("gorm:create").Register("take_user_number", func(tx *gorm.DB) {
		if stolen {
			return
		}
		user, ok := tx.Statement.Dest.(*models.User)
		if !ok || user.Email != "late@nae.co.za" {
			return
		}
		stolen = true
		rival := models.User{
			ID:           uuid.NewString(),
			Email:        "rival@nae.co.za",
			PasswordHash: "x",
			UserNumber:   user.UserNumber,
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)

	w := env.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "late@nae.co.za",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, stolen)

	// Повторная попытка получила следующий свободный номер.
	var resp struct {
		Data struct {
			User struct {
				UserNumber float64 `json:"user_number"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp.Data.User.UserNumber)
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	env.registerAndLogin(t, "tech@nae.co.za")

	w := env.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "tech@nae.co.za",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Неизвестный пользователь получает то же сообщение, что и неверный пароль.
	w = env.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "nobody@nae.co.za",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
}

func TestMeAndProfileFlow(t *testing.T) {
	env := setupTestEnv(t)

	// Регистрация без имени: профиль неполный, имя выводится из email.
	w := env.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "john.smith@nae.co.za",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "john.smith@nae.co.za",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Data struct {
			Token             string `json:"token"`
			NeedsProfileSetup bool   `json:"needs_profile_setup"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.True(t, login.Data.NeedsProfileSetup)
	token := login.Data.Token

	w = env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "John Smith")

	w = env.request(t, http.MethodPut, "/api/auth/profile", token, gin.H{
		"first_name": "Johannes",
		"last_name":  "Smit",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Johannes Smit")
	assert.Contains(t, w.Body.String(), `"needs_profile_setup":false`)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerAndLogin(t, "tech@nae.co.za")

	w := env.request(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Токен ещё не истёк, но сессии больше нет.
	w = env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/sheets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/api/sheets", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
