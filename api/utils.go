package api

import (
	"backend_nae/models"
	"backend_nae/validation"
)

// displayName возвращает отображаемое имя пользователя: "Имя Фамилия",
// а при пустом профиле запасной вариант, выведенный из email.
func displayName(user *models.User) string {
	if user == nil {
		return "User"
	}
	if name := user.FullName(); name != "" {
		return name
	}
	return validation.DisplayNameFromEmail(user.Email)
}
