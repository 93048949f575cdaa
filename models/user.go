package models

import (
	"time"
)

// User представляет пользователя системы. Регистрация разрешена только
// с двух почтовых доменов; профиль неполон, пока не заданы имя и фамилия.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"not null"` // Хеш не возвращается в JSON

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Последовательный отображаемый номер пользователя.
	UserNumber int `json:"user_number" gorm:"uniqueIndex;not null"`

	Sheets []TestSheet `json:"sheets,omitempty" gorm:"foreignKey:UserID"`
}

// TableName задает имя таблицы для модели User
func (User) TableName() string {
	return "users"
}

// FullName возвращает "Имя Фамилия" или пустую строку, если профиль пуст.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return ""
}
