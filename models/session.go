package models

import (
	"time"
)

// Session представляет строку сессии: непрозрачный идентификатор,
// сериализованное содержимое и срок действия в epoch-секундах.
// Истёкшая сессия недействительна сразу, ещё до физической очистки.
type Session struct {
	SID    string `json:"sid" gorm:"primaryKey;column:sid;type:varchar(36)"`
	Sess   string `json:"sess" gorm:"type:text;not null"`
	Expire int64  `json:"expire" gorm:"not null;index"`
}

// TableName задает имя таблицы для модели Session
func (Session) TableName() string {
	return "sessions"
}

// Expired проверяет срок действия сессии по настенным часам.
func (s *Session) Expired(now time.Time) bool {
	return s.Expire <= now.Unix()
}
