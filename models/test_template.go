package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// TestTemplate представляет именованный упорядоченный список тестов,
// которым заполняется новый тест-лист. Не более одного шаблона по умолчанию.
type TestTemplate struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `json:"name" gorm:"uniqueIndex;not null;type:varchar(100)"`

	// Ключи тестов в порядке отображения, JSON-массив строк.
	Items string `json:"-" gorm:"type:text;not null"`

	IsDefault bool `json:"is_default" gorm:"default:false"`
}

// TableName задает имя таблицы для модели TestTemplate
func (TestTemplate) TableName() string {
	return "test_templates"
}

// ItemKeys возвращает ключи тестов шаблона в сохранённом порядке.
func (tt *TestTemplate) ItemKeys() ([]string, error) {
	var keys []string
	if tt.Items == "" {
		return keys, nil
	}
	if err := json.Unmarshal([]byte(tt.Items), &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// SetItemKeys сериализует ключи тестов в поле Items.
func (tt *TestTemplate) SetItemKeys(keys []string) error {
	data, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	tt.Items = string(data)
	return nil
}

// DefaultTestTemplate возвращает шаблон по умолчанию.
func DefaultTestTemplate(db *gorm.DB) (*TestTemplate, error) {
	var tpl TestTemplate
	if err := db.Where("is_default = ?", true).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}
