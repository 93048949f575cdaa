package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"backend_nae/config"
	"backend_nae/models"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// CreateDatabaseIfNotExists создает базу данных, если она не существует
func CreateDatabaseIfNotExists() error {
	cfg := config.GetConfig()

	// Подключаемся к PostgreSQL без указания конкретной БД (к postgres по умолчанию)
	adminDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.SSLMode)

	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к PostgreSQL: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("не удалось проверить подключение к PostgreSQL: %w", err)
	}

	// Проверяем, существует ли база данных
	var exists bool
	query := "SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1);"
	if err := db.QueryRow(query, cfg.Database.Name).Scan(&exists); err != nil {
		return fmt.Errorf("ошибка при проверке существования базы данных: %w", err)
	}

	if exists {
		log.Printf("✅ База данных '%s' уже существует", cfg.Database.Name)
		return nil
	}

	createQuery := fmt.Sprintf("CREATE DATABASE %s;", cfg.Database.Name)
	if _, err := db.Exec(createQuery); err != nil {
		return fmt.Errorf("не удалось создать базу данных '%s': %w", cfg.Database.Name, err)
	}

	log.Printf("✅ База данных '%s' успешно создана", cfg.Database.Name)
	return nil
}

// ConnectDatabase инициализирует подключение к PostgreSQL
func ConnectDatabase() error {
	cfg := config.GetConfig()

	logMode := logger.Warn
	if cfg.App.Debug {
		logMode = logger.Info
	}

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	log.Println("✅ Успешно подключено к PostgreSQL")

	// Автомиграция моделей
	if err := AutoMigrate(DB); err != nil {
		return fmt.Errorf("ошибка автомиграции: %w", err)
	}

	// Шаблон тестов по умолчанию
	if err := SeedDefaultTemplate(DB); err != nil {
		return fmt.Errorf("ошибка создания шаблона по умолчанию: %w", err)
	}

	return nil
}

// GetDB возвращает экземпляр базы данных
func GetDB() *gorm.DB {
	return DB
}

// AutoMigrate выполняет автомиграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.TestTemplate{},
		&models.TestSheet{},
		&models.TestItem{},
		&models.Session{},
	)
	if err != nil {
		return err
	}

	log.Println("✅ Автомиграция моделей выполнена успешно")
	return nil
}

// SeedDefaultTemplate создает шаблон тестов по умолчанию, если его ещё нет.
// Шаблон содержит все 22 проверки в порядке формы.
func SeedDefaultTemplate(db *gorm.DB) error {
	var existing models.TestTemplate
	err := db.Where("is_default = ?", true).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	tpl := models.TestTemplate{
		Name:      "Standard Vehicle Test Sheet",
		IsDefault: true,
	}
	if err := tpl.SetItemKeys(models.TestItemKeys()); err != nil {
		return err
	}
	return db.Create(&tpl).Error
}
