package testutils

import (
	"backend_nae/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB создает и настраивает тестовую базу данных в памяти
// Эта функция должна использоваться во всех тестах для обеспечения консистентности
func SetupTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Выполняем миграции в правильном порядке
	err = db.AutoMigrate(
		&models.User{},
		&models.TestTemplate{},
		&models.TestSheet{},
		&models.TestItem{},
		&models.Session{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// SetupTestDBWithTemplate дополнительно создает шаблон тестов по умолчанию.
func SetupTestDBWithTemplate() (*gorm.DB, error) {
	db, err := SetupTestDB()
	if err != nil {
		return nil, err
	}

	tpl := models.TestTemplate{
		Name:      "Standard Vehicle Test Sheet",
		IsDefault: true,
	}
	if err := tpl.SetItemKeys(models.TestItemKeys()); err != nil {
		return nil, err
	}
	if err := db.Create(&tpl).Error; err != nil {
		return nil, err
	}
	return db, nil
}

// CreateTestUser создает тестового пользователя с допустимым доменом почты.
func CreateTestUser(db *gorm.DB, email string) (*models.User, error) {
	if email == "" {
		email = "tech@nae.co.za"
	}

	var maxNumber int
	if err := db.Model(&models.User{}).Select("COALESCE(MAX(user_number), 0)").Scan(&maxNumber).Error; err != nil {
		return nil, err
	}

	user := &models.User{
		ID:         uuid.NewString(),
		Email:      email,
		FirstName:  "Test",
		LastName:   "Technician",
		UserNumber: maxNumber + 1,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// SampleFormData возвращает валидную форму тест-листа для тестов.
func SampleFormData(techRef string) models.TestSheetFormData {
	return models.TestSheetFormData{
		TechReference:  techRef,
		AdminReference: "ADM-" + techRef,
		FormType:       models.FormTypeStandard,
		Instruction:    "Installation",
		StartTime:      "2026-08-01T08:00",
		EndTime:        "2026-08-01T10:30",
		Customer:       "Anglo American",
		PlantName:      "Komatsu 930E",
		VehicleMake:    "Komatsu",
		VehicleModel:   "930E",
		VehicleVoltage: "24V",
		UnitsReplaced:  "No",
		SerialEsn:      "ESN-0042",
		Administrator:  "Site Admin",
		TechnicianName: "Test Technician",
		Items: map[string]models.TestItemEntry{
			"horn":   {Status: models.StatusWorking},
			"lights": {Status: models.StatusWorking, Comment: "LED bar replaced"},
		},
		EpsLinked:    models.StatusNA,
		PduInstalled: models.PduNotInstalled,
	}
}
