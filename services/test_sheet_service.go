package services

import (
	"errors"
	"fmt"
	"strings"

	"backend_nae/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ошибки слоя сохранения тест-листов.
var (
	ErrSheetNotFound = errors.New("test sheet not found")
	// ErrDuplicateReference возвращается при нарушении уникальности
	// tech_reference и отображается в конфликт, а не в общую ошибку.
	ErrDuplicateReference = errors.New("duplicate tech reference")
	// ErrReferenceImmutable возвращается при попытке сменить
	// tech_reference уже сохранённого листа.
	ErrReferenceImmutable = errors.New("tech reference is immutable")
)

// TestSheetService сохраняет агрегат тест-листа: лист и его строки
// test_items создаются и удаляются в одной транзакции, сирот не остаётся.
type TestSheetService struct {
	db     *gorm.DB
	crypto *CryptoService
}

// NewTestSheetService создает новый экземпляр TestSheetService
func NewTestSheetService(db *gorm.DB, crypto *CryptoService) *TestSheetService {
	return &TestSheetService{db: db, crypto: crypto}
}

// Create сохраняет новый лист с проверками из шаблона по умолчанию,
// слитыми со статусами формы. Подпись шифруется перед записью.
func (s *TestSheetService) Create(form models.TestSheetFormData, userID, signature string) (*models.TestSheet, error) {
	sheet := form.ToSheet()
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	sheet.UserID = userID

	if signature != "" {
		encrypted, err := s.crypto.EncryptString(signature)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt signature: %w", err)
		}
		sheet.AdministratorSignature = encrypted
	}

	keys, err := s.templateKeys()
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Дубликат бизнес-ключа определяем заранее, чтобы отдать
		// осмысленный конфликт вместо ошибки драйвера.
		var count int64
		if err := tx.Model(&models.TestSheet{}).Where("tech_reference = ?", sheet.TechReference).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateReference
		}

		if err := tx.Create(sheet).Error; err != nil {
			return err
		}

		items := buildSheetItems(sheet.ID, keys, form)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicateError(err) {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	return sheet, nil
}

// buildSheetItems разворачивает карты формы в строки test_items:
// по одной строке на каждую проверку шаблона плюс шаги EPS-link,
// когда лист привязан к EPS.
func buildSheetItems(sheetID string, keys []string, form models.TestSheetFormData) []models.TestItem {
	var items []models.TestItem
	for i, key := range keys {
		name, ok := models.TestItemName(key)
		if !ok {
			continue
		}
		entry := form.Items[key]
		if entry.Status == "" {
			entry.Status = models.StatusNA
		}
		items = append(items, models.TestItem{
			TestSheetID: sheetID,
			Section:     models.ItemSectionTests,
			Key:         key,
			TestName:    name,
			Status:      entry.Status,
			Comment:     entry.Comment,
			Position:    i,
		})
	}

	if form.EpsLinked != "" && form.EpsLinked != models.StatusNA {
		for i, def := range models.EpsStepDefs {
			entry := form.EpsTests[def.Key]
			if entry.Status == "" {
				entry.Status = models.StatusNA
			}
			items = append(items, models.TestItem{
				TestSheetID: sheetID,
				Section:     models.ItemSectionEps,
				Key:         def.Key,
				TestName:    def.Name,
				Status:      entry.Status,
				Comment:     entry.Comment,
				Position:    i,
			})
		}
	}
	return items
}

// BuildPreviewItems строит строки тестов из формы без сохранения:
// для предпросмотра документа до отправки. Набор проверок фиксированный.
func BuildPreviewItems(form models.TestSheetFormData) []models.TestItem {
	return buildSheetItems("", models.TestItemKeys(), form)
}

// templateKeys возвращает ключи тестов шаблона по умолчанию;
// без шаблона в базе используется фиксированный набор из 22 проверок.
func (s *TestSheetService) templateKeys() ([]string, error) {
	tpl, err := models.DefaultTestTemplate(s.db)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TestItemKeys(), nil
		}
		return nil, err
	}
	keys, err := tpl.ItemKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to parse template items: %w", err)
	}
	if len(keys) == 0 {
		return models.TestItemKeys(), nil
	}
	return keys, nil
}

// Get возвращает лист с владельцем и строки тестов в порядке шаблона.
func (s *TestSheetService) Get(id string) (*models.TestSheet, []models.TestItem, error) {
	var sheet models.TestSheet
	if err := s.db.Preload("User").First(&sheet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSheetNotFound
		}
		return nil, nil, err
	}

	var items []models.TestItem
	if err := s.db.Where("test_sheet_id = ?", id).Order("section, position").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &sheet, items, nil
}

// ListByUser возвращает листы пользователя, новые первыми.
func (s *TestSheetService) ListByUser(userID string) ([]models.TestSheet, error) {
	var sheets []models.TestSheet
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&sheets).Error
	return sheets, err
}

// Update перезаписывает скалярные поля листа и статусы его проверок.
// tech_reference неизменяем после присвоения.
func (s *TestSheetService) Update(id string, form models.TestSheetFormData) (*models.TestSheet, error) {
	var existing models.TestSheet
	if err := s.db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSheetNotFound
		}
		return nil, err
	}
	if form.TechReference != existing.TechReference {
		return nil, ErrReferenceImmutable
	}

	updated := form.ToSheet()
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.AdministratorSignature = existing.AdministratorSignature

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(updated).Error; err != nil {
			return err
		}
		// Статусы проверок переписываются по ключу; строки, не
		// упомянутые формой, остаются как есть.
		for key, entry := range form.Items {
			if err := updateItemEntry(tx, id, models.ItemSectionTests, key, entry); err != nil {
				return err
			}
		}
		return syncEpsItems(tx, id, form)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// syncEpsItems приводит строки section="eps" к состоянию формы. Лист мог
// стать привязанным к EPS уже после создания: тогда строк шагов ещё нет,
// и каждый шаг обновляется либо досоздаётся. При отвязанном листе строки
// шагов удаляются.
func syncEpsItems(tx *gorm.DB, sheetID string, form models.TestSheetFormData) error {
	if form.EpsLinked == "" || form.EpsLinked == models.StatusNA {
		return tx.Where("test_sheet_id = ? AND section = ?", sheetID, models.ItemSectionEps).
			Delete(&models.TestItem{}).Error
	}

	for i, def := range models.EpsStepDefs {
		entry := form.EpsTests[def.Key]
		if entry.Status == "" {
			entry.Status = models.StatusNA
		}
		res := tx.Model(&models.TestItem{}).
			Where("test_sheet_id = ? AND section = ? AND key = ?", sheetID, models.ItemSectionEps, def.Key).
			Updates(map[string]interface{}{"status": entry.Status, "comment": entry.Comment})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			item := models.TestItem{
				TestSheetID: sheetID,
				Section:     models.ItemSectionEps,
				Key:         def.Key,
				TestName:    def.Name,
				Status:      entry.Status,
				Comment:     entry.Comment,
				Position:    i,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func updateItemEntry(tx *gorm.DB, sheetID, section, key string, entry models.TestItemEntry) error {
	if entry.Status == "" {
		entry.Status = models.StatusNA
	}
	return tx.Model(&models.TestItem{}).
		Where("test_sheet_id = ? AND section = ? AND key = ?", sheetID, section, key).
		Updates(map[string]interface{}{"status": entry.Status, "comment": entry.Comment}).Error
}

// Delete удаляет лист вместе со строками тестов. Каскад продублирован
// явным удалением: SQLite в тестах не всегда применяет внешние ключи.
func (s *TestSheetService) Delete(id string) error {
	var sheet models.TestSheet
	if err := s.db.First(&sheet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSheetNotFound
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_sheet_id = ?", id).Delete(&models.TestItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sheet).Error
	})
}

// Signature возвращает расшифрованную подпись администратора.
func (s *TestSheetService) Signature(sheet *models.TestSheet) (string, error) {
	return s.crypto.DecryptString(sheet.AdministratorSignature)
}

// isDuplicateError распознает нарушение уникальности у разных драйверов.
func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
