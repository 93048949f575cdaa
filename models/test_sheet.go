package models

import (
	"time"
)

// TestSheet представляет тест-лист, основную запись о монтаже/инспекции
// оборудования на технике. Агрегат: дочерние TestItem удаляются каскадно.
type TestSheet struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Референсы: tech_reference служит уникальным бизнес-ключом, неизменяемым
	// после присвоения; admin_reference остается свободным текстом.
	TechReference  string `json:"techReference" gorm:"uniqueIndex;not null;type:varchar(100)"`
	AdminReference string `json:"adminReference" gorm:"not null"`

	// Классификация
	FormType    string `json:"formType" gorm:"not null;type:varchar(50)"`
	Instruction string `json:"instruction" gorm:"type:varchar(50)"`

	// Время работ. Лист "в работе", пока end_time пустой.
	// Формат значений: "2006-01-02T15:04" (datetime-local с клиента).
	StartTime string `json:"startTime" gorm:"not null;type:varchar(20)"`
	EndTime   string `json:"endTime" gorm:"type:varchar(20)"`

	// Заказчик и площадка
	Customer  string `json:"customer" gorm:"not null"`
	PlantName string `json:"plantName" gorm:"not null"`

	// Техника
	VehicleMake    string `json:"vehicleMake"`
	VehicleModel   string `json:"vehicleModel"`
	VehicleVoltage string `json:"vehicleVoltage" gorm:"type:varchar(10)"`

	// Серийные номера устройств. "Старые" номера имеют смысл только
	// при units_replaced = "Yes"; отчёты их иначе игнорируют.
	UnitsReplaced string `json:"unitsReplaced" gorm:"type:varchar(10)"`
	SerialEsn     string `json:"serialEsn"`
	OldSerialEsn  string `json:"oldSerialEsn"`
	SimID         string `json:"simId"`
	OldSimID      string `json:"oldSimId"`
	IzwiSerial    string `json:"izwiSerial"`
	OldIzwiSerial string `json:"oldIzwiSerial"`
	EpsSerial     string `json:"epsSerial"`
	OldEpsSerial  string `json:"oldEpsSerial"`

	// EPS-link: пять под-тестов актуальны только при eps_linked != "N/A".
	// Сами шаги хранятся в test_items с section = "eps".
	EpsLinked string `json:"epsLinked" gorm:"type:varchar(10)"`

	// PDU: показания напряжения имеют смысл только при "Installed".
	PduInstalled       string `json:"pduInstalled" gorm:"type:varchar(20)"`
	PduVoltageParked   string `json:"pduVoltageParked"`
	PduVoltageIgnition string `json:"pduVoltageIgnition"`
	PduVoltageIdle     string `json:"pduVoltageIdle"`

	// Ответственные
	Administrator       string `json:"administrator" gorm:"not null"`
	TechnicianName      string `json:"technicianName"`
	TechnicianJobCardNo string `json:"technicianJobCardNo"`
	OdometerEngineHours string `json:"odometerEngineHours"`

	// Подпись администратора хранится зашифрованной (AES-GCM, base64).
	AdministratorSignature string `json:"-" gorm:"column:administrator_signature;type:text"`

	Notes   string `json:"notes" gorm:"type:text"`
	IsDraft bool   `json:"isDraft" gorm:"default:false"`

	// Владелец: лист не существует без создавшего его пользователя.
	UserID string `json:"userId" gorm:"not null;index;type:varchar(36)"`
	User   *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`

	Items []TestItem `json:"items,omitempty" gorm:"foreignKey:TestSheetID;constraint:OnDelete:CASCADE"`
}

// TableName задает имя таблицы для модели TestSheet
func (TestSheet) TableName() string {
	return "test_sheets"
}

// InProgress сообщает, не завершён ли ещё лист.
func (ts *TestSheet) InProgress() bool {
	return ts.EndTime == ""
}

// TestItem представляет одну проверенную подсистему (гудок, GPS и т.д.).
// Нормализованные строки служат авторитетным представлением тестов листа;
// карта полей формы собирается из них как проекция.
type TestItem struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`

	TestSheetID string `json:"test_sheet_id" gorm:"not null;index;type:varchar(36)"`

	// Секция: "tests" для пунктов шаблона, "eps" для шагов EPS-link.
	Section string `json:"section" gorm:"not null;default:'tests';type:varchar(10)"`

	Key      string `json:"key" gorm:"not null;type:varchar(50)"`
	TestName string `json:"testName" gorm:"not null"`
	Status   string `json:"status" gorm:"not null;default:'N/A';type:varchar(20)"`
	Comment  string `json:"comment"`
	Position int    `json:"position" gorm:"not null;default:0"`
}

// TableName задает имя таблицы для модели TestItem
func (TestItem) TableName() string {
	return "test_items"
}
