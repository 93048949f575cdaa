package models

// Типы форм, доступные при создании нового тест-листа.
const (
	FormTypeStandard    = "Test Sheet"
	FormTypeStockRepair = "Test Sheet (Stock/Repair)"
	FormTypePumpPlant   = "Test Sheet (Pump/Plant)"
)

// FormTypes перечисляет допустимые типы форм.
var FormTypes = []string{FormTypeStandard, FormTypeStockRepair, FormTypePumpPlant}

// Instructions перечисляет допустимые типы работ.
var Instructions = []string{"Installation", "Repair", "Inspection", "Breakdown"}

// VehicleVoltages перечисляет допустимые напряжения бортовой сети.
var VehicleVoltages = []string{"12V", "24V"}

// Статусы проверки. Любое другое значение отклоняется валидацией, без приведения.
const (
	StatusWorking   = "Working"
	StatusFaulty    = "Faulty"
	StatusNA        = "N/A"
	StatusNotTested = "Not Tested"
)

var ItemStatuses = []string{StatusWorking, StatusFaulty, StatusNA, StatusNotTested}

// Состояния установки PDU (блока распределения питания).
const (
	PduInstalled    = "Installed"
	PduNotInstalled = "N/A"
)

var PduStates = []string{PduInstalled, PduNotInstalled}

// Значения для полей unitsReplaced и epsLinked.
var YesNoNA = []string{"Yes", "No", "N/A"}

// TestItemDef связывает ключ поля формы с отображаемым названием теста.
type TestItemDef struct {
	Key  string
	Name string
}

// TestItemDefs содержит фиксированный набор из 22 проверяемых подсистем, в порядке
// шаблона по умолчанию. Ключ комментария всегда "<Key>Comment".
var TestItemDefs = []TestItemDef{
	{Key: "horn", Name: "Horn"},
	{Key: "reverseSiren", Name: "Reverse Siren"},
	{Key: "lights", Name: "Lights"},
	{Key: "preAlarm", Name: "Pre-Alarm"},
	{Key: "seatbeltSwitch", Name: "Seatbelt Switch"},
	{Key: "lcd", Name: "LCD"},
	{Key: "gps", Name: "GPS"},
	{Key: "gsmSignal", Name: "GSM Signal"},
	{Key: "speedSignal", Name: "Speed Signal"},
	{Key: "rpmSignal", Name: "RPM Signal"},
	{Key: "ignitionInput", Name: "Ignition Input"},
	{Key: "starterCut", Name: "Starter Cut"},
	{Key: "buzzer", Name: "Buzzer"},
	{Key: "panicButton", Name: "Panic Button"},
	{Key: "tripSwitch", Name: "Trip Switch"},
	{Key: "batteryBackup", Name: "Battery Backup"},
	{Key: "antenna", Name: "Antenna"},
	{Key: "wiringHarness", Name: "Wiring Harness"},
	{Key: "fuelSensor", Name: "Fuel Sensor"},
	{Key: "canBus", Name: "CAN Bus"},
	{Key: "camera", Name: "Camera"},
	{Key: "mdvr", Name: "MDVR"},
}

// EpsStepDefs содержит пять фиксированных шагов проверки EPS-link, строго по порядку.
var EpsStepDefs = []TestItemDef{
	{Key: "epsPowerOn", Name: "Power On"},
	{Key: "epsTrip1", Name: "Trip 1"},
	{Key: "epsLockCancel1", Name: "Lock Cancel 1"},
	{Key: "epsTrip2", Name: "Trip 2"},
	{Key: "epsLockCancel2", Name: "Lock Cancel 2"},
}

// Customers содержит закрытый список заказчиков для выпадающего списка формы.
// Поле customer остаётся свободным текстом, список используется клиентом.
var Customers = []string{
	"Anglo American",
	"Exxaro",
	"Glencore",
	"Harmony Gold",
	"Kumba Iron Ore",
	"Seriti",
	"Sibanye-Stillwater",
	"South32",
}

// AllowedEmailDomains перечисляет единственные два почтовых домена, с которыми
// разрешена регистрация. Сравнение регистронезависимое, по суффиксу.
var AllowedEmailDomains = []string{"@nae.co.za", "@gmail.com"}

// DraftStorageKey задает префикс ключа черновика формы в хранилище черновиков.
// Полный ключ дополняется идентификатором пользователя.
const DraftStorageKey = "testsheet:draft:"

// Секции таблицы test_items.
const (
	ItemSectionTests = "tests"
	ItemSectionEps   = "eps"
)

// TestItemKeys возвращает ключи всех 22 тестов в порядке шаблона.
func TestItemKeys() []string {
	keys := make([]string, len(TestItemDefs))
	for i, def := range TestItemDefs {
		keys[i] = def.Key
	}
	return keys
}

// TestItemName возвращает отображаемое название теста по ключу.
func TestItemName(key string) (string, bool) {
	for _, def := range TestItemDefs {
		if def.Key == key {
			return def.Name, true
		}
	}
	for _, def := range EpsStepDefs {
		if def.Key == key {
			return def.Name, true
		}
	}
	return "", false
}

// IsValidItemStatus проверяет, входит ли статус в допустимый набор.
func IsValidItemStatus(status string) bool {
	for _, s := range ItemStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// contains проверяет вхождение значения в закрытый набор.
func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
