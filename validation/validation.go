package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"backend_nae/models"
)

// FieldError представляет адресуемую ошибку валидации одного поля формы.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Сообщения проверки email. Тексты различают "обязательно", "некорректный
// адрес" и "запрещённый домен"; клиент показывает их как есть.
const (
	MsgEmailRequired = "Email is required"
	MsgEmailInvalid  = "Please enter a valid email address"
	MsgEmailDomain   = "Email domain is not allowed. Use your @nae.co.za or @gmail.com address"
)

// Базовая форма адреса; полноценный RFC-парсинг здесь не нужен.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// timeLayout задает формат значений start_time/end_time (datetime-local клиента).
const timeLayout = "2006-01-02T15:04"

// IsAllowedEmailDomain сообщает, допустим ли адрес: базовая форма email
// плюс регистронезависимое совпадение суффикса с одним из двух доменов.
func IsAllowedEmailDomain(email string) bool {
	if !emailShape.MatchString(email) {
		return false
	}
	lower := strings.ToLower(email)
	for _, domain := range models.AllowedEmailDomains {
		if strings.HasSuffix(lower, domain) {
			return true
		}
	}
	return false
}

// EmailValidationError возвращает сообщение об ошибке для адреса или пустую
// строку, если адрес допустим. Ошибка формы всегда предшествует ошибке
// домена: для бесформенного адреса домен не проверяется.
func EmailValidationError(email string) string {
	if email == "" {
		return MsgEmailRequired
	}
	if !emailShape.MatchString(email) {
		return MsgEmailInvalid
	}
	if !IsAllowedEmailDomain(email) {
		return MsgEmailDomain
	}
	return ""
}

// NeedsProfileSetup выводит неполноту профиля: пользователь аутентифицирован,
// но имя или фамилия не заданы. Чистая функция, пересчитывается каждый раз.
func NeedsProfileSetup(user *models.User) bool {
	if user == nil {
		return false
	}
	return user.FirstName == "" || user.LastName == ""
}

// DisplayNameFromEmail выводит отображаемое имя из адреса: локальная часть,
// "." и "_" заменяются пробелами, каждое слово с заглавной буквы.
// Используется только как запасной вариант, когда имя не задано.
func DisplayNameFromEmail(email string) string {
	if email == "" {
		return "User"
	}
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	if local == "" {
		return "User"
	}
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)
	words := strings.Fields(local)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "User"
	}
	return strings.Join(words, " ")
}

// ValidateAndNormalize проверяет сырые данные формы и возвращает либо
// нормализованную копию (обрезанные пробелы, полный набор проверок с
// дефолтным статусом "N/A"), либо список ошибок по полям. Никогда не
// применяется частично: при любой ошибке форма возвращается без изменений.
func ValidateAndNormalize(raw models.TestSheetFormData) (models.TestSheetFormData, []FieldError) {
	f := raw
	var errs []FieldError

	trim := func(s string) string { return strings.TrimSpace(s) }
	f.TechReference = trim(f.TechReference)
	f.AdminReference = trim(f.AdminReference)
	f.Customer = trim(f.Customer)
	f.PlantName = trim(f.PlantName)
	f.Administrator = trim(f.Administrator)
	f.StartTime = trim(f.StartTime)
	f.EndTime = trim(f.EndTime)

	// Обязательные поля общие для всех типов форм; на проверки жёстких
	// требований нет, лист можно сдать со статусами "N/A"/"Not Tested".
	required := []struct {
		field, value, message string
	}{
		{"techReference", f.TechReference, "Tech reference is required"},
		{"adminReference", f.AdminReference, "Admin reference is required"},
		{"customer", f.Customer, "Customer is required"},
		{"plantName", f.PlantName, "Plant name is required"},
		{"administrator", f.Administrator, "Administrator is required"},
		{"startTime", f.StartTime, "Start time is required"},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, FieldError{Field: r.field, Message: r.message})
		}
	}

	errs = append(errs, validateEnums(&f)...)
	errs = append(errs, validateTimes(&f)...)
	errs = append(errs, validateEntries(&f)...)

	if len(errs) > 0 {
		return raw, errs
	}

	// Нормализация: полный набор из 22 проверок, отсутствующие получают "N/A".
	items := make(map[string]models.TestItemEntry, len(models.TestItemDefs))
	for _, def := range models.TestItemDefs {
		entry, ok := f.Items[def.Key]
		if !ok || entry.Status == "" {
			entry.Status = models.StatusNA
		}
		items[def.Key] = entry
	}
	f.Items = items

	epsTests := make(map[string]models.TestItemEntry, len(models.EpsStepDefs))
	for _, def := range models.EpsStepDefs {
		entry, ok := f.EpsTests[def.Key]
		if !ok || entry.Status == "" {
			entry.Status = models.StatusNA
		}
		epsTests[def.Key] = entry
	}
	f.EpsTests = epsTests

	if f.UnitsReplaced == "" {
		f.UnitsReplaced = "No"
	}
	if f.EpsLinked == "" {
		f.EpsLinked = models.StatusNA
	}
	if f.PduInstalled == "" {
		f.PduInstalled = models.PduNotInstalled
	}

	return f, nil
}

func validateEnums(f *models.TestSheetFormData) []FieldError {
	var errs []FieldError
	check := func(field, value string, allowed []string) {
		if value == "" {
			return
		}
		for _, v := range allowed {
			if v == value {
				return
			}
		}
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("Invalid value %q", value)})
	}
	check("formType", f.FormType, models.FormTypes)
	check("instruction", f.Instruction, models.Instructions)
	check("vehicleVoltage", f.VehicleVoltage, models.VehicleVoltages)
	check("unitsReplaced", f.UnitsReplaced, models.YesNoNA)
	check("epsLinked", f.EpsLinked, models.YesNoNA)
	check("pduInstalled", f.PduInstalled, models.PduStates)
	if f.FormType == "" {
		errs = append(errs, FieldError{Field: "formType", Message: "Form type is required"})
	}
	return errs
}

func validateTimes(f *models.TestSheetFormData) []FieldError {
	var errs []FieldError
	var start, end time.Time
	var err error
	if f.StartTime != "" {
		if start, err = time.Parse(timeLayout, f.StartTime); err != nil {
			errs = append(errs, FieldError{Field: "startTime", Message: "Invalid start time"})
		}
	}
	if f.EndTime != "" {
		if end, err = time.Parse(timeLayout, f.EndTime); err != nil {
			errs = append(errs, FieldError{Field: "endTime", Message: "Invalid end time"})
		}
	}
	if len(errs) == 0 && f.StartTime != "" && f.EndTime != "" && end.Before(start) {
		errs = append(errs, FieldError{Field: "endTime", Message: "End time must not be before start time"})
	}
	return errs
}

func validateEntries(f *models.TestSheetFormData) []FieldError {
	var errs []FieldError

	known := make(map[string]bool, len(models.TestItemDefs))
	for _, def := range models.TestItemDefs {
		known[def.Key] = true
	}
	for key, entry := range f.Items {
		if !known[key] {
			errs = append(errs, FieldError{Field: key, Message: "Unknown test item"})
			continue
		}
		if entry.Status != "" && !models.IsValidItemStatus(entry.Status) {
			errs = append(errs, FieldError{Field: key, Message: fmt.Sprintf("Invalid status %q", entry.Status)})
		}
	}

	knownEps := make(map[string]bool, len(models.EpsStepDefs))
	for _, def := range models.EpsStepDefs {
		knownEps[def.Key] = true
	}
	for key, entry := range f.EpsTests {
		if !knownEps[key] {
			errs = append(errs, FieldError{Field: key, Message: "Unknown EPS test step"})
			continue
		}
		if entry.Status != "" && !models.IsValidItemStatus(entry.Status) {
			errs = append(errs, FieldError{Field: key, Message: fmt.Sprintf("Invalid status %q", entry.Status)})
		}
	}
	return errs
}
