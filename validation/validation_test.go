package validation

import (
	"testing"

	"backend_nae/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() models.TestSheetFormData {
	return models.TestSheetFormData{
		TechReference:  "TR-100",
		AdminReference: "ADM-100",
		FormType:       models.FormTypeStandard,
		StartTime:      "2026-08-01T08:00",
		EndTime:        "2026-08-01T10:30",
		Customer:       "Anglo American",
		PlantName:      "Komatsu 930E",
		Administrator:  "Site Admin",
	}
}

func TestEmailValidationError(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{"Empty email", "", MsgEmailRequired},
		{"No at sign", "techexample.com", MsgEmailInvalid},
		{"No TLD", "tech@example", MsgEmailInvalid},
		{"Whitespace in address", "te ch@nae.co.za", MsgEmailInvalid},
		{"Wrong domain", "tech@example.com", MsgEmailDomain},
		{"Company domain", "tech@nae.co.za", ""},
		{"Gmail domain", "tech@gmail.com", ""},
		{"Company domain uppercase", "Tech@NAE.CO.ZA", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EmailValidationError(tt.email))
		})
	}
}

func TestEmailShapeErrorPrecedesDomainError(t *testing.T) {
	// Бесформенный адрес не должен получать сообщение о домене,
	// даже если домен в нём тоже чужой.
	assert.Equal(t, MsgEmailInvalid, EmailValidationError("not-an-email"))
}

func TestDisplayNameFromEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{"Empty email", "", "User"},
		{"Single word", "john@nae.co.za", "John"},
		{"Dot separated", "john.smith@nae.co.za", "John Smith"},
		{"Underscore separated", "john_smith@gmail.com", "John Smith"},
		{"Mixed separators", "j.van_der.merwe@nae.co.za", "J Van Der Merwe"},
		{"Empty local part", "@nae.co.za", "User"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayNameFromEmail(tt.email))
		})
	}
}

func TestNeedsProfileSetup(t *testing.T) {
	assert.False(t, NeedsProfileSetup(nil))
	assert.True(t, NeedsProfileSetup(&models.User{}))
	assert.True(t, NeedsProfileSetup(&models.User{FirstName: "John"}))
	assert.True(t, NeedsProfileSetup(&models.User{LastName: "Smith"}))
	assert.False(t, NeedsProfileSetup(&models.User{FirstName: "John", LastName: "Smith"}))
}

func TestValidateAndNormalizeFillsAllItems(t *testing.T) {
	form := validForm()
	form.Items = map[string]models.TestItemEntry{
		"horn": {Status: models.StatusWorking},
	}

	normalized, errs := ValidateAndNormalize(form)
	require.Empty(t, errs)

	// Все 22 проверки присутствуют, незаполненные со статусом "N/A".
	assert.Len(t, normalized.Items, len(models.TestItemDefs))
	assert.Equal(t, models.StatusWorking, normalized.Items["horn"].Status)
	assert.Equal(t, models.StatusNA, normalized.Items["gps"].Status)
	assert.Equal(t, models.StatusNA, normalized.Items["mdvr"].Status)

	assert.Len(t, normalized.EpsTests, len(models.EpsStepDefs))
	assert.Equal(t, "No", normalized.UnitsReplaced)
	assert.Equal(t, models.StatusNA, normalized.EpsLinked)
	assert.Equal(t, models.PduNotInstalled, normalized.PduInstalled)
}

func TestValidateAndNormalizeRequiredFields(t *testing.T) {
	normalized, errs := ValidateAndNormalize(models.TestSheetFormData{})
	require.NotEmpty(t, errs)

	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, f := range []string{"techReference", "adminReference", "customer", "plantName", "administrator", "startTime", "formType"} {
		assert.True(t, fields[f], "expected error for field %s", f)
	}

	// При ошибке форма возвращается без нормализации.
	assert.Nil(t, normalized.Items)
}

func TestValidateAndNormalizeTrimsWhitespace(t *testing.T) {
	form := validForm()
	form.TechReference = "  TR-100  "
	form.Customer = " Anglo American "

	normalized, errs := ValidateAndNormalize(form)
	require.Empty(t, errs)
	assert.Equal(t, "TR-100", normalized.TechReference)
	assert.Equal(t, "Anglo American", normalized.Customer)
}

func TestValidateAndNormalizeRejectsBadValues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *models.TestSheetFormData)
		badField string
	}{
		{
			name:     "Unknown form type",
			mutate:   func(f *models.TestSheetFormData) { f.FormType = "Quick Check" },
			badField: "formType",
		},
		{
			name:     "Unknown vehicle voltage",
			mutate:   func(f *models.TestSheetFormData) { f.VehicleVoltage = "48V" },
			badField: "vehicleVoltage",
		},
		{
			name:     "Invalid start time",
			mutate:   func(f *models.TestSheetFormData) { f.StartTime = "01/08/2026 08:00" },
			badField: "startTime",
		},
		{
			name:     "End before start",
			mutate:   func(f *models.TestSheetFormData) { f.EndTime = "2026-08-01T07:00" },
			badField: "endTime",
		},
		{
			name: "Unknown test item",
			mutate: func(f *models.TestSheetFormData) {
				f.Items = map[string]models.TestItemEntry{"hooter": {Status: models.StatusWorking}}
			},
			badField: "hooter",
		},
		{
			name: "Invalid item status",
			mutate: func(f *models.TestSheetFormData) {
				f.Items = map[string]models.TestItemEntry{"horn": {Status: "Broken"}}
			},
			badField: "horn",
		},
		{
			name: "Unknown EPS step",
			mutate: func(f *models.TestSheetFormData) {
				f.EpsTests = map[string]models.TestItemEntry{"epsTrip9": {Status: models.StatusWorking}}
			},
			badField: "epsTrip9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			_, errs := ValidateAndNormalize(form)
			require.NotEmpty(t, errs)

			found := false
			for _, e := range errs {
				if e.Field == tt.badField {
					found = true
				}
			}
			assert.True(t, found, "expected error for field %s, got %v", tt.badField, errs)
		})
	}
}

func TestValidateAndNormalizeKeepsStatuses(t *testing.T) {
	form := validForm()
	form.EpsLinked = "Yes"
	form.EpsTests = map[string]models.TestItemEntry{
		"epsPowerOn": {Status: models.StatusWorking},
		"epsTrip1":   {Status: models.StatusFaulty, Comment: "lock relay stuck"},
	}

	normalized, errs := ValidateAndNormalize(form)
	require.Empty(t, errs)
	assert.Equal(t, models.StatusWorking, normalized.EpsTests["epsPowerOn"].Status)
	assert.Equal(t, models.StatusFaulty, normalized.EpsTests["epsTrip1"].Status)
	assert.Equal(t, "lock relay stuck", normalized.EpsTests["epsTrip1"].Comment)
	assert.Equal(t, models.StatusNA, normalized.EpsTests["epsLockCancel2"].Status)
}
