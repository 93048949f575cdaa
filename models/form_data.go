package models

import (
	"fmt"
	"strings"
)

// TestItemEntry хранит пару статус/комментарий одной проверки в данных формы.
type TestItemEntry struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// TestSheetFormData представляет форму тест-листа в том виде, в котором её
// собирает клиент. Скалярные поля денормализованы; карты Items и EpsTests
// являются проекцией строк test_items (те авторитетны после сохранения).
type TestSheetFormData struct {
	TechReference  string `json:"techReference"`
	AdminReference string `json:"adminReference"`
	FormType       string `json:"formType"`
	Instruction    string `json:"instruction"`

	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	Customer  string `json:"customer"`
	PlantName string `json:"plantName"`

	VehicleMake    string `json:"vehicleMake"`
	VehicleModel   string `json:"vehicleModel"`
	VehicleVoltage string `json:"vehicleVoltage"`

	UnitsReplaced string `json:"unitsReplaced"`
	SerialEsn     string `json:"serialEsn"`
	OldSerialEsn  string `json:"oldSerialEsn"`
	SimID         string `json:"simId"`
	OldSimID      string `json:"oldSimId"`
	IzwiSerial    string `json:"izwiSerial"`
	OldIzwiSerial string `json:"oldIzwiSerial"`
	EpsSerial     string `json:"epsSerial"`
	OldEpsSerial  string `json:"oldEpsSerial"`

	// Проверки по ключам из TestItemDefs; ключ комментария имеет вид "<key>Comment".
	Items map[string]TestItemEntry `json:"items"`

	EpsLinked string                   `json:"epsLinked"`
	EpsTests  map[string]TestItemEntry `json:"epsTests"`

	PduInstalled       string `json:"pduInstalled"`
	PduVoltageParked   string `json:"pduVoltageParked"`
	PduVoltageIgnition string `json:"pduVoltageIgnition"`
	PduVoltageIdle     string `json:"pduVoltageIdle"`

	Administrator       string `json:"administrator"`
	TechnicianName      string `json:"technicianName"`
	TechnicianJobCardNo string `json:"technicianJobCardNo"`
	OdometerEngineHours string `json:"odometerEngineHours"`

	Notes   string `json:"notes"`
	IsDraft bool   `json:"isDraft"`
}

// formFieldKind описывает тип значения, допустимый для ключа поля.
type formFieldKind int

const (
	fieldText formFieldKind = iota
	fieldEnum
)

type formFieldDef struct {
	kind    formFieldKind
	allowed []string
	set     func(f *TestSheetFormData, value string)
}

// scalarFieldDefs описывает схему скалярных полей формы: какие ключи существуют,
// какие из них ограничены перечислением и куда записывается значение.
var scalarFieldDefs = map[string]formFieldDef{
	"techReference":  {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.TechReference = v }},
	"adminReference": {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.AdminReference = v }},
	"formType":       {kind: fieldEnum, allowed: FormTypes, set: func(f *TestSheetFormData, v string) { f.FormType = v }},
	"instruction":    {kind: fieldEnum, allowed: Instructions, set: func(f *TestSheetFormData, v string) { f.Instruction = v }},
	"startTime":      {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.StartTime = v }},
	"endTime":        {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.EndTime = v }},
	"customer":       {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.Customer = v }},
	"plantName":      {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.PlantName = v }},
	"vehicleMake":    {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.VehicleMake = v }},
	"vehicleModel":   {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.VehicleModel = v }},
	"vehicleVoltage": {kind: fieldEnum, allowed: VehicleVoltages, set: func(f *TestSheetFormData, v string) { f.VehicleVoltage = v }},
	"unitsReplaced":  {kind: fieldEnum, allowed: YesNoNA, set: func(f *TestSheetFormData, v string) { f.UnitsReplaced = v }},
	"serialEsn":      {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.SerialEsn = v }},
	"oldSerialEsn":   {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.OldSerialEsn = v }},
	"simId":          {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.SimID = v }},
	"oldSimId":       {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.OldSimID = v }},
	"izwiSerial":     {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.IzwiSerial = v }},
	"oldIzwiSerial":  {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.OldIzwiSerial = v }},
	"epsSerial":      {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.EpsSerial = v }},
	"oldEpsSerial":   {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.OldEpsSerial = v }},
	"epsLinked":      {kind: fieldEnum, allowed: YesNoNA, set: func(f *TestSheetFormData, v string) { f.EpsLinked = v }},
	"pduInstalled":   {kind: fieldEnum, allowed: PduStates, set: func(f *TestSheetFormData, v string) { f.PduInstalled = v }},
	"pduVoltageParked":   {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.PduVoltageParked = v }},
	"pduVoltageIgnition": {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.PduVoltageIgnition = v }},
	"pduVoltageIdle":     {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.PduVoltageIdle = v }},
	"administrator":       {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.Administrator = v }},
	"technicianName":      {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.TechnicianName = v }},
	"technicianJobCardNo": {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.TechnicianJobCardNo = v }},
	"odometerEngineHours": {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.OdometerEngineHours = v }},
	"notes":               {kind: fieldText, set: func(f *TestSheetFormData, v string) { f.Notes = v }},
}

// SetField выполняет динамическое обновление поля формы по ключу со
// строгой проверкой схемы: неизвестный ключ или значение вне перечисления
// для этого ключа дает ошибку, значение не применяется. Ключи проверок
// принимают статус ("horn"), их комментарии принимаются через суффикс
// Comment ("hornComment"); аналогично для шагов EPS.
func (f *TestSheetFormData) SetField(key, value string) error {
	if def, ok := scalarFieldDefs[key]; ok {
		if def.kind == fieldEnum && value != "" && !contains(def.allowed, value) {
			return fmt.Errorf("invalid value %q for field %q", value, key)
		}
		def.set(f, value)
		return nil
	}

	base, isComment := strings.CutSuffix(key, "Comment")
	if f.isItemKey(base) {
		if f.Items == nil {
			f.Items = make(map[string]TestItemEntry)
		}
		return setEntryField(f.Items, base, value, isComment)
	}
	if f.isEpsKey(base) {
		if f.EpsTests == nil {
			f.EpsTests = make(map[string]TestItemEntry)
		}
		return setEntryField(f.EpsTests, base, value, isComment)
	}

	return fmt.Errorf("unknown form field %q", key)
}

func setEntryField(entries map[string]TestItemEntry, key, value string, isComment bool) error {
	entry := entries[key]
	if isComment {
		entry.Comment = value
	} else {
		if !IsValidItemStatus(value) {
			return fmt.Errorf("invalid status %q for test %q", value, key)
		}
		entry.Status = value
	}
	entries[key] = entry
	return nil
}

func (f *TestSheetFormData) isItemKey(key string) bool {
	for _, def := range TestItemDefs {
		if def.Key == key {
			return true
		}
	}
	return false
}

func (f *TestSheetFormData) isEpsKey(key string) bool {
	for _, def := range EpsStepDefs {
		if def.Key == key {
			return true
		}
	}
	return false
}

// ToSheet переносит скалярные поля формы в модель тест-листа.
// Идентификатор, владелец и подпись назначаются слоем сохранения.
func (f *TestSheetFormData) ToSheet() *TestSheet {
	return &TestSheet{
		TechReference:       f.TechReference,
		AdminReference:      f.AdminReference,
		FormType:            f.FormType,
		Instruction:         f.Instruction,
		StartTime:           f.StartTime,
		EndTime:             f.EndTime,
		Customer:            f.Customer,
		PlantName:           f.PlantName,
		VehicleMake:         f.VehicleMake,
		VehicleModel:        f.VehicleModel,
		VehicleVoltage:      f.VehicleVoltage,
		UnitsReplaced:       f.UnitsReplaced,
		SerialEsn:           f.SerialEsn,
		OldSerialEsn:        f.OldSerialEsn,
		SimID:               f.SimID,
		OldSimID:            f.OldSimID,
		IzwiSerial:          f.IzwiSerial,
		OldIzwiSerial:       f.OldIzwiSerial,
		EpsSerial:           f.EpsSerial,
		OldEpsSerial:        f.OldEpsSerial,
		EpsLinked:           f.EpsLinked,
		PduInstalled:        f.PduInstalled,
		PduVoltageParked:    f.PduVoltageParked,
		PduVoltageIgnition:  f.PduVoltageIgnition,
		PduVoltageIdle:      f.PduVoltageIdle,
		Administrator:       f.Administrator,
		TechnicianName:      f.TechnicianName,
		TechnicianJobCardNo: f.TechnicianJobCardNo,
		OdometerEngineHours: f.OdometerEngineHours,
		Notes:               f.Notes,
		IsDraft:             f.IsDraft,
	}
}

// ToFormData собирает данные формы из сохранённого листа и его строк
// test_items. Карты проверок собираются как производная проекция, только для чтения.
func (ts *TestSheet) ToFormData(items []TestItem) TestSheetFormData {
	f := TestSheetFormData{
		TechReference:       ts.TechReference,
		AdminReference:      ts.AdminReference,
		FormType:            ts.FormType,
		Instruction:         ts.Instruction,
		StartTime:           ts.StartTime,
		EndTime:             ts.EndTime,
		Customer:            ts.Customer,
		PlantName:           ts.PlantName,
		VehicleMake:         ts.VehicleMake,
		VehicleModel:        ts.VehicleModel,
		VehicleVoltage:      ts.VehicleVoltage,
		UnitsReplaced:       ts.UnitsReplaced,
		SerialEsn:           ts.SerialEsn,
		OldSerialEsn:        ts.OldSerialEsn,
		SimID:               ts.SimID,
		OldSimID:            ts.OldSimID,
		IzwiSerial:          ts.IzwiSerial,
		OldIzwiSerial:       ts.OldIzwiSerial,
		EpsSerial:           ts.EpsSerial,
		OldEpsSerial:        ts.OldEpsSerial,
		EpsLinked:           ts.EpsLinked,
		PduInstalled:        ts.PduInstalled,
		PduVoltageParked:    ts.PduVoltageParked,
		PduVoltageIgnition:  ts.PduVoltageIgnition,
		PduVoltageIdle:      ts.PduVoltageIdle,
		Administrator:       ts.Administrator,
		TechnicianName:      ts.TechnicianName,
		TechnicianJobCardNo: ts.TechnicianJobCardNo,
		OdometerEngineHours: ts.OdometerEngineHours,
		Notes:               ts.Notes,
		IsDraft:             ts.IsDraft,
		Items:               make(map[string]TestItemEntry),
		EpsTests:            make(map[string]TestItemEntry),
	}
	for _, item := range items {
		entry := TestItemEntry{Status: item.Status, Comment: item.Comment}
		if item.Section == ItemSectionEps {
			f.EpsTests[item.Key] = entry
		} else {
			f.Items[item.Key] = entry
		}
	}
	return f
}
