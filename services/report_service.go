package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"backend_nae/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// pageBreakY задает порог по вертикали (мм на листе A4): если следующему блоку
// не хватает места до этой отметки, PDF начинает новую страницу.
const pageBreakY = 250.0

// ReportService строит документы тест-листа. Построение детерминировано
// для одинаковых входных данных (кроме штампа времени генерации в подвале).
type ReportService struct{}

// NewReportService создает новый экземпляр ReportService
func NewReportService() *ReportService {
	return &ReportService{}
}

// reportRow представляет одну строку "подпись: значение" в секции отчета.
type reportRow struct {
	Label string
	Value string
}

// reportSection описывает секцию отчета с фиксированным порядком строк.
// Секция тестов вместо строк несёт таблицу.
type reportSection struct {
	Title string
	Rows  []reportRow
	Table [][3]string // test name, status, comment
}

// PDFFileName возвращает имя PDF-файла для листа: Test_Sheet_<techRef>.pdf
func PDFFileName(techReference string) string {
	return reportFileName(techReference, "pdf")
}

// ExcelFileName возвращает имя Excel-файла для листа: Test_Sheet_<techRef>.xlsx
func ExcelFileName(techReference string) string {
	return reportFileName(techReference, "xlsx")
}

func reportFileName(techReference, ext string) string {
	safe := strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(techReference)
	return fmt.Sprintf("Test_Sheet_%s.%s", safe, ext)
}

// orNA подставляет "N/A" вместо пустого значения: колонки отчета не должны
// схлопываться из-за незаполненных необязательных полей.
func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return value
}

// buildReportSections собирает секции отчета из листа и его строк тестов.
// Единая модель секций питает и PDF, и Excel, поэтому оба формата
// одинаково скрывают "старые" серийники при unitsReplaced != "Yes".
func buildReportSections(sheet *models.TestSheet, items []models.TestItem, adminName string) []reportSection {
	var sections []reportSection

	sections = append(sections, reportSection{
		Title: "Reference",
		Rows: []reportRow{
			{"Tech Reference", orNA(sheet.TechReference)},
			{"Admin Reference", orNA(sheet.AdminReference)},
			{"Form Type", orNA(sheet.FormType)},
			{"Instruction", orNA(sheet.Instruction)},
		},
	})

	sections = append(sections, reportSection{
		Title: "Time & Customer",
		Rows: []reportRow{
			{"Start Time", orNA(sheet.StartTime)},
			{"End Time", orNA(sheet.EndTime)},
			{"Customer", orNA(sheet.Customer)},
			{"Plant Name", orNA(sheet.PlantName)},
		},
	})

	sections = append(sections, reportSection{
		Title: "Vehicle",
		Rows: []reportRow{
			{"Make", orNA(sheet.VehicleMake)},
			{"Model", orNA(sheet.VehicleModel)},
			{"Voltage", orNA(sheet.VehicleVoltage)},
		},
	})

	// "Старые" номера попадают в отчет только при замене блоков,
	// даже если поля заполнены.
	serialRows := []reportRow{
		{"Units Replaced", orNA(sheet.UnitsReplaced)},
		{"Serial/ESN", orNA(sheet.SerialEsn)},
		{"SIM ID", orNA(sheet.SimID)},
		{"Izwi Serial", orNA(sheet.IzwiSerial)},
		{"EPS Serial", orNA(sheet.EpsSerial)},
	}
	if sheet.UnitsReplaced == "Yes" {
		serialRows = append(serialRows,
			reportRow{"Old Serial/ESN", orNA(sheet.OldSerialEsn)},
			reportRow{"Old SIM ID", orNA(sheet.OldSimID)},
			reportRow{"Old Izwi Serial", orNA(sheet.OldIzwiSerial)},
			reportRow{"Old EPS Serial", orNA(sheet.OldEpsSerial)},
		)
	}
	sections = append(sections, reportSection{Title: "Serial Numbers", Rows: serialRows})

	var testRows [][3]string
	var epsItems []models.TestItem
	for _, item := range items {
		if item.Section == models.ItemSectionEps {
			epsItems = append(epsItems, item)
			continue
		}
		testRows = append(testRows, [3]string{item.TestName, orNA(item.Status), orNA(item.Comment)})
	}
	sections = append(sections, reportSection{Title: "Tests", Table: testRows})

	pduRows := []reportRow{
		{"PDU", orNA(sheet.PduInstalled)},
	}
	if sheet.PduInstalled == models.PduInstalled {
		pduRows = append(pduRows,
			reportRow{"Voltage (Parked)", orNA(sheet.PduVoltageParked)},
			reportRow{"Voltage (Ignition)", orNA(sheet.PduVoltageIgnition)},
			reportRow{"Voltage (Idle)", orNA(sheet.PduVoltageIdle)},
		)
	}
	pduRows = append(pduRows, reportRow{"EPS Linked", orNA(sheet.EpsLinked)})
	if sheet.EpsLinked != "" && sheet.EpsLinked != models.StatusNA {
		for _, item := range epsItems {
			value := orNA(item.Status)
			if item.Comment != "" {
				value += " - " + item.Comment
			}
			pduRows = append(pduRows, reportRow{item.TestName, value})
		}
	}
	sections = append(sections, reportSection{Title: "PDU & EPS-Link", Rows: pduRows})

	signature := "Not signed"
	if sheet.AdministratorSignature != "" {
		signature = "Signed"
	}
	sections = append(sections, reportSection{
		Title: "Administrator & Technician",
		Rows: []reportRow{
			{"Administrator", orNA(sheet.Administrator)},
			{"Captured By", orNA(adminName)},
			{"Technician", orNA(sheet.TechnicianName)},
			{"Job Card No", orNA(sheet.TechnicianJobCardNo)},
			{"Odometer / Engine Hours", orNA(sheet.OdometerEngineHours)},
			{"Signature", signature},
		},
	})

	sections = append(sections, reportSection{
		Title: "Notes",
		Rows:  []reportRow{{"Notes", orNA(sheet.Notes)}},
	})

	return sections
}

// BuildPDF строит постраничный PDF тест-листа.
func (rs *ReportService) BuildPDF(sheet *models.TestSheet, items []models.TestItem, adminName string) ([]byte, error) {
	pdf := rs.buildPDFDocument(sheet, items, adminName)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// buildPDFDocument собирает документ gofpdf; вынесено отдельно, чтобы
// тесты могли проверить разбивку на страницы до сериализации.
func (rs *ReportService) buildPDFDocument(sheet *models.TestSheet, items []models.TestItem, adminName string) *gofpdf.Fpdf {
	sections := buildReportSections(sheet, items, adminName)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		footer := fmt.Sprintf("NAE Test Sheet  |  %s  |  Generated %s  |  Page %d/{nb}",
			sheet.TechReference, time.Now().Format("02 Jan 2006 15:04"), pdf.PageNo())
		pdf.CellFormat(0, 10, footer, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Шапка: номер листа и тип формы
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "NAE Test Sheet", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s  /  %s", sheet.TechReference, orNA(sheet.FormType)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	const (
		rowH     = 6.0
		labelW   = 60.0
		valueW   = 120.0
		titleH   = 8.0
		tableCol = 60.0
	)

	// ensureSpace начинает новую страницу, если блоку не хватает места
	// до порога разрыва.
	ensureSpace := func(needed float64) {
		if pdf.GetY()+needed > pageBreakY {
			pdf.AddPage()
		}
	}

	for _, section := range sections {
		if section.Title == "Notes" {
			// Заметки печатаются с переносом слов собственным блоком.
			ensureSpace(titleH + rowH*2)
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, titleH, section.Title, "", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, section.Rows[0].Value, "", "L", false)
			pdf.Ln(2)
			continue
		}

		ensureSpace(titleH + rowH*2)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, titleH, section.Title, "", 1, "L", false, 0, "")

		if section.Table != nil {
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(tableCol, rowH, "Test", "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, rowH, "Status", "1", 0, "L", false, 0, "")
			pdf.CellFormat(90, rowH, "Comment", "1", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			for _, row := range section.Table {
				ensureSpace(rowH)
				pdf.CellFormat(tableCol, rowH, row[0], "1", 0, "L", false, 0, "")
				pdf.CellFormat(30, rowH, row[1], "1", 0, "L", false, 0, "")
				pdf.CellFormat(90, rowH, row[2], "1", 1, "L", false, 0, "")
			}
			pdf.Ln(2)
			continue
		}

		pdf.SetFont("Arial", "", 10)
		for _, row := range section.Rows {
			ensureSpace(rowH)
			pdf.CellFormat(labelW, rowH, row.Label, "", 0, "L", false, 0, "")
			pdf.CellFormat(valueW, rowH, row.Value, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	return pdf
}

// BuildExcel строит плоскую Excel-книгу тест-листа: заголовки секций
// одной ячейкой, пары ключ/значение двумя колонками, блок тестов как
// строка заголовка плюс строка на каждую проверку.
func (rs *ReportService) BuildExcel(sheet *models.TestSheet, items []models.TestItem, adminName string) ([]byte, error) {
	sections := buildReportSections(sheet, items, adminName)

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Test Sheet"
	f.SetSheetName("Sheet1", sheetName)
	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 25)
	f.SetColWidth(sheetName, "C", "C", 50)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	row := 1
	setCell := func(col int, r int, value string) {
		cell, _ := excelize.CoordinatesToCellName(col, r)
		f.SetCellValue(sheetName, cell, value)
	}

	for _, section := range sections {
		setCell(1, row, section.Title)
		cell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellStyle(sheetName, cell, cell, bold)
		row++

		if section.Table != nil {
			setCell(1, row, "Test")
			setCell(2, row, "Status")
			setCell(3, row, "Comment")
			start, _ := excelize.CoordinatesToCellName(1, row)
			end, _ := excelize.CoordinatesToCellName(3, row)
			f.SetCellStyle(sheetName, start, end, bold)
			row++
			for _, tr := range section.Table {
				setCell(1, row, tr[0])
				setCell(2, row, tr[1])
				setCell(3, row, tr[2])
				row++
			}
		} else {
			for _, r := range section.Rows {
				setCell(1, row, r.Label)
				setCell(2, row, r.Value)
				row++
			}
		}
		row++ // пустая строка между секциями
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
