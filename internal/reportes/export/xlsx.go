package export

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"juntas/internal/reportes/models"
)

const sheet = "Reporte"

// XLSX writes the title on the first row, the header on the third and one
// row per entry after that.
func XLSX(t *models.Tabla) (out []byte, err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetCellValue(sheet, "A1", t.Titulo); err != nil {
		return nil, fmt.Errorf("write title: %w", err)
	}
	titulo, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titulo); err != nil {
		return nil, fmt.Errorf("apply title style: %w", err)
	}

	header := make([]any, len(t.Columnas))
	for i, c := range t.Columnas {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(max(len(t.Columnas), 1), 3)
	if err != nil {
		return nil, err
	}
	negrita, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E79"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A3", last, negrita); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, fila := range t.Filas {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return nil, err
		}
		row := make([]any, len(fila))
		for j, v := range fila {
			row[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	for i := range t.Columnas {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, columnWidth(t, i)); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue keeps counts numeric so spreadsheets can sum them. Documentos
// stay text to preserve leading zeros.
func cellValue(v string) any {
	if len(v) == 0 || len(v) > 6 || v[0] == '0' && len(v) > 1 {
		return v
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return v
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func columnWidth(t *models.Tabla, col int) float64 {
	w := utf8.RuneCountInString(t.Columnas[col])
	for _, fila := range t.Filas {
		if col < len(fila) {
			w = max(w, utf8.RuneCountInString(fila[col]))
		}
	}
	return float64(min(w+2, 60))
}
