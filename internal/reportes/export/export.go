// Package export renders report tables to downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"juntas/internal/reportes/models"
)

// Render writes t in format f.
func Render(t *models.Tabla, f models.Formato) ([]byte, error) {
	switch f {
	case models.FormatoCSV:
		return CSV(t)
	case models.FormatoXLSX:
		return XLSX(t)
	case models.FormatoRTF:
		return RTF(t), nil
	case models.FormatoPDF:
		return PDF(t)
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// utf8BOM makes spreadsheet programs detect the encoding of CSV files.
const utf8BOM = "\ufeff"

func CSV(t *models.Tabla) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columnas); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(t.Filas); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
