package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"juntas/internal/reportes/models"
)

const (
	pdfMargin  = 12.0
	pdfRowH    = 7.0
	pdfHeaderH = 8.0
)

// PDF writes t as a landscape table, repeating the header on each page.
func PDF(t *models.Tabla) ([]byte, error) {
	doc := fpdf.New("L", "mm", "Letter", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(true, pdfMargin)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	pageW, _ := doc.GetPageSize()
	cols := max(len(t.Columnas), 1)
	colW := (pageW - 2*pdfMargin) / float64(cols)

	header := func() {
		doc.SetFont("Helvetica", "B", 10)
		doc.SetFillColor(31, 78, 121)
		doc.SetTextColor(255, 255, 255)
		for _, c := range t.Columnas {
			doc.CellFormat(colW, pdfHeaderH, fit(doc, tr(c), colW), "1", 0, "C", true, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont("Helvetica", "", 9)
		doc.SetTextColor(0, 0, 0)
	}
	doc.SetHeaderFuncMode(func() {
		if doc.PageNo() > 1 {
			header()
		}
	}, true)

	doc.AddPage()
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 10, tr(t.Titulo), "", 1, "C", false, 0, "")
	doc.Ln(3)
	header()
	for i, fila := range t.Filas {
		doc.SetFillColor(235, 241, 247)
		for j := 0; j < cols; j++ {
			v := ""
			if j < len(fila) {
				v = fila[j]
			}
			doc.CellFormat(colW, pdfRowH, fit(doc, tr(v), colW), "1", 0, "L", i%2 == 1, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fit trims an already translated string until it fits in width w.
func fit(doc *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if doc.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && doc.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}
