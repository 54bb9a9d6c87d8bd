// Package pdf renders issued certificates with go-pdf/fpdf. Each document
// carries a QR code pointing at the public validation page.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"juntas/internal/certificados/models"
	umodels "juntas/internal/usuarios/models"
	"juntas/pkg/domain"
)

const (
	entidad     = "GOBERNACIÓN DE BOYACÁ"
	dependencia = "Secretaría de Participación y Democracia"
	qrSize      = 256
	qrMM        = 32.0
)

var meses = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
	"agosto", "septiembre", "octubre", "noviembre", "diciembre"}

// FechaLarga formats f as "1 de julio de 2022".
func FechaLarga(f domain.Fecha) string {
	if f.IsZero() {
		return ""
	}
	t := f.Time()
	return fmt.Sprintf("%d de %s de %d", t.Day(), meses[t.Month()-1], t.Year())
}

type Input struct {
	Certificado *models.Certificado
	ValidarURL  string
	Firma       *umodels.Firma
}

func Render(in Input) ([]byte, error) {
	c := in.Certificado
	qr, err := qrcode.Encode(in.ValidarURL, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	doc := fpdf.New("P", "mm", "Letter", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetMargins(25, 25, 25)
	doc.SetTitle(tr(c.Tipo.Titulo()), false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 15)
	doc.CellFormat(0, 8, tr(entidad), "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr(dependencia), "", 1, "C", false, 0, "")
	doc.Ln(10)

	doc.SetFont("Helvetica", "B", 12)
	doc.MultiCell(0, 6, tr(c.Tipo.Titulo()), "", "C", false)
	doc.Ln(8)

	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 6, tr("LA SUSCRITA SECRETARÍA CERTIFICA:"), "", "L", false)
	doc.Ln(4)
	doc.MultiCell(0, 6, tr(cuerpo(c)), "", "J", false)
	doc.Ln(6)
	doc.MultiCell(0, 6, tr(fmt.Sprintf("Se expide en Tunja, el %s.", FechaLarga(domain.FechaOf(c.EmitidoEn)))), "", "L", false)
	doc.Ln(18)

	if in.Firma != nil && len(in.Firma.Data) > 0 {
		opts := fpdf.ImageOptions{ImageType: imageType(in.Firma.Mime)}
		doc.RegisterImageOptionsReader("firma", opts, bytes.NewReader(in.Firma.Data))
		doc.ImageOptions("firma", doc.GetX(), doc.GetY()-14, 50, 0, false, opts, 0, "")
	}
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(80, 6, tr(c.Datos.EmitidoPor), "T", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(80, 5, tr(dependencia), "", 1, "L", false, 0, "")

	_, pageH := doc.GetPageSize()
	qrOpts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("qr", qrOpts, bytes.NewReader(qr))
	doc.ImageOptions("qr", 25, pageH-25-qrMM, qrMM, qrMM, false, qrOpts, 0, "")
	doc.SetXY(25+qrMM+4, pageH-25-qrMM+8)
	doc.SetFont("Helvetica", "", 8)
	doc.MultiCell(0, 4, tr("Verifique la autenticidad de este documento escaneando el código QR o en "+
		in.ValidarURL+"\nCódigo de verificación: "+c.ID.String()), "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificado: %w", err)
	}
	return buf.Bytes(), nil
}

func cuerpo(c *models.Certificado) string {
	d := c.Datos
	lugar := d.Municipio
	if d.Provincia != "" {
		lugar += ", provincia de " + d.Provincia
	}
	periodo := fmt.Sprintf("para el periodo comprendido entre el %s y el %s",
		FechaLarga(d.FechaInicioPeriodo), FechaLarga(d.FechaFinPeriodo))

	if c.Tipo == models.TipoAutoresolutorio {
		cargo := "dignatario(a)"
		if d.Cargo != "" {
			cargo = d.Cargo
		}
		return fmt.Sprintf("Que %s, identificado(a) con documento No. %s, se encuentra inscrito(a) como %s "+
			"de la organización comunal %s, con personería jurídica No. %s, del municipio de %s, %s.",
			d.Mandatario, d.Documento, cargo, d.RazonSocial, d.NumPersoneriaJuridica, lugar, periodo)
	}
	return fmt.Sprintf("Que la organización comunal %s (%s), con personería jurídica No. %s, del municipio de %s, "+
		"se encuentra inscrita y vigente ante esta Secretaría, con dignatarios elegidos %s.",
		d.RazonSocial, d.TipoJunta, d.NumPersoneriaJuridica, lugar, periodo)
}

func imageType(mime string) string {
	if mime == "image/jpeg" {
		return "JPG"
	}
	return "PNG"
}
