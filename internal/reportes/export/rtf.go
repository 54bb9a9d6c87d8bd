package export

import (
	"bytes"
	"fmt"
	"strings"

	"juntas/internal/reportes/models"
)

// rtfTableWidth is the usable width of a Letter page in twips.
const rtfTableWidth = 9360

// RTF writes t as a Word-compatible table.
func RTF(t *models.Tabla) []byte {
	var b bytes.Buffer
	b.WriteString(`{\rtf1\ansi\ansicpg1252\deff0{\fonttbl{\f0\fswiss Arial;}}`)
	b.WriteString("\n")
	b.WriteString(`\paperw12240\paperh15840\margl1440\margr1440\f0\fs20`)
	b.WriteString("\n")
	fmt.Fprintf(&b, `{\pard\qc\b\fs28 %s\par}`, rtfEscape(t.Titulo))
	b.WriteString("\n{\\pard\\par}\n")

	cols := max(len(t.Columnas), 1)
	writeRow := func(cells []string, bold bool) {
		b.WriteString(`\trowd\trgaph108`)
		for i := 1; i <= cols; i++ {
			fmt.Fprintf(&b, `\clbrdrt\brdrs\clbrdrl\brdrs\clbrdrb\brdrs\clbrdrr\brdrs\cellx%d`, rtfTableWidth*i/cols)
		}
		b.WriteString("\n")
		for i := 0; i < cols; i++ {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			if bold {
				fmt.Fprintf(&b, `\pard\intbl\b %s\b0\cell`, rtfEscape(v))
			} else {
				fmt.Fprintf(&b, `\pard\intbl %s\cell`, rtfEscape(v))
			}
		}
		b.WriteString("\\row\n")
	}
	writeRow(t.Columnas, true)
	for _, fila := range t.Filas {
		writeRow(fila, false)
	}
	b.WriteString(`\pard\par}`)
	return b.Bytes()
}

// rtfEscape escapes control characters and encodes non-ASCII runes as \uN?.
func rtfEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\line `)
		case r < 0x80:
			b.WriteRune(r)
		case r > 0xFFFF:
			b.WriteString("?")
		default:
			// RTF takes signed 16-bit code points.
			fmt.Fprintf(&b, `\u%d?`, int16(uint16(r)))
		}
	}
	return b.String()
}
