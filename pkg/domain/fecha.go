package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	dErrors "juntas/pkg/domain-errors"
)

const fechaLayout = "2006-01-02"

// Fecha is a calendar date with no time of day. It maps to a Postgres DATE
// and to "YYYY-MM-DD" in JSON.
type Fecha struct {
	t time.Time
}

func NewFecha(year int, month time.Month, day int) Fecha {
	return Fecha{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FechaOf truncates t to its calendar date in t's own location.
func FechaOf(t time.Time) Fecha {
	if t.IsZero() {
		return Fecha{}
	}
	return NewFecha(t.Date())
}

// ParseFecha accepts YYYY-MM-DD, or a full RFC 3339 timestamp whose date part is used.
func ParseFecha(s string) (Fecha, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Fecha{}, nil
	}
	if t, err := time.Parse(fechaLayout, s); err == nil {
		return FechaOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FechaOf(t), nil
	}
	return Fecha{}, dErrors.New(dErrors.CodeInvalidInput, "fecha inválida: "+s)
}

func (f Fecha) Time() time.Time     { return f.t }
func (f Fecha) IsZero() bool        { return f.t.IsZero() }
func (f Fecha) Equal(o Fecha) bool  { return f.t.Equal(o.t) }
func (f Fecha) Before(o Fecha) bool { return f.t.Before(o.t) }
func (f Fecha) After(o Fecha) bool  { return f.t.After(o.t) }
func (f Fecha) Year() int           { return f.t.Year() }
func (f Fecha) AddDays(n int) Fecha { return Fecha{t: f.t.AddDate(0, 0, n)} }

func (f Fecha) String() string {
	if f.IsZero() {
		return ""
	}
	return f.t.Format(fechaLayout)
}

// AddYears adds n years. February 29 falls back to February 28 when the
// target year is not a leap year, matching Postgres interval arithmetic.
func (f Fecha) AddYears(n int) Fecha {
	if f.IsZero() {
		return f
	}
	y, m, d := f.t.Date()
	out := time.Date(y+n, m, d, 0, 0, 0, 0, time.UTC)
	if out.Month() != m {
		out = time.Date(y+n, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return Fecha{t: out}
}

// YearsAt returns the completed years between f and at, as used for ages.
func (f Fecha) YearsAt(at Fecha) int {
	years := at.t.Year() - f.t.Year()
	if !sameMonthDayOrLater(at.t, f.t) {
		years--
	}
	return years
}

func sameMonthDayOrLater(at, birth time.Time) bool {
	if at.Month() != birth.Month() {
		return at.Month() > birth.Month()
	}
	return at.Day() >= birth.Day()
}

func (f Fecha) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + f.String() + `"`), nil
}

func (f *Fecha) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*f = Fecha{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return dErrors.New(dErrors.CodeInvalidInput, "fecha inválida")
	}
	parsed, err := ParseFecha(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (f *Fecha) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = Fecha{}
	case time.Time:
		*f = FechaOf(v)
	case string:
		parsed, err := ParseFecha(v)
		if err != nil {
			return err
		}
		*f = parsed
	case []byte:
		parsed, err := ParseFecha(string(v))
		if err != nil {
			return err
		}
		*f = parsed
	default:
		return fmt.Errorf("cannot scan %T into Fecha", src)
	}
	return nil
}

// Value implements driver.Valuer; the zero Fecha is NULL.
func (f Fecha) Value() (driver.Value, error) {
	if f.IsZero() {
		return nil, nil
	}
	return f.String(), nil
}
