package models

import (
	dErrors "juntas/pkg/domain-errors"
)

type TipoAsignacion string

const (
	AsignacionCargo    TipoAsignacion = "cargo"
	AsignacionComision TipoAsignacion = "comision"
)

type EstadoAsignacion string

const (
	SinAsignar       EstadoAsignacion = "sin_asignar"
	AsignadoCargo    EstadoAsignacion = "cargo"
	AsignadoComision EstadoAsignacion = "comision"
)

// Asignacion places a mandatario in exactly one cargo or one comisión. A
// nil *Asignacion means the mandatario is unassigned.
type Asignacion struct {
	Tipo TipoAsignacion `json:"tipo"`
	ID   int64          `json:"id"`
}

func Cargo(id int64) *Asignacion    { return &Asignacion{Tipo: AsignacionCargo, ID: id} }
func Comision(id int64) *Asignacion { return &Asignacion{Tipo: AsignacionComision, ID: id} }

// AsignacionFrom builds the assignment from the request's two optional ids.
// Setting both is a malformed request.
func AsignacionFrom(cargoID, comisionID *int64) (*Asignacion, error) {
	switch {
	case cargoID != nil && comisionID != nil:
		return nil, dErrors.New(dErrors.CodeBadRequest, "un mandatario no puede tener cargo y comisión a la vez")
	case cargoID != nil:
		if *cargoID <= 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "cargo inválido")
		}
		return Cargo(*cargoID), nil
	case comisionID != nil:
		if *comisionID <= 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "comisión inválida")
		}
		return Comision(*comisionID), nil
	}
	return nil, nil
}

func (a *Asignacion) Estado() EstadoAsignacion {
	if a == nil {
		return SinAsignar
	}
	if a.Tipo == AsignacionCargo {
		return AsignadoCargo
	}
	return AsignadoComision
}

// CargoID and ComisionID return the column values for storage.
func (a *Asignacion) CargoID() *int64 {
	if a == nil || a.Tipo != AsignacionCargo {
		return nil
	}
	id := a.ID
	return &id
}

func (a *Asignacion) ComisionID() *int64 {
	if a == nil || a.Tipo != AsignacionComision {
		return nil
	}
	id := a.ID
	return &id
}

// AsignacionRequest is the body of PATCH /mandatarios/{id}/asignacion.
// Both ids empty unassigns the mandatario.
type AsignacionRequest struct {
	CargoID    *int64 `json:"cargoId"`
	ComisionID *int64 `json:"comisionId"`
}

func (r AsignacionRequest) Asignacion() (*Asignacion, error) {
	return AsignacionFrom(zeroToNil(r.CargoID), zeroToNil(r.ComisionID))
}
