package models

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	dErrors "juntas/pkg/domain-errors"
)

type Estado string

const (
	EstadoActivo   Estado = "activo"
	EstadoInactivo Estado = "inactivo"
)

// EventCambiarPeriodo closes the current period of a junta.
const EventCambiarPeriodo = "cambiar_periodo"

func (j *Junta) Estado() Estado {
	if j.Activo {
		return EstadoActivo
	}
	return EstadoInactivo
}

// Lifecycle returns the state machine of j, positioned at its current state.
// Entering inactivo clears j.Activo.
func (j *Junta) Lifecycle() *fsm.FSM {
	return fsm.NewFSM(
		string(j.Estado()),
		fsm.Events{
			{Name: EventCambiarPeriodo, Src: []string{string(EstadoActivo)}, Dst: string(EstadoInactivo)},
		},
		fsm.Callbacks{
			"enter_" + string(EstadoInactivo): func(_ context.Context, _ *fsm.Event) {
				j.Activo = false
			},
		},
	)
}

// CerrarPeriodo moves j from activo to inactivo. Closed periods cannot be
// closed again.
func (j *Junta) CerrarPeriodo(ctx context.Context) error {
	if err := j.Lifecycle().Event(ctx, EventCambiarPeriodo); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return dErrors.New(dErrors.CodeConflict, "la junta no tiene un periodo activo")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo cerrar el periodo")
	}
	return nil
}

// SiguientePeriodo builds the junta row for the period that follows j.
func (j *Junta) SiguientePeriodo(req CambioPeriodoRequest) *Junta {
	anterior := j.ID
	next := *j
	next.ID = 0
	next.FechaInicioPeriodo = req.FechaInicioPeriodo
	next.FechaFinPeriodo = FinPeriodo(req.FechaInicioPeriodo)
	next.FechaAsamblea = req.FechaAsamblea
	next.Activo = true
	next.JuntaAnteriorID = &anterior
	if j.InstitucionID != nil {
		id := *j.InstitucionID
		next.InstitucionID = &id
	}
	return &next
}
