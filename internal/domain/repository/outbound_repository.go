package repository

import (
	"context"

	"github.com/jhoicas/inventario-ensamble/internal/domain/entity"
)

// OutboundRepository puerto de notas de salida, líneas y asignaciones.
type OutboundRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, note *entity.OutboundNote) error
	CreateAllocation(ctx context.Context, a *entity.Allocation) error
	// LockByID carga la nota con líneas y asignaciones bloqueando la cabecera.
	LockByID(ctx context.Context, id string) (*entity.OutboundNote, error)
	GetByID(ctx context.Context, id string) (*entity.OutboundNote, error)
	// Delete borra la nota; líneas y asignaciones caen en cascada.
	Delete(ctx context.Context, id string) error
}
