package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrInvalidQuantity       = fmt.Errorf("%w: cantidad debe ser mayor a 0", ErrInvalidInput)
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrNoteLocked            = errors.New("nota bloqueada por traslados o salidas")
	ErrConcurrencyContention = errors.New("contención de bloqueos, reintente la operación")
)

// Shortage detalle de faltante para un insumo o un grupo de lotes.
type Shortage struct {
	Resource  string          `json:"resource"`
	Name      string          `json:"name,omitempty"`
	Available decimal.Decimal `json:"available"`
	Required  decimal.Decimal `json:"required"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// NewShortage construye el faltante calculando required - available.
func NewShortage(resource, name string, available, required decimal.Decimal) Shortage {
	return Shortage{
		Resource:  resource,
		Name:      name,
		Available: available,
		Required:  required,
		Shortfall: required.Sub(available),
	}
}

// InsufficientStockError se produce antes de mutar cualquier fila. errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (disponible %s, requerido %s, faltante %s)",
			s.Resource, s.Available.String(), s.Required.String(), s.Shortfall.String()))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NoteLockedError indica que la nota tiene lotes referenciados por traslados o asignaciones de salida.
type NoteLockedError struct {
	NoteID string
}

// Código que el cliente usa para pedir al usuario que reverse traslados/salidas primero.
const NoteLockedCode = "NOTE_LOCKED_BY_DOWNSTREAM"

func (e *NoteLockedError) Error() string {
	return fmt.Sprintf("%s: nota %s", ErrNoteLocked.Error(), e.NoteID)
}

func (e *NoteLockedError) Unwrap() error { return ErrNoteLocked }

// NotFoundf envuelve ErrNotFound con la referencia desconocida.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
