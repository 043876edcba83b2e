package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Los servicios los envuelven con %w para agregar detalle; los llamadores usan errors.Is.
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrSessionNotOpen         = errors.New("la sesión de caja no está abierta")
	ErrSessionAlreadyOpen     = fmt.Errorf("%w: ya existe una sesión abierta para la caja", ErrConflict)
)

// Invalid construye un error de validación con detalle.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound construye un ErrNotFound indicando el recurso.
func NotFound(resource, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

// Insufficient construye un ErrInsufficientStock con disponible y solicitado.
func Insufficient(itemID, warehouseID string, available, requested fmt.Stringer) error {
	return fmt.Errorf("%w: ítem %s en bodega %s (disponible %s, solicitado %s)",
		ErrInsufficientStock, itemID, warehouseID, available, requested)
}

// InvalidTransition construye un ErrInvalidStateTransition con el estado actual y la acción.
func InvalidTransition(entity, from, action string) error {
	return fmt.Errorf("%w: %s en estado %s no admite %s", ErrInvalidStateTransition, entity, from, action)
}
