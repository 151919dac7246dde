package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
	ErrInvariantViolation = errors.New("violación de invariante interna")
)

// InsufficientStockError detalla qué producto no alcanzó y con cuánto se contaba.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Available  int64
	Requested  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en bodega %s: disponible %d, solicitado %d",
		e.ProductID, e.LocationID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidTransitionError indica el estado actual y la operación que se intentó.
type InvalidTransitionError struct {
	Current   string
	Attempted string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición inválida: no se puede %s desde %s", e.Attempted, e.Current)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// InvariantViolationError es un error de programación: nunca debe llegar al usuario con su detalle.
type InvariantViolationError struct {
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return "violación de invariante: " + e.Detail
}

func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }

// NewInsufficientStock atajo para construir el error tipado.
func NewInsufficientStock(productID, locationID string, available, requested int64) error {
	return &InsufficientStockError{ProductID: productID, LocationID: locationID, Available: available, Requested: requested}
}

// NewInvalidTransition atajo para construir el error tipado.
func NewInvalidTransition(current, attempted string) error {
	return &InvalidTransitionError{Current: current, Attempted: attempted}
}

// NewInvariantViolation atajo con formato.
func NewInvariantViolation(format string, args ...any) error {
	return &InvariantViolationError{Detail: fmt.Sprintf(format, args...)}
}
