package entity

import (
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

var (
	errUnknownItem      = fmt.Errorf("%w: ítem no pertenece al despacho", domain.ErrInvalidInput)
	errOverrideRange    = fmt.Errorf("%w: cantidad liberada fuera de rango [0, solicitada]", domain.ErrInvalidInput)
	errNothingToRelease = fmt.Errorf("%w: el despacho no libera ninguna unidad", domain.ErrInvalidInput)
)

func transitionError(current ReleaseStatus, action string) error {
	return domain.NewInvalidTransition(string(current), action)
}
