package entity

import (
	"time"

	"github.com/jhoicas/inventario-caja/internal/domain"
)

func invalidTransition(entity, from, action string) error {
	return domain.InvalidTransition(entity, from, action)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
