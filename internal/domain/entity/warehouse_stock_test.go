package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

func TestWarehouseStock_Umbrales(t *testing.T) {
	st := &entity.WarehouseStock{QuantityOnHand: d(12), MinThreshold: d(5), MaxThreshold: d(10)}
	assert.False(t, st.IsLow())
	assert.True(t, st.IsOverstocked(), "12 supera el máximo de 10")

	st.QuantityOnHand = d(5)
	assert.True(t, st.IsLow(), "en el mínimo cuenta como bajo")
	assert.False(t, st.IsOverstocked())

	sinUmbrales := &entity.WarehouseStock{QuantityOnHand: d(1000)}
	assert.False(t, sinUmbrales.IsLow())
	assert.False(t, sinUmbrales.IsOverstocked(), "máximo en cero significa sin máximo")
}
