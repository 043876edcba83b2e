package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-caja/internal/domain/inventory"
)

func TestWeightedAverageCost(t *testing.T) {
	d := decimal.NewFromInt

	// 10 u a 100 + 10 u a 200 = 150
	assert.True(t, inventory.WeightedAverageCost(d(10), d(100), d(10), d(200)).Equal(d(150)))
	// Sin saldo previo el costo es el de la entrada
	assert.True(t, inventory.WeightedAverageCost(decimal.Zero, decimal.Zero, d(5), d(80)).Equal(d(80)))
	// Saldo negativo no pondera
	assert.True(t, inventory.WeightedAverageCost(d(-3), d(999), d(5), d(80)).Equal(d(80)))
}
