package entity_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

func TestTransfer_Transiciones(t *testing.T) {
	tr := &entity.Transfer{Status: entity.TransferPending}
	require.NoError(t, tr.Ship("sup", now))
	assert.Equal(t, entity.TransferInTransit, tr.Status)

	assert.True(t, errors.Is(tr.Reject("sup", "x", now), domain.ErrInvalidStateTransition),
		"solo se rechaza desde PENDING")

	require.NoError(t, tr.Complete("bod", now))
	assert.True(t, tr.Status.IsTerminal())
	assert.True(t, errors.Is(tr.Complete("bod", now), domain.ErrInvalidStateTransition))
}

func TestAdjustment_AprobacionUnaSolaVez(t *testing.T) {
	a := &entity.Adjustment{Status: entity.AdjustmentPending}
	require.NoError(t, a.Approve("sup", now))
	assert.True(t, errors.Is(a.Approve("sup", now), domain.ErrInvalidStateTransition))
	assert.True(t, errors.Is(a.Reject("sup", "x", now), domain.ErrInvalidStateTransition))
}

func TestAdjustment_TotalValue(t *testing.T) {
	a := &entity.Adjustment{Items: []entity.AdjustmentItem{
		{QuantityDelta: d(-5), UnitCost: d(1000)},
		{QuantityDelta: d(2), UnitCost: d(300)},
	}}
	assert.True(t, a.TotalValue().Equal(d(5600)))
}

func TestAdjustmentKind_SignAllowed(t *testing.T) {
	assert.True(t, entity.AdjustmentPositive.SignAllowed(d(1)))
	assert.False(t, entity.AdjustmentPositive.SignAllowed(d(-1)))
	assert.True(t, entity.AdjustmentTheft.SignAllowed(d(-1)))
	assert.False(t, entity.AdjustmentShrinkage.SignAllowed(d(1)))
	assert.True(t, entity.AdjustmentCorrection.SignAllowed(d(1)))
	assert.True(t, entity.AdjustmentCorrection.SignAllowed(d(-1)))
}
