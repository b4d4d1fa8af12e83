package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusEnPreparacion, true},
		{StatusEnPreparacion, StatusListo, true},
		{StatusListo, StatusEntregado, true},
		{StatusPending, StatusListo, false},
		{StatusPending, StatusEntregado, false},
		{StatusListo, StatusEnPreparacion, false},
		{StatusPending, StatusCancelado, true},
		{StatusEnPreparacion, StatusCancelado, true},
		{StatusListo, StatusCancelado, true},
		{StatusEntregado, StatusCancelado, false},
		{StatusCancelado, StatusPending, false},
		{StatusEntregado, StatusPending, false},
		{OrderStatus("BOGUS"), StatusPending, false},
		{StatusPending, OrderStatus("BOGUS"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusEntregado.IsTerminal())
	assert.True(t, StatusCancelado.IsTerminal())
	assert.False(t, StatusListo.IsTerminal())

	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusEnPreparacion.IsActive())
	assert.True(t, StatusListo.IsActive())
	assert.False(t, StatusEntregado.IsActive())
	assert.False(t, StatusCancelado.IsActive())
}

func TestNext(t *testing.T) {
	assert.Equal(t, StatusEnPreparacion, StatusPending.Next())
	assert.Equal(t, StatusListo, StatusEnPreparacion.Next())
	assert.Equal(t, StatusEntregado, StatusListo.Next())
	assert.Equal(t, OrderStatus(""), StatusEntregado.Next())
	assert.Equal(t, OrderStatus(""), StatusCancelado.Next())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "En Preparación", StatusEnPreparacion.Label())
	assert.Equal(t, "UNKNOWN", OrderStatus("UNKNOWN").Label())
}
