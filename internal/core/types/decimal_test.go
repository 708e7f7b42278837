package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	m, err := NewMoneyFromString("12.345")
	require.NoError(t, err)

	assert.Equal(t, "12.35", RoundPrice(m).StringFixed(2))
	assert.False(t, IsNegative(m))
	assert.True(t, IsNegative(MustMoney("-0.01")))
	assert.False(t, IsNegative(Zero()))

	_, err = NewMoneyFromString("abc")
	assert.Error(t, err)
}
