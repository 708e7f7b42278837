package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/apperror"
)

func TestNew_IsTimeOrdered(t *testing.T) {
	a := New()
	b := New()
	assert.Equal(t, 7, int(a.Version()))
	assert.Less(t, a.String(), b.String())
}

func TestParseField(t *testing.T) {
	v := New()
	got, err := ParseField("product_id", v.String())
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = ParseField("product_id", "nope")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "product_id", appErr.Details["field"])
}
