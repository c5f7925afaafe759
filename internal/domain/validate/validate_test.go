package validate

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	err := Required("name")
	assert.EqualError(t, err, "name is required")

	var vErr *Error
	require.True(t, errors.As(errors.Wrap(err, "create drug"), &vErr))
	assert.Equal(t, "name", vErr.Field)
}

func TestNonNegative(t *testing.T) {
	assert.NoError(t, NonNegative("price", decimal.Zero))
	assert.NoError(t, NonNegative("price", decimal.RequireFromString("0.01")))
	assert.EqualError(t, NonNegative("price", decimal.RequireFromString("-1")), "price must not be negative")
}
