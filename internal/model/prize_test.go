package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferPrizeCurrency(t *testing.T) {
	assert.Equal(t, "GBP", InferPrizeCurrency("£4,528"))
	assert.Equal(t, "EUR", InferPrizeCurrency("€12,000"))
	assert.Equal(t, "USD", InferPrizeCurrency("$5,000"))
	assert.Equal(t, "GBP", InferPrizeCurrency("  £100"))
}

func TestInferPrizeCurrency_NoSymbol(t *testing.T) {
	assert.Empty(t, InferPrizeCurrency(""))
	assert.Empty(t, InferPrizeCurrency("4528"))
	assert.Empty(t, InferPrizeCurrency("GBP 4,528"))
}
