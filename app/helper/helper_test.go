package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsedFraction(t *testing.T) {
	assert.Equal(t, float32(0.29), UsedFraction(71, 100))
	assert.Equal(t, float32(0.42), UsedFraction(5701, 10000))
	assert.Equal(t, float32(0), UsedFraction(10, 10))
	assert.Equal(t, float32(1), UsedFraction(0, 10))
	assert.Equal(t, float32(0), UsedFraction(0, 0))
	assert.Equal(t, float32(0), UsedFraction(11, 10))
}
