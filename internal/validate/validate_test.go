package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Mode  string `validate:"oneof=minimal coverage-max"`
	Count int    `validate:"gte=1"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Mode: "minimal", Count: 1}))

	err := Struct(sample{Mode: "fast", Count: 0})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "sample.Mode")
		assert.Contains(t, err.Error(), "sample.Count")
	}
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("8", "numeric"))
	assert.Error(t, Var("eight", "numeric"))
}
