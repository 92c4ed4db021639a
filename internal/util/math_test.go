package util

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRatio(t *testing.T) {
	// GIVEN
	a := 0.0
	b := 100.0
	c := 50.0

	expected := 0.5

	// WHEN
	result := Ratio(c, a, b)

	// THEN
	assert.Equal(t, expected, result)
}

func TestCoerce(t *testing.T) {
	// GIVEN
	expectedInputOutput := map[float64]float64{
		-10.0: 0.0,
		0.0:   0.0,
		50.0:  50.0,
		100.0: 100.0,
		150.0: 100.0,
	}

	for input, output := range expectedInputOutput {
		// WHEN
		result := Coerce(input, 0, 100)

		// THEN
		assert.Equal(t, output, result)
	}
}

func TestAvg(t *testing.T) {
	// GIVEN
	values := []float64{10, 20, 30}

	// WHEN
	result := Avg(values)

	// THEN
	assert.Equal(t, 20.0, result)
}

func TestUpdateSimpleMovingAvg(t *testing.T) {
	// GIVEN
	oldAvg := 10.0
	n := 10

	// WHEN
	result := UpdateSimpleMovingAvg(oldAvg, n, 20.0)

	// THEN
	assert.Equal(t, 11.0, result)
}
