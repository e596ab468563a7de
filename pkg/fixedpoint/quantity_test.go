package fixedpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/econsim-go/pkg/fixedpoint"
)

func TestFromInt(t *testing.T) {
	q := fixedpoint.FromInt(5)
	assert.Equal(t, int64(5*fixedpoint.Scale), q.Micros())
	assert.Equal(t, 5.0, q.Float64())
}

func TestFromFloat_RoundsToNearestMicro(t *testing.T) {
	q := fixedpoint.FromFloat(1.0000005)
	assert.Equal(t, int64(1000001), q.Micros())
}

func TestAddSub(t *testing.T) {
	a := fixedpoint.FromFloat(2.5)
	b := fixedpoint.FromFloat(1.25)

	assert.Equal(t, fixedpoint.FromFloat(3.75), a.Add(b))
	assert.Equal(t, fixedpoint.FromFloat(1.25), a.Sub(b))
}

func TestIsZeroIsNegative(t *testing.T) {
	assert.True(t, fixedpoint.Zero.IsZero())
	assert.False(t, fixedpoint.Zero.IsNegative())

	neg := fixedpoint.FromInt(-3)
	assert.True(t, neg.IsNegative())
	assert.False(t, neg.IsZero())
}

func TestGreaterOrEqual(t *testing.T) {
	a := fixedpoint.FromInt(5)
	b := fixedpoint.FromInt(5)
	c := fixedpoint.FromInt(4)

	assert.True(t, a.GreaterOrEqual(b))
	assert.True(t, a.GreaterOrEqual(c))
	assert.False(t, c.GreaterOrEqual(a))
}

func TestSub_CanGoNegative(t *testing.T) {
	a := fixedpoint.FromInt(2)
	b := fixedpoint.FromInt(5)

	result := a.Sub(b)
	assert.True(t, result.IsNegative())
}

func TestString(t *testing.T) {
	cases := []struct {
		q    fixedpoint.Quantity
		want string
	}{
		{fixedpoint.FromInt(0), "0"},
		{fixedpoint.FromInt(7), "7"},
		{fixedpoint.FromFloat(1.5), "1.5"},
		{fixedpoint.FromFloat(0.000001), "0.000001"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.q.String())
	}
}
